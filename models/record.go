package models

import "time"

// NotebookRecord 数据集中的一条notebook创作记录（只读，导入后不再修改）
type NotebookRecord struct {
	UserID     string    `db:"user_id" json:"user_id"`
	NotebookID string    `db:"notebook_id" json:"notebook_id"`
	Title      string    `db:"title" json:"title,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	Category   string    `db:"category" json:"category"` // 主题标签，空字符串表示未分类
	Votes      int       `db:"votes" json:"votes"`
	Forks      int       `db:"forks" json:"forks"`
	Views      int       `db:"views" json:"views"`
	CellCount  int       `db:"cell_count" json:"cell_count"`
	Language   string    `db:"language" json:"language,omitempty"`
	Medal      string    `db:"medal" json:"medal,omitempty"` // gold / silver / bronze，空表示无奖牌
}

// RequiredRecordFields 导入时必须存在的CSV列
var RequiredRecordFields = []string{"AuthorUserId", "NotebookId", "CreationDate"}

// DatasetImport 一次数据集导入的台账行，checksum用来跳过重复导入
type DatasetImport struct {
	BatchID   string    `db:"batch_id" json:"batch_id"`
	FilePath  string    `db:"file_path" json:"file_path"`
	Checksum  string    `db:"checksum" json:"checksum"`
	Total     int       `db:"total" json:"total"`
	Imported  int       `db:"imported" json:"imported"`
	Skipped   int       `db:"skipped" json:"skipped"`
	Personas  int       `db:"personas" json:"personas"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
