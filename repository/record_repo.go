package repository

import (
	"database/sql"
	"strings"

	"persona_analyzer/db"
	"persona_analyzer/models"
)

// =====================
// 通用工具函数
// =====================

// queryStrings 执行查询并返回字符串结果列表
func queryStrings(query string, args ...interface{}) ([]string, error) {
	rows, err := db.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]string, 0)
	for rows.Next() {
		var val sql.NullString
		if err := rows.Scan(&val); err == nil && val.Valid {
			s := strings.TrimSpace(val.String)
			if s != "" {
				results = append(results, s)
			}
		}
	}
	return results, nil
}

// queryCount 执行计数查询
func queryCount(query string, args ...interface{}) (int, error) {
	var count int
	err := db.DB.QueryRow(query, args...).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// =====================
// notebook记录
// =====================

// InsertRecordBatch 批量写入notebook记录，notebook_id重复的行静默跳过。
// 返回实际写入的行数。
func InsertRecordBatch(records []models.NotebookRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.DB.Begin()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
        INSERT IGNORE INTO notebook_records
        (user_id, notebook_id, title, created_at, category, votes, forks, views, cell_count, language, medal)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		res, err := stmt.Exec(r.UserID, r.NotebookID, r.Title, r.CreatedAt,
			r.Category, r.Votes, r.Forks, r.Views, r.CellCount, r.Language, r.Medal)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetRecordsByUser 取一个用户的全部notebook记录，按创建时间升序
func GetRecordsByUser(uid string) ([]models.NotebookRecord, error) {
	rows, err := db.DB.Query(`
        SELECT user_id, notebook_id, title, created_at, category, votes, forks, views, cell_count, language, medal
        FROM notebook_records
        WHERE user_id = ?
        ORDER BY created_at ASC
    `, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.NotebookRecord, 0)
	for rows.Next() {
		var r models.NotebookRecord
		var title, category, language, medal sql.NullString
		if err := rows.Scan(&r.UserID, &r.NotebookID, &title, &r.CreatedAt,
			&category, &r.Votes, &r.Forks, &r.Views, &r.CellCount, &language, &medal); err != nil {
			return nil, err
		}
		r.Title = title.String
		r.Category = category.String
		r.Language = language.String
		r.Medal = medal.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListUserIDs 返回数据集中出现过的全部用户ID
func ListUserIDs() ([]string, error) {
	return queryStrings(`SELECT DISTINCT user_id FROM notebook_records WHERE user_id != '' ORDER BY user_id`)
}

// CountRecords 记录总数，启动时判断是否需要自动导入
func CountRecords() (int, error) {
	return queryCount(`SELECT COUNT(1) FROM notebook_records`)
}

// SearchUsers 按用户ID模糊搜索，附带notebook数量和已有画像
func SearchUsers(q string, limit int) ([]models.UserSummary, error) {
	rows, err := db.DB.Query(`
        SELECT r.user_id, COUNT(*) AS notebooks, COALESCE(p.persona, '') AS persona
        FROM notebook_records r
        LEFT JOIN user_personas p ON p.user_id = r.user_id
        WHERE r.user_id LIKE CONCAT('%', ?, '%')
        GROUP BY r.user_id, p.persona
        ORDER BY r.user_id
        LIMIT ?
    `, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.UserSummary, 0)
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.UserID, &u.Notebooks, &u.Persona); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// TruncateRecords 清空记录表，全量重导入前使用
func TruncateRecords() error {
	_, err := db.DB.Exec(`TRUNCATE TABLE notebook_records`)
	return err
}
