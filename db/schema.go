package db

import "fmt"

// 启动时保证的表结构。服务自带建表，部署时不依赖额外的迁移工具。
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS notebook_records (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		notebook_id VARCHAR(128) NOT NULL,
		title VARCHAR(512) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		category VARCHAR(128) NOT NULL DEFAULT '',
		votes INT NOT NULL DEFAULT 0,
		forks INT NOT NULL DEFAULT 0,
		views INT NOT NULL DEFAULT 0,
		cell_count INT NOT NULL DEFAULT 0,
		language VARCHAR(64) NOT NULL DEFAULT '',
		medal VARCHAR(16) NOT NULL DEFAULT '',
		UNIQUE KEY uk_notebook (notebook_id),
		KEY idx_user_created (user_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS user_personas (
		user_id VARCHAR(64) PRIMARY KEY,
		persona VARCHAR(128) NOT NULL,
		confidence DOUBLE NOT NULL DEFAULT 0,
		top_features TEXT,
		stats TEXT,
		recommended_topics TEXT,
		source VARCHAR(16) NOT NULL DEFAULT 'computed',
		generated_at DATETIME NOT NULL,
		KEY idx_persona (persona)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS user_timeline (
		user_id VARCHAR(64) NOT NULL,
		period CHAR(7) NOT NULL,
		notebook_count INT NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, period)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS dataset_imports (
		batch_id VARCHAR(36) PRIMARY KEY,
		file_path VARCHAR(512) NOT NULL,
		checksum CHAR(32) NOT NULL,
		total INT NOT NULL DEFAULT 0,
		imported INT NOT NULL DEFAULT 0,
		skipped INT NOT NULL DEFAULT 0,
		personas INT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		KEY idx_checksum (checksum)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema 按顺序执行建表语句，表已存在时跳过
func EnsureSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("建表失败: %v", err)
		}
	}
	return nil
}
