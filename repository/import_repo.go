package repository

import (
	"database/sql"
	"errors"

	"persona_analyzer/db"
	"persona_analyzer/models"
)

// =====================
// 导入台账
// =====================

// FindImportByChecksum 按文件checksum查找历史导入，用于跳过重复导入
func FindImportByChecksum(checksum string) (*models.DatasetImport, error) {
	row := db.DB.QueryRow(`
        SELECT batch_id, file_path, checksum, total, imported, skipped, personas, created_at
        FROM dataset_imports
        WHERE checksum = ?
        ORDER BY created_at DESC
        LIMIT 1
    `, checksum)

	di := &models.DatasetImport{}
	if err := row.Scan(&di.BatchID, &di.FilePath, &di.Checksum, &di.Total,
		&di.Imported, &di.Skipped, &di.Personas, &di.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return di, nil
}

// InsertImport 记录一次导入
func InsertImport(di *models.DatasetImport) error {
	_, err := db.DB.Exec(`
        INSERT INTO dataset_imports (batch_id, file_path, checksum, total, imported, skipped, personas, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, NOW())
    `, di.BatchID, di.FilePath, di.Checksum, di.Total, di.Imported, di.Skipped, di.Personas)
	return err
}
