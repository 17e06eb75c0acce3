package repository

import (
	"persona_analyzer/db"
	"persona_analyzer/models"
)

// =====================
// 活跃时间线
// =====================

// ReplaceUserTimeline 整体替换一个用户的时间线。时间线总是由记录重新算出，
// 不做增量合并，先删后插保证和记录表一致。
func ReplaceUserTimeline(uid string, points []models.TimelinePoint) error {
	tx, err := db.DB.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM user_timeline WHERE user_id = ?`, uid); err != nil {
		tx.Rollback()
		return err
	}

	if len(points) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO user_timeline (user_id, period, notebook_count) VALUES (?, ?, ?)`)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()

		for _, p := range points {
			if _, err := stmt.Exec(uid, p.Period, p.Count); err != nil {
				tx.Rollback()
				return err
			}
		}
	}

	return tx.Commit()
}

// GetUserTimeline 取一个用户的活跃时间线，按月份升序
func GetUserTimeline(uid string) ([]models.TimelinePoint, error) {
	rows, err := db.DB.Query(`
        SELECT period, notebook_count
        FROM user_timeline
        WHERE user_id = ?
        ORDER BY period ASC
    `, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]models.TimelinePoint, 0)
	for rows.Next() {
		var p models.TimelinePoint
		if err := rows.Scan(&p.Period, &p.Count); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// TruncateTimeline 清空时间线表，全量重导入前使用
func TruncateTimeline() error {
	_, err := db.DB.Exec(`TRUNCATE TABLE user_timeline`)
	return err
}
