package repository

import (
	"database/sql"
	"errors"

	"persona_analyzer/db"
	"persona_analyzer/models"
)

// =====================
// 用户画像
// =====================

func GetPersona(uid string) (*models.UserPersona, error) {
	row := db.DB.QueryRow(`
        SELECT user_id, persona, confidence, top_features, stats, recommended_topics, source, generated_at
        FROM user_personas WHERE user_id = ?
    `, uid)

	p := &models.UserPersona{}
	var topFeatures, stats, topics sql.NullString
	if err := row.Scan(&p.UserID, &p.Persona, &p.Confidence, &topFeatures, &stats, &topics, &p.Source, &p.GeneratedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	p.TopFeatures = topFeatures.String
	p.Stats = stats.String
	p.Topics = topics.String
	return p, nil
}

func UpsertPersona(p *models.UserPersona) error {
	_, err := db.DB.Exec(`
        INSERT INTO user_personas (user_id, persona, confidence, top_features, stats, recommended_topics, source, generated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, NOW())
        ON DUPLICATE KEY UPDATE
            persona=VALUES(persona), confidence=VALUES(confidence), top_features=VALUES(top_features),
            stats=VALUES(stats), recommended_topics=VALUES(recommended_topics), source=VALUES(source),
            generated_at=NOW()
    `, p.UserID, p.Persona, p.Confidence, p.TopFeatures, p.Stats, p.Topics, p.Source)
	return err
}

// ListPersonas 返回全部画像行，批量推送用
func ListPersonas() ([]models.UserPersona, error) {
	rows, err := db.DB.Query(`
        SELECT user_id, persona, confidence, top_features, stats, recommended_topics, source, generated_at
        FROM user_personas
        ORDER BY user_id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	personas := make([]models.UserPersona, 0)
	for rows.Next() {
		var p models.UserPersona
		var topFeatures, stats, topics sql.NullString
		if err := rows.Scan(&p.UserID, &p.Persona, &p.Confidence, &topFeatures, &stats, &topics, &p.Source, &p.GeneratedAt); err != nil {
			return nil, err
		}
		p.TopFeatures = topFeatures.String
		p.Stats = stats.String
		p.Topics = topics.String
		personas = append(personas, p)
	}
	return personas, rows.Err()
}

// ListPersonaCounts 各画像原型下的用户数，画像分布概览用
func ListPersonaCounts() ([]models.PersonaCount, error) {
	rows, err := db.DB.Query(`
        SELECT persona, COUNT(*) AS cnt
        FROM user_personas
        GROUP BY persona
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]models.PersonaCount, 0)
	for rows.Next() {
		var c models.PersonaCount
		if err := rows.Scan(&c.Persona, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// CountPersonas 已有画像的用户数
func CountPersonas() (int, error) {
	return queryCount(`SELECT COUNT(1) FROM user_personas`)
}

// TruncatePersonas 清空画像表，全量重导入前使用
func TruncatePersonas() error {
	_, err := db.DB.Exec(`TRUNCATE TABLE user_personas`)
	return err
}
