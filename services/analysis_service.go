package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"persona_analyzer/config"
	"persona_analyzer/engine"
	"persona_analyzer/logger"
	"persona_analyzer/models"
	"persona_analyzer/repository"
)

// AnalyzeAllUsers 为数据集中的所有用户计算画像（并发版）
func AnalyzeAllUsers(cfg *config.Config, catalog *engine.Catalog) (*models.AnalyzeResult, error) {
	logger.Info("开始为所有用户计算画像")
	start := time.Now()

	uids, err := repository.ListUserIDs()
	if err != nil {
		logger.Error("获取用户列表失败", "error", err)
		return nil, err
	}
	logger.Info("找到候选用户", "count", len(uids))

	result := AnalyzeUsersWithConcurrency(cfg, catalog, uids, cfg.Cron.Concurrency)
	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

// AnalyzeUser 为指定用户计算画像并落库。
// 返回值: 用户画像, 是否重新计算了画像, 错误。
// 带有导入来源画像的用户跳过打分（预计算画像优先），但时间线照常重建。
func AnalyzeUser(cfg *config.Config, catalog *engine.Catalog, uid string) (*models.UserPersona, bool, error) {
	if uid == "" {
		return nil, false, fmt.Errorf("用户ID为空: %w", engine.ErrInvalidInput)
	}

	records, err := repository.GetRecordsByUser(uid)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load records: %w", err)
	}
	if len(records) == 0 {
		return nil, false, fmt.Errorf("用户 %s 没有notebook记录: %w", uid, engine.ErrInsufficientData)
	}

	// 时间线总是从原始记录重建，和画像来源无关
	timeline := engine.BuildTimeline(records)
	if err := repository.ReplaceUserTimeline(uid, timeline); err != nil {
		return nil, false, fmt.Errorf("failed to save timeline: %w", err)
	}

	// 查询现有画像：导入的预计算画像优先，不再经过打分器
	existing, err := repository.GetPersona(uid)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to get existing persona: %w", err)
	}
	if existing.IsImported() {
		logger.Debug("用户画像来自预计算表，跳过打分", "user_id", uid)
		return existing, false, nil
	}

	persona, err := buildPersonaRow(catalog, uid, records)
	if err != nil {
		return nil, false, err
	}

	if err := repository.UpsertPersona(persona); err != nil {
		return nil, false, fmt.Errorf("failed to save persona: %w", err)
	}

	return persona, true, nil
}

// buildPersonaRow 跑一遍完整的特征提取+打分+统计流水线，组装持久化行
func buildPersonaRow(catalog *engine.Catalog, uid string, records []models.NotebookRecord) (*models.UserPersona, error) {
	fv, err := engine.ExtractFeatures(records)
	if err != nil {
		return nil, err
	}

	assignment, err := engine.Score(catalog, fv)
	if err != nil {
		return nil, err
	}

	stats := engine.BuildActivityStats(records)

	winner, _ := catalog.Find(assignment.Persona)
	topics := engine.RecommendTopics(fv, winner)

	featuresJSON, _ := json.Marshal(assignment.TopFeatures)
	statsJSON, _ := json.Marshal(stats)
	topicsJSON, _ := json.Marshal(topics)

	return &models.UserPersona{
		UserID:      uid,
		Persona:     assignment.Persona,
		Confidence:  assignment.Confidence,
		TopFeatures: string(featuresJSON),
		Stats:       string(statsJSON),
		Topics:      string(topicsJSON),
		Source:      models.PersonaSourceComputed,
		GeneratedAt: time.Now(),
	}, nil
}

// AnalyzeUsersWithConcurrency 并发计算用户画像
func AnalyzeUsersWithConcurrency(cfg *config.Config, catalog *engine.Catalog, uids []string, concurrency int) *models.AnalyzeResult {
	if concurrency <= 0 {
		concurrency = 4 // 默认并发数
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	var mu sync.Mutex
	analyzed, skipped, failed := 0, 0, 0

	for _, uid := range uids {
		wg.Add(1)
		semaphore <- struct{}{} // acquire semaphore

		go func(userID string) {
			defer wg.Done()
			defer func() { <-semaphore }() // release semaphore

			_, recomputed, err := AnalyzeUser(cfg, catalog, userID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				logger.Error("计算用户画像失败", "user_id", userID, "error", err)
				return
			}
			if recomputed {
				analyzed++
				logger.Debug("成功计算用户画像", "user_id", userID)
			} else {
				skipped++
				logger.Debug("用户画像无需计算", "user_id", userID)
			}
		}(uid)
	}

	wg.Wait()
	logger.Info("所有用户画像计算完成",
		"total", len(uids),
		"analyzed", analyzed,
		"skipped", skipped,
		"failed", failed,
	)

	return &models.AnalyzeResult{
		TotalUsers: len(uids),
		Analyzed:   analyzed,
		Skipped:    skipped,
		Failed:     failed,
	}
}
