package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"persona_analyzer/config"
	"persona_analyzer/engine"
	"persona_analyzer/logger"
	"persona_analyzer/models"
	"persona_analyzer/repository"
	"persona_analyzer/utils"
)

// PersonaPushPayload 推送到外部展示服务的画像数据
type PersonaPushPayload struct {
	UID      string              `json:"uid,omitempty"`
	Personas []PersonaPushFormat `json:"personas"`
}

// PersonaPushFormat 推送给外部展示服务的画像卡片格式
type PersonaPushFormat struct {
	Persona     string   `json:"persona"`
	Emoji       string   `json:"emoji,omitempty"`
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Count       int      `json:"count,omitempty"` // 概览群发时每个原型的用户数
}

func personaCard(view *models.PersonaView) PersonaPushFormat {
	return PersonaPushFormat{
		Persona:     view.Persona,
		Emoji:       view.Emoji,
		Confidence:  view.Confidence,
		Description: view.Description,
		Topics:      view.Topics,
	}
}

// 通过HTTP把画像卡片推给外部展示服务
func pushViaHTTP(cfg *config.Config, uid string, cards []PersonaPushFormat) bool {
	payload := PersonaPushPayload{
		Personas: cards,
	}

	// 只有当uid非空时才设置UID字段，空uid表示群发
	if uid != "" {
		payload.UID = uid
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		logger.Error("序列化画像推送数据失败", "error", err, "user_id", uid)
		return false
	}

	pushURL := cfg.ExternalAPI.PersonaPushURL
	req, err := http.NewRequest("POST", pushURL, bytes.NewBuffer(jsonData))
	if err != nil {
		logger.Error("创建HTTP请求失败", "error", err, "user_id", uid)
		return false
	}

	// 鉴权签名用毫秒时间戳的后4位
	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	timestampStr := strconv.FormatInt(timestamp, 10)
	lastFourDigits := timestampStr[len(timestampStr)-4:]

	// API密钥优先从环境变量读取
	apiKey := os.Getenv("EXTERNAL_API_KEY")
	if apiKey == "" {
		apiKey = cfg.ExternalAPI.APIKey
	}
	if apiKey == "" {
		logger.Warn("环境变量EXTERNAL_API_KEY未设置")
	}

	authorization := utils.CalculateAuthorizationHeader(apiKey, lastFourDigits)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("timestamp", timestampStr)
	req.Header.Set("Authorization", authorization)
	req.Header.Set("apiKey", apiKey)

	logger.Debug("HTTP推送请求信息",
		"url", pushURL,
		"timestamp", timestampStr,
		"timestamp_last_4", lastFourDigits,
		"body", string(jsonData))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		logger.Error("发送画像推送请求失败", "error", err, "user_id", uid)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("画像推送请求返回非200状态码", "status_code", resp.StatusCode, "user_id", uid)
		return false
	}

	var result struct {
		ErrCode int    `json:"errCode"`
		Msg     string `json:"msg"`
		Success bool   `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Error("解析画像推送响应失败", "error", err, "user_id", uid)
		return false
	}

	if !result.Success || result.ErrCode != 200 {
		logger.Error("画像推送被对端拒绝", "error_code", result.ErrCode, "message", result.Msg, "user_id", uid)
		return false
	}

	logger.Info("成功通过HTTP推送画像", "cards", len(cards), "user_id", uid)
	return true
}

// PushForUser 为指定用户推送画像卡片
func PushForUser(cfg *config.Config, catalog *engine.Catalog, uid string) error {
	if cfg.ExternalAPI.PersonaPushURL == "" {
		logger.Info("未配置画像推送地址，跳过推送", "user_id", uid)
		return nil
	}

	start := time.Now()

	p, err := repository.GetPersona(uid)
	if err != nil {
		return err
	}

	view, err := BuildPersonaView(catalog, p)
	if err != nil {
		return fmt.Errorf("组装画像失败: %v", err)
	}

	pushOk := pushViaHTTP(cfg, uid, []PersonaPushFormat{personaCard(view)})

	logger.Info("推送完成",
		"user_id", uid,
		"method", "http",
		"success", pushOk,
		"cost", time.Since(start).String())

	if !pushOk {
		return fmt.Errorf("用户 %s 画像推送失败", uid)
	}
	return nil
}

// PushAll 推送所有用户的画像，最后附带一次画像分布概览群发
func PushAll(cfg *config.Config, catalog *engine.Catalog) error {
	if cfg.ExternalAPI.PersonaPushURL == "" {
		logger.Info("未配置画像推送地址，跳过推送")
		return nil
	}

	logger.Info("开始推送所有用户的画像")

	personas, err := repository.ListPersonas()
	if err != nil {
		logger.Error("获取画像列表失败", "error", err)
		return err
	}

	logger.Info("找到已有画像的用户", "count", len(personas))

	successCount, failCount := pushPersonasWithConcurrency(cfg, catalog, personas)

	// 发送画像分布概览群发消息
	logger.Info("开始推送画像分布概览")
	if err := pushOverviewBroadcast(cfg, catalog); err != nil {
		logger.Error("推送画像分布概览失败", "error", err)
		failCount++
	} else {
		successCount++
	}

	logger.Info("推送完成", "success", successCount, "failed", failCount)
	return nil
}

// pushOverviewBroadcast 推送画像分布概览（uid为空表示群发）
func pushOverviewBroadcast(cfg *config.Config, catalog *engine.Catalog) error {
	counts, err := repository.ListPersonaCounts()
	if err != nil {
		return err
	}

	if len(counts) == 0 {
		logger.Info("还没有任何画像，跳过概览群发")
		return nil
	}

	cards := make([]PersonaPushFormat, 0, len(counts))
	for _, c := range counts {
		card := PersonaPushFormat{
			Persona: c.Persona,
			Count:   c.Count,
		}
		if a, ok := catalog.Find(c.Persona); ok {
			card.Emoji = a.Emoji
			card.Description = a.Description
		}
		cards = append(cards, card)
	}

	if !pushViaHTTP(cfg, "", cards) {
		return fmt.Errorf("画像分布概览群发失败")
	}

	logger.Info("画像分布概览群发成功", "personas", len(cards))
	return nil
}

// pushPersonasWithConcurrency 并发推送用户画像
func pushPersonasWithConcurrency(cfg *config.Config, catalog *engine.Catalog, personas []models.UserPersona) (int, int) {
	pushConcurrency := cfg.Cron.PushConcurrency
	if pushConcurrency <= 0 {
		pushConcurrency = 4
	}

	// 先组装好卡片，推送协程里只做网络IO
	type pushItem struct {
		uid   string
		cards []PersonaPushFormat
	}

	var pushList []pushItem
	for i := range personas {
		view, err := BuildPersonaView(catalog, &personas[i])
		if err != nil {
			logger.Error("组装画像失败，跳过该用户", "user_id", personas[i].UserID, "error", err)
			continue
		}
		pushList = append(pushList, pushItem{uid: view.UserID, cards: []PersonaPushFormat{personaCard(view)}})
	}

	logger.Info("开始并发推送", "total_users", len(pushList), "concurrency", pushConcurrency)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, pushConcurrency)

	var mu sync.Mutex
	var successCount, failCount int

	for _, item := range pushList {
		wg.Add(1)
		semaphore <- struct{}{} // acquire semaphore

		go func(pushData pushItem) {
			defer wg.Done()
			defer func() { <-semaphore }() // release semaphore

			pushOk := pushViaHTTP(cfg, pushData.uid, pushData.cards)

			mu.Lock()
			if pushOk {
				successCount++
			} else {
				failCount++
				logger.Error("用户画像推送失败", "user_id", pushData.uid)
			}
			mu.Unlock()
		}(item)
	}

	wg.Wait()
	logger.Info("并发推送完成", "success", successCount, "failed", failCount, "concurrency", pushConcurrency)

	return successCount, failCount
}
