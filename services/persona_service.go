package services

import (
	"fmt"
	"sort"

	"persona_analyzer/engine"
	"persona_analyzer/logger"
	"persona_analyzer/models"
	"persona_analyzer/repository"
	"persona_analyzer/utils"
)

// 用户搜索的数量上限
const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// GetUserPersona 读取用户画像行，没有画像时返回 sql.ErrNoRows
func GetUserPersona(uid string) (*models.UserPersona, error) {
	return repository.GetPersona(uid)
}

// BuildPersonaView 把持久化的画像行组装成对外返回的完整画像，
// 并从原型目录补充emoji、颜色和描述。目录里找不到的画像标签只出名字。
func BuildPersonaView(catalog *engine.Catalog, p *models.UserPersona) (*models.PersonaView, error) {
	if p == nil {
		return nil, fmt.Errorf("画像为空: %w", engine.ErrInvalidInput)
	}

	features, err := p.ParseTopFeatures()
	if err != nil {
		return nil, fmt.Errorf("解析画像特征失败: %v", err)
	}
	stats, err := p.ParseStats()
	if err != nil {
		return nil, fmt.Errorf("解析画像统计失败: %v", err)
	}
	topics, err := p.ParseTopics()
	if err != nil {
		return nil, fmt.Errorf("解析推荐主题失败: %v", err)
	}

	view := &models.PersonaView{
		UserID:      p.UserID,
		Persona:     p.Persona,
		Confidence:  p.Confidence,
		Source:      p.Source,
		TopFeatures: features,
		Stats:       stats,
		Topics:      topics,
		GeneratedAt: p.GeneratedAt,
	}

	if catalog != nil {
		if a, ok := catalog.Find(p.Persona); ok {
			view.Emoji = a.Emoji
			view.Color = a.Color
			view.Description = a.Description
		}
	}

	return view, nil
}

// GetUserTimeline 用户活跃时间线。时间线表还没生成时退回到按原始记录现算，
// 只读路径不落库。
func GetUserTimeline(uid string) ([]models.TimelinePoint, error) {
	points, err := repository.GetUserTimeline(uid)
	if err != nil {
		return nil, err
	}
	if len(points) > 0 {
		return points, nil
	}

	records, err := repository.GetRecordsByUser(uid)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []models.TimelinePoint{}, nil
	}

	logger.Debug("时间线表无数据，按原始记录现算", "user_id", uid, "records", len(records))
	return engine.BuildTimeline(records), nil
}

// ExportUserData 单用户完整数据导出（画像+时间线）
func ExportUserData(catalog *engine.Catalog, uid string) (*models.UserExport, error) {
	p, err := repository.GetPersona(uid)
	if err != nil {
		return nil, err
	}

	view, err := BuildPersonaView(catalog, p)
	if err != nil {
		return nil, err
	}

	timeline, err := GetUserTimeline(uid)
	if err != nil {
		return nil, err
	}

	return &models.UserExport{
		Profile:  view,
		Timeline: timeline,
	}, nil
}

// SearchUsers 按用户ID模糊搜索，limit非法时回退到默认值
func SearchUsers(q string, limit int) ([]models.UserSummary, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = utils.Min(limit, maxSearchLimit)
	return repository.SearchUsers(q, limit)
}

// GetPersonaOverview 画像分布概览，按原型目录顺序排列，目录外的标签排在末尾
func GetPersonaOverview(catalog *engine.Catalog) ([]models.PersonaCount, error) {
	counts, err := repository.ListPersonaCounts()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, catalog.Len())
	for _, a := range catalog.Archetypes() {
		names = append(names, a.Name)
	}

	sort.SliceStable(counts, func(i, j int) bool {
		oi, oj := utils.IndexOf(names, counts[i].Persona), utils.IndexOf(names, counts[j].Persona)
		if oi == -1 && oj == -1 {
			return counts[i].Persona < counts[j].Persona
		}
		if oi == -1 {
			return false
		}
		if oj == -1 {
			return true
		}
		return oi < oj
	})

	return counts, nil
}
