package models

import (
	"encoding/json"
	"time"
)

// 画像来源
const (
	PersonaSourceComputed = "computed" // 由引擎根据原始记录计算
	PersonaSourceImported = "imported" // 来自预计算画像表，优先于计算结果
)

// UserPersona 持久化的用户画像行。TopFeatures/Stats/Topics 以JSON字符串存储
type UserPersona struct {
	UserID      string    `db:"user_id" json:"user_id"`
	Persona     string    `db:"persona" json:"persona"`
	Confidence  float64   `db:"confidence" json:"confidence"`
	TopFeatures string    `db:"top_features" json:"top_features,omitempty"`
	Stats       string    `db:"stats" json:"stats,omitempty"`
	Topics      string    `db:"recommended_topics" json:"recommended_topics,omitempty"`
	Source      string    `db:"source" json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

// IsImported 判断画像是否来自预计算表
func (p *UserPersona) IsImported() bool {
	return p != nil && p.Source == PersonaSourceImported
}

// FeatureView 单个特征贡献的展示结构
type FeatureView struct {
	Tag     string  `json:"tag"`
	Ratio   float64 `json:"ratio"`
	Weight  float64 `json:"weight"`
	Product float64 `json:"product"`
}

// StatsView 用户活跃度统计的展示结构（画像卡数据）
type StatsView struct {
	TotalNotebooks    int            `json:"total_notebooks"`
	TotalVotes        int            `json:"total_votes"`
	TotalForks        int            `json:"total_forks"`
	TotalViews        int            `json:"total_views"`
	AvgVotes          float64        `json:"avg_votes"`
	AvgCells          float64        `json:"avg_cells"`
	MostVotedNotebook string         `json:"most_voted_notebook,omitempty"`
	MostVotes         int            `json:"most_votes"`
	MostActiveMonth   string         `json:"most_active_month,omitempty"`
	ActiveMonthSpan   int            `json:"active_month_span"`
	GoldMedals        int            `json:"gold_medals"`
	SilverMedals      int            `json:"silver_medals"`
	BronzeMedals      int            `json:"bronze_medals"`
	Languages         map[string]int `json:"languages,omitempty"`
}

// PersonaView 对外返回的完整画像（解析JSON字段并补充原型元信息）
type PersonaView struct {
	UserID      string        `json:"user_id"`
	Persona     string        `json:"persona"`
	Emoji       string        `json:"emoji,omitempty"`
	Color       string        `json:"color,omitempty"`
	Description string        `json:"description,omitempty"`
	Confidence  float64       `json:"confidence"`
	Source      string        `json:"source"`
	TopFeatures []FeatureView `json:"top_features,omitempty"`
	Stats       *StatsView    `json:"stats,omitempty"`
	Topics      []string      `json:"recommended_topics,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// TimelinePoint 时间线上的一个活跃月份
type TimelinePoint struct {
	Period string `db:"period" json:"period"` // YYYY-MM
	Count  int    `db:"notebook_count" json:"count"`
}

// UserExport 单用户完整数据导出（画像 + 时间线），一次请求拿全展示数据
type UserExport struct {
	Profile  *PersonaView    `json:"profile"`
	Timeline []TimelinePoint `json:"timeline"`
}

// ParseTopFeatures 解析top_features JSON字符串
func (p *UserPersona) ParseTopFeatures() ([]FeatureView, error) {
	if p.TopFeatures == "" {
		return []FeatureView{}, nil
	}
	var fv []FeatureView
	if err := json.Unmarshal([]byte(p.TopFeatures), &fv); err != nil {
		return []FeatureView{}, err
	}
	return fv, nil
}

// ParseStats 解析stats JSON字符串
func (p *UserPersona) ParseStats() (*StatsView, error) {
	if p.Stats == "" {
		return nil, nil
	}
	var sv StatsView
	if err := json.Unmarshal([]byte(p.Stats), &sv); err != nil {
		return nil, err
	}
	return &sv, nil
}

// ParseTopics 解析recommended_topics JSON字符串
func (p *UserPersona) ParseTopics() ([]string, error) {
	if p.Topics == "" {
		return []string{}, nil
	}
	var topics []string
	if err := json.Unmarshal([]byte(p.Topics), &topics); err != nil {
		return []string{}, err
	}
	return topics, nil
}
