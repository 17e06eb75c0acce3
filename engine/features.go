package engine

import (
	"fmt"
	"strings"
	"time"

	"persona_analyzer/models"
)

// 常用主题标签。标签集合是开放的：数据集里出现的任意标签都会被统计，
// 这里的常量只是内置原型和推荐逻辑引用的基准词表。
const (
	TagEDA        = "EDA"
	TagCV         = "Computer Vision"
	TagNLP        = "NLP"
	TagML         = "Machine Learning"
	TagDL         = "Deep Learning"
	TagTimeSeries = "Time Series"

	// Uncategorized 保留桶：没有主题标签的notebook计入这里，保证每条记录恰好归入一个桶
	Uncategorized = "Uncategorized"
)

// CanonicalTags 基准词表的固定顺序，推荐主题时作兜底遍历用
var CanonicalTags = []string{TagEDA, TagCV, TagNLP, TagML, TagDL, TagTimeSeries}

// 数据集里常见的主题别名 -> 基准标签。"other"类视同无标签。
var tagAliases = map[string]string{
	"cv":                          TagCV,
	"computer vision":             TagCV,
	"computer_vision":             TagCV,
	"dl":                          TagDL,
	"deep learning":               TagDL,
	"deep_learning":               TagDL,
	"eda":                         TagEDA,
	"exploratory data analysis":   TagEDA,
	"ml":                          TagML,
	"machine learning":            TagML,
	"machine_learning":            TagML,
	"nlp":                         TagNLP,
	"natural language processing": TagNLP,
	"time series":                 TagTimeSeries,
	"time_series":                 TagTimeSeries,
	"timeseries":                  TagTimeSeries,
	"ts":                          TagTimeSeries,
	"other":                       "",
	"uncategorized":               "",
}

// NormalizeTag 把数据集里的主题别名归一成基准标签。
// 词表是开放的：没收录的标签原样保留，空串和"other"类都归到无标签。
func NormalizeTag(raw string) string {
	t := strings.TrimSpace(raw)
	if t == "" {
		return ""
	}
	if canonical, ok := tagAliases[strings.ToLower(t)]; ok {
		return canonical
	}
	return t
}

// FeatureVector 单个用户的聚合特征：各主题的数量与占比，加上若干标量特征。
// 每次分析现算现用，不做增量维护。
type FeatureVector struct {
	UserID    string
	Total     int                // notebook总数
	Counts    map[string]int     // 主题 -> notebook数量
	Ratios    map[string]float64 // 主题 -> 占比，合计恒为1.0（±1e-9）
	AvgVotes  float64            // 平均得票数
	MonthSpan int                // 最早到最晚记录跨越的自然月数，单条记录为1
}

// ExtractFeatures 把一个用户的全部notebook记录聚合成特征向量。
// 纯函数：记录列表为空或混入多个用户时返回 ErrInvalidInput。
func ExtractFeatures(records []models.NotebookRecord) (*FeatureVector, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("记录列表为空: %w", ErrInvalidInput)
	}

	uid := records[0].UserID
	if uid == "" {
		return nil, fmt.Errorf("记录缺少用户ID: %w", ErrInvalidInput)
	}

	counts := make(map[string]int)
	votesSum := 0
	earliest, latest := records[0].CreatedAt, records[0].CreatedAt

	for _, r := range records {
		if r.UserID != uid {
			return nil, fmt.Errorf("记录混入了多个用户(%s / %s): %w", uid, r.UserID, ErrInvalidInput)
		}

		tag := r.Category
		if tag == "" {
			tag = Uncategorized
		}
		counts[tag]++
		votesSum += r.Votes

		if r.CreatedAt.Before(earliest) {
			earliest = r.CreatedAt
		}
		if r.CreatedAt.After(latest) {
			latest = r.CreatedAt
		}
	}

	total := len(records)
	ratios := make(map[string]float64, len(counts))
	for tag, c := range counts {
		ratios[tag] = float64(c) / float64(total)
	}

	return &FeatureVector{
		UserID:    uid,
		Total:     total,
		Counts:    counts,
		Ratios:    ratios,
		AvgVotes:  float64(votesSum) / float64(total),
		MonthSpan: monthSpan(earliest, latest),
	}, nil
}

// monthSpan 两个时间点跨越的自然月数（含两端）
func monthSpan(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month()) + 1
}
