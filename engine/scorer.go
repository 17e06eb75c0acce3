package engine

import (
	"fmt"
	"sort"

	"persona_analyzer/models"
)

// 画像卡最多展示的特征贡献条数
const topFeatureLimit = 3

// Assignment 打分结果：用户被指派的画像标签、置信度和主要特征贡献
type Assignment struct {
	UserID      string
	Persona     string
	Confidence  float64
	TopFeatures []models.FeatureView
}

// Score 把特征向量和原型目录逐一比对，返回最匹配的画像。
// 相似度 = 用户主题占比与原型权重的点积 / 原型权重向量模长（余弦式打分），
// 奖励"分布形状相似"而不是单纯的量大。得分持平时取目录中靠前的原型，
// 零活跃用户返回 ErrInsufficientData，不会兜底指派默认画像。
func Score(catalog *Catalog, fv *FeatureVector) (*Assignment, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("原型目录未初始化: %w", ErrConfiguration)
	}
	if fv == nil || fv.Total == 0 {
		return nil, fmt.Errorf("用户没有notebook记录: %w", ErrInsufficientData)
	}

	bestIdx := -1
	bestScore := -1.0
	for i, a := range catalog.archetypes {
		var dot float64
		for _, tag := range catalog.tagOrder[i] {
			dot += fv.Ratios[tag] * a.Weights[tag]
		}
		// 严格大于：持平时保留先出现的原型
		if score := dot / catalog.norms[i]; score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	winner := catalog.archetypes[bestIdx]

	// 占比之和为1，余弦式得分理论上不会超过1，钳制只防浮点误差
	confidence := bestScore
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &Assignment{
		UserID:      fv.UserID,
		Persona:     winner.Name,
		Confidence:  confidence,
		TopFeatures: topContributions(fv, winner),
	}, nil
}

// topContributions 取占比×权重乘积最大的前几个主题。乘积为零的主题
// 对得分没有贡献，不参加排名；乘积相同时按标签名升序。
func topContributions(fv *FeatureVector, winner Archetype) []models.FeatureView {
	contribs := make([]models.FeatureView, 0, len(fv.Ratios))
	for tag, ratio := range fv.Ratios {
		weight := winner.Weights[tag]
		product := ratio * weight
		if product <= 0 {
			continue
		}
		contribs = append(contribs, models.FeatureView{
			Tag:     tag,
			Ratio:   ratio,
			Weight:  weight,
			Product: product,
		})
	}

	sort.Slice(contribs, func(i, j int) bool {
		if contribs[i].Product != contribs[j].Product {
			return contribs[i].Product > contribs[j].Product
		}
		return contribs[i].Tag < contribs[j].Tag
	})

	if len(contribs) > topFeatureLimit {
		contribs = contribs[:topFeatureLimit]
	}
	return contribs
}
