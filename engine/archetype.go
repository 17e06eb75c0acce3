package engine

import (
	"fmt"
	"math"
	"sort"
)

// Archetype 画像原型：一个画像标签对应的主题权重签名，外加展示用的元信息。
// Weights 描述该类用户的典型主题分布，不要求归一化，但必须非负且至少有一项大于0。
type Archetype struct {
	Name        string             `yaml:"name" json:"name"`
	Emoji       string             `yaml:"emoji" json:"emoji"`
	Color       string             `yaml:"color" json:"color"`
	Description string             `yaml:"description" json:"description"`
	Weights     map[string]float64 `yaml:"weights" json:"weights"`
}

// Catalog 画像原型目录。目录顺序是固定的：得分持平时排在前面的原型胜出，
// 因此同样的输入在多次运行之间结果完全可复现。目录在启动时构建一次，之后只读。
type Catalog struct {
	archetypes []Archetype
	norms      []float64  // 预计算的权重向量模长，打分时反复使用
	tagOrder   [][]string // 每个原型按字典序排好的权重标签，保证浮点累加顺序固定
}

// NewCatalog 校验原型列表并构建目录。目录为空、原型缺名、权重为空、
// 出现负权重或重名原型都视为配置错误。
func NewCatalog(archetypes []Archetype) (*Catalog, error) {
	if len(archetypes) == 0 {
		return nil, fmt.Errorf("原型目录为空: %w", ErrConfiguration)
	}

	seen := make(map[string]bool, len(archetypes))
	norms := make([]float64, len(archetypes))
	tagOrder := make([][]string, len(archetypes))

	for i, a := range archetypes {
		if a.Name == "" {
			return nil, fmt.Errorf("第%d个原型缺少名称: %w", i+1, ErrConfiguration)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("原型名称重复 %s: %w", a.Name, ErrConfiguration)
		}
		seen[a.Name] = true

		if len(a.Weights) == 0 {
			return nil, fmt.Errorf("原型 %s 没有配置权重: %w", a.Name, ErrConfiguration)
		}

		tags := make([]string, 0, len(a.Weights))
		for tag, w := range a.Weights {
			if tag == "" {
				return nil, fmt.Errorf("原型 %s 含空主题标签: %w", a.Name, ErrConfiguration)
			}
			if w < 0 {
				return nil, fmt.Errorf("原型 %s 的主题 %s 权重为负: %w", a.Name, tag, ErrConfiguration)
			}
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		tagOrder[i] = tags

		// 按固定顺序累加，保证模长在任何一次运行里都是同一个浮点值
		var sumSquares float64
		for _, tag := range tags {
			sumSquares += a.Weights[tag] * a.Weights[tag]
		}
		norms[i] = math.Sqrt(sumSquares)
		if norms[i] == 0 {
			return nil, fmt.Errorf("原型 %s 的权重全为零: %w", a.Name, ErrConfiguration)
		}
	}

	return &Catalog{archetypes: archetypes, norms: norms, tagOrder: tagOrder}, nil
}

// Archetypes 按目录顺序返回全部原型
func (c *Catalog) Archetypes() []Archetype {
	return c.archetypes
}

// Len 目录中的原型数量
func (c *Catalog) Len() int {
	return len(c.archetypes)
}

// Find 按名称查找原型，用于给已有画像补充展示元信息
func (c *Catalog) Find(name string) (Archetype, bool) {
	for _, a := range c.archetypes {
		if a.Name == name {
			return a, true
		}
	}
	return Archetype{}, false
}

// DefaultCatalog 内置的七种Kaggle创作者画像。Generalist放在首位：
// 当用户分布和所有专精原型都不沾边（全部得分为零）时，按目录顺序回落到它。
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog([]Archetype{
		{
			Name:        "Generalist",
			Emoji:       "🧠",
			Color:       "#888888",
			Description: "Contributes across multiple domains with balanced focus.",
			Weights: map[string]float64{
				TagEDA: 0.4, TagNLP: 0.4, TagCV: 0.4,
				TagML: 0.4, TagDL: 0.4, TagTimeSeries: 0.4,
			},
		},
		{
			Name:        "NLP Specialist",
			Emoji:       "🗣️",
			Color:       "#FFB347",
			Description: "Strong focus on text and language-related projects.",
			Weights:     map[string]float64{TagNLP: 0.9, TagDL: 0.2, TagML: 0.1},
		},
		{
			Name:        "EDA-Focused",
			Emoji:       "📊",
			Color:       "#4CAF50",
			Description: "Excels in data storytelling and visual exploration.",
			Weights:     map[string]float64{TagEDA: 0.9, TagTimeSeries: 0.1, TagML: 0.1},
		},
		{
			Name:        "CV Enthusiast",
			Emoji:       "👁️",
			Color:       "#2196F3",
			Description: "Loves building computer vision models and image tasks.",
			Weights:     map[string]float64{TagCV: 0.9, TagDL: 0.2, TagML: 0.1},
		},
		{
			Name:        "ML Practitioner",
			Emoji:       "🤖",
			Color:       "#9C27B0",
			Description: "Works across classic ML problems and solutions.",
			Weights:     map[string]float64{TagML: 0.9, TagEDA: 0.2, TagTimeSeries: 0.1},
		},
		{
			Name:        "DL Researcher",
			Emoji:       "🧬",
			Color:       "#E91E63",
			Description: "Deep learning-focused notebooks and innovations.",
			Weights:     map[string]float64{TagDL: 0.9, TagCV: 0.2, TagNLP: 0.2},
		},
		{
			Name:        "Time-Series Analyst",
			Emoji:       "📈",
			Color:       "#FF5722",
			Description: "Specialist in trend-based time-driven datasets.",
			Weights:     map[string]float64{TagTimeSeries: 0.9, TagEDA: 0.2, TagML: 0.1},
		},
	})
	if err != nil {
		// 内置目录是编译期常量，校验失败只可能是代码改错了
		panic(err)
	}
	return catalog
}
