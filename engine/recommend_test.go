package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendTopics_UnexploredArchetypeTopicsFirst(t *testing.T) {
	// 只写过EDA的用户，先推荐画像签名里还没碰过的主题
	fv, err := ExtractFeatures(repeatNotebooks("u1", TagEDA, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 6))
	require.NoError(t, err)

	winner, ok := DefaultCatalog().Find("EDA-Focused")
	require.True(t, ok)

	topics := RecommendTopics(fv, winner)

	// 签名里未探索的是Time Series(0.1)和Machine Learning(0.1)，
	// 权重持平按标签名升序，第三个从基准词表补
	assert.Equal(t, []string{TagML, TagTimeSeries, TagCV}, topics)
}

func TestRecommendTopics_SkipsExploredTopics(t *testing.T) {
	base := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	records := append(
		repeatNotebooks("u2", TagNLP, base, 4),
		repeatNotebooks("u2", TagDL, base, 2)...,
	)

	fv, err := ExtractFeatures(records)
	require.NoError(t, err)

	winner, ok := DefaultCatalog().Find("NLP Specialist")
	require.True(t, ok)

	topics := RecommendTopics(fv, winner)
	assert.NotContains(t, topics, TagNLP)
	assert.NotContains(t, topics, TagDL)
	assert.LessOrEqual(t, len(topics), 3)
}

func TestRecommendTopics_AllExplored(t *testing.T) {
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	var records = repeatNotebooks("u3", TagEDA, base, 1)
	for _, tag := range []string{TagCV, TagNLP, TagML, TagDL, TagTimeSeries} {
		records = append(records, notebook("u3", tag, base))
	}

	fv, err := ExtractFeatures(records)
	require.NoError(t, err)

	winner, ok := DefaultCatalog().Find("Generalist")
	require.True(t, ok)

	assert.Empty(t, RecommendTopics(fv, winner))
}

func TestRecommendTopics_NeverRecommendsUncategorized(t *testing.T) {
	fv, err := ExtractFeatures(repeatNotebooks("u4", TagCV, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), 3))
	require.NoError(t, err)

	// 人为构造带Uncategorized权重的原型，照样不会被推荐
	winner := Archetype{
		Name:    "Odd",
		Weights: map[string]float64{Uncategorized: 0.9, TagDL: 0.3},
	}

	topics := RecommendTopics(fv, winner)
	assert.NotContains(t, topics, Uncategorized)
	assert.Contains(t, topics, TagDL)
}

func TestRecommendTopics_NilVector(t *testing.T) {
	assert.Empty(t, RecommendTopics(nil, Archetype{Name: "X"}))
}
