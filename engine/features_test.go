package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona_analyzer/models"
)

// -------- helpers --------

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func notebook(uid, category string, created time.Time) models.NotebookRecord {
	return models.NotebookRecord{
		UserID:     uid,
		NotebookID: uid + "-" + created.Format("20060102T150405"),
		CreatedAt:  created,
		Category:   category,
	}
}

func repeatNotebooks(uid, category string, created time.Time, n int) []models.NotebookRecord {
	records := make([]models.NotebookRecord, 0, n)
	for i := 0; i < n; i++ {
		r := notebook(uid, category, created.AddDate(0, 0, i))
		records = append(records, r)
	}
	return records
}

// -------- tests --------

func TestExtractFeatures_RatiosSumToOne(t *testing.T) {
	base := time.Date(2023, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		records []models.NotebookRecord
	}{
		{
			name:    "single category",
			records: repeatNotebooks("u1", TagEDA, base, 5),
		},
		{
			name: "mixed categories",
			records: append(
				repeatNotebooks("u1", TagEDA, base, 8),
				repeatNotebooks("u1", TagCV, base, 2)...,
			),
		},
		{
			name: "with uncategorized",
			records: append(
				repeatNotebooks("u1", TagNLP, base, 3),
				repeatNotebooks("u1", "", base, 4)...,
			),
		},
		{
			name:    "single record",
			records: repeatNotebooks("u1", TagTimeSeries, base, 1),
		},
		{
			name: "seven way split",
			records: []models.NotebookRecord{
				notebook("u1", TagEDA, base),
				notebook("u1", TagCV, base),
				notebook("u1", TagNLP, base),
				notebook("u1", TagML, base),
				notebook("u1", TagDL, base),
				notebook("u1", TagTimeSeries, base),
				notebook("u1", "", base),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv, err := ExtractFeatures(tt.records)
			require.NoError(t, err)

			sum := 0.0
			for _, ratio := range fv.Ratios {
				sum += ratio
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestExtractFeatures_EveryRecordCountedOnce(t *testing.T) {
	base := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	records := append(
		repeatNotebooks("u7", TagML, base, 4),
		repeatNotebooks("u7", "", base, 3)...,
	)
	records = append(records, notebook("u7", TagEDA, base))

	fv, err := ExtractFeatures(records)
	require.NoError(t, err)

	counted := 0
	for _, c := range fv.Counts {
		counted += c
	}
	assert.Equal(t, len(records), counted)
	assert.Equal(t, len(records), fv.Total)

	// 无标签的记录归入保留桶，而不是被丢掉
	assert.Equal(t, 3, fv.Counts[Uncategorized])
	assert.Equal(t, 4, fv.Counts[TagML])
	assert.Equal(t, 1, fv.Counts[TagEDA])
}

func TestExtractFeatures_InvalidInput(t *testing.T) {
	base := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		records []models.NotebookRecord
	}{
		{
			name:    "empty set",
			records: []models.NotebookRecord{},
		},
		{
			name:    "nil set",
			records: nil,
		},
		{
			name: "mixed users",
			records: []models.NotebookRecord{
				notebook("u1", TagEDA, base),
				notebook("u2", TagEDA, base),
			},
		},
		{
			name: "missing user id",
			records: []models.NotebookRecord{
				notebook("", TagEDA, base),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv, err := ExtractFeatures(tt.records)
			assert.Nil(t, fv)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestExtractFeatures_ScalarFeatures(t *testing.T) {
	records := []models.NotebookRecord{
		notebook("u3", TagEDA, mustTime(t, "2023-01-05T10:00:00Z")),
		notebook("u3", TagEDA, mustTime(t, "2023-03-20T10:00:00Z")),
		notebook("u3", TagCV, mustTime(t, "2023-02-14T10:00:00Z")),
	}
	records[0].Votes = 10
	records[1].Votes = 20
	records[2].Votes = 3

	fv, err := ExtractFeatures(records)
	require.NoError(t, err)

	assert.Equal(t, "u3", fv.UserID)
	assert.Equal(t, 3, fv.Total)
	assert.InDelta(t, 11.0, fv.AvgVotes, 1e-9)
	// 2023-01 到 2023-03，含两端共3个月
	assert.Equal(t, 3, fv.MonthSpan)
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"cv", TagCV},
		{"CV", TagCV},
		{"computer_vision", TagCV},
		{"Time Series", TagTimeSeries},
		{"time_series", TagTimeSeries},
		{"eda", TagEDA},
		{"  NLP  ", TagNLP},
		{"other", ""},
		{"Other", ""},
		{"uncategorized", ""},
		{"", ""},
		// 开放词表：没收录的标签原样保留
		{"Reinforcement Learning", "Reinforcement Learning"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTag(tt.raw), "raw=%q", tt.raw)
	}
}

func TestExtractFeatures_MonthSpan(t *testing.T) {
	tests := []struct {
		name  string
		times []string
		want  int
	}{
		{
			name:  "single record",
			times: []string{"2023-05-10T00:00:00Z"},
			want:  1,
		},
		{
			name:  "same month",
			times: []string{"2023-05-01T00:00:00Z", "2023-05-31T00:00:00Z"},
			want:  1,
		},
		{
			name:  "across year boundary",
			times: []string{"2022-11-15T00:00:00Z", "2023-02-01T00:00:00Z"},
			want:  4,
		},
		{
			name:  "order independent",
			times: []string{"2023-03-01T00:00:00Z", "2023-01-01T00:00:00Z", "2023-02-01T00:00:00Z"},
			want:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []models.NotebookRecord
			for _, ts := range tt.times {
				records = append(records, notebook("u9", TagEDA, mustTime(t, ts)))
			}

			fv, err := ExtractFeatures(records)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fv.MonthSpan)
		})
	}
}
