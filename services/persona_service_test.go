package services

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona_analyzer/engine"
	"persona_analyzer/models"
)

func TestBuildPersonaView(t *testing.T) {
	catalog := engine.DefaultCatalog()

	featuresJSON, _ := json.Marshal([]models.FeatureView{
		{Tag: engine.TagDL, Ratio: 0.8, Weight: 0.9, Product: 0.72},
	})
	statsJSON, _ := json.Marshal(&models.StatsView{TotalNotebooks: 12, TotalVotes: 99})
	topicsJSON, _ := json.Marshal([]string{engine.TagNLP, engine.TagCV})

	generated := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	p := &models.UserPersona{
		UserID:      "u1",
		Persona:     "DL Researcher",
		Confidence:  0.91,
		TopFeatures: string(featuresJSON),
		Stats:       string(statsJSON),
		Topics:      string(topicsJSON),
		Source:      models.PersonaSourceComputed,
		GeneratedAt: generated,
	}

	view, err := BuildPersonaView(catalog, p)
	require.NoError(t, err)

	assert.Equal(t, "u1", view.UserID)
	assert.Equal(t, "DL Researcher", view.Persona)
	assert.Equal(t, "🧬", view.Emoji, "emoji从原型目录补充")
	assert.Equal(t, "#E91E63", view.Color)
	assert.NotEmpty(t, view.Description)
	assert.InDelta(t, 0.91, view.Confidence, 1e-9)
	require.Len(t, view.TopFeatures, 1)
	assert.Equal(t, engine.TagDL, view.TopFeatures[0].Tag)
	assert.Equal(t, 12, view.Stats.TotalNotebooks)
	assert.Equal(t, []string{engine.TagNLP, engine.TagCV}, view.Topics)
	assert.Equal(t, generated, view.GeneratedAt)
}

func TestBuildPersonaView_UnknownLabel(t *testing.T) {
	// 目录外的画像标签（比如自定义目录导入的历史数据）只出名字
	view, err := BuildPersonaView(engine.DefaultCatalog(), &models.UserPersona{
		UserID:  "u2",
		Persona: "Legacy Persona",
		Source:  models.PersonaSourceImported,
	})
	require.NoError(t, err)

	assert.Equal(t, "Legacy Persona", view.Persona)
	assert.Empty(t, view.Emoji)
	assert.Empty(t, view.Description)
}

func TestBuildPersonaView_InvalidInput(t *testing.T) {
	_, err := BuildPersonaView(engine.DefaultCatalog(), nil)
	assert.ErrorIs(t, err, engine.ErrInvalidInput)

	_, err = BuildPersonaView(engine.DefaultCatalog(), &models.UserPersona{
		UserID:      "u3",
		Persona:     "Generalist",
		TopFeatures: "{not json",
	})
	assert.Error(t, err)
}

func TestGetUserTimeline_FromTable(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_timeline")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"period", "notebook_count"}).
			AddRow("2023-01", 2).
			AddRow("2023-04", 1))

	points, err := GetUserTimeline("u1")
	require.NoError(t, err)

	assert.Equal(t, []models.TimelinePoint{
		{Period: "2023-01", Count: 2},
		{Period: "2023-04", Count: 1},
	}, points)
	assert.NoError(t, mock.ExpectationsWereMet(), "时间线表命中时不读原始记录")
}

func TestGetUserTimeline_FallsBackToRecords(t *testing.T) {
	mar := time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC)

	mock := withMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_timeline")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"period", "notebook_count"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM notebook_records")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("u1", "nb1", "", mar, engine.TagEDA, 0, 0, 0, 10, "Python", "").
			AddRow("u1", "nb2", "", mar.AddDate(0, 0, 5), engine.TagEDA, 0, 0, 0, 10, "Python", ""))

	points, err := GetUserTimeline("u1")
	require.NoError(t, err)

	assert.Equal(t, []models.TimelinePoint{{Period: "2023-03", Count: 2}}, points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserTimeline_NoData(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_timeline")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"period", "notebook_count"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM notebook_records")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	points, err := GetUserTimeline("ghost")
	require.NoError(t, err)

	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestExportUserData(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_personas WHERE user_id = ?")).
		WithArgs("u1").
		WillReturnRows(personaRow("u1", "Generalist", 0.4, `["Machine Learning"]`))
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_timeline")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"period", "notebook_count"}).
			AddRow("2023-02", 3))

	export, err := ExportUserData(engine.DefaultCatalog(), "u1")
	require.NoError(t, err)

	require.NotNil(t, export.Profile)
	assert.Equal(t, "Generalist", export.Profile.Persona)
	assert.Equal(t, "🧠", export.Profile.Emoji)
	assert.Equal(t, []string{"Machine Learning"}, export.Profile.Topics)
	require.Len(t, export.Timeline, 1)
	assert.Equal(t, "2023-02", export.Timeline[0].Period)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchUsers_LimitFallbacks(t *testing.T) {
	searchColumns := []string{"user_id", "notebooks", "persona"}

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"zero limit uses default", 0, defaultSearchLimit},
		{"negative limit uses default", -5, defaultSearchLimit},
		{"oversized limit clamped", 500, maxSearchLimit},
		{"normal limit passes through", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := withMockDB(t)
			mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN user_personas")).
				WithArgs("ali", tt.wantLimit).
				WillReturnRows(sqlmock.NewRows(searchColumns).
					AddRow("alice", 4, "Generalist"))

			users, err := SearchUsers("ali", tt.limit)
			require.NoError(t, err)

			require.Len(t, users, 1)
			assert.Equal(t, "alice", users[0].UserID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetPersonaOverview_CatalogOrder(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY persona")).
		WillReturnRows(sqlmock.NewRows([]string{"persona", "cnt"}).
			AddRow("Custom Persona", 2).
			AddRow("ML Practitioner", 3).
			AddRow("Generalist", 5).
			AddRow("EDA-Focused", 1))

	counts, err := GetPersonaOverview(engine.DefaultCatalog())
	require.NoError(t, err)

	want := []models.PersonaCount{
		{Persona: "Generalist", Count: 5},
		{Persona: "EDA-Focused", Count: 1},
		{Persona: "ML Practitioner", Count: 3},
		{Persona: "Custom Persona", Count: 2}, // 目录外的标签排最后
	}
	assert.Equal(t, want, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
