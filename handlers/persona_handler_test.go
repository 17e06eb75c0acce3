package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona_analyzer/config"
	"persona_analyzer/db"
	"persona_analyzer/engine"
	"persona_analyzer/models"
)

var personaColumns = []string{
	"user_id", "persona", "confidence", "top_features",
	"stats", "recommended_topics", "source", "generated_at",
}

var recordColumns = []string{
	"user_id", "notebook_id", "title", "created_at", "category",
	"votes", "forks", "views", "cell_count", "language", "medal",
}

// envelope 统一响应结构，data延迟解析
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, cfg *config.Config) (*chi.Mux, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	orig := db.DB
	db.DB = mockDB
	t.Cleanup(func() {
		db.DB = orig
		mockDB.Close()
	})

	r := chi.NewRouter()
	RegisterRoutes(r, cfg, engine.DefaultCatalog())
	return r, mock
}

func doRequest(t *testing.T, r *chi.Mux, method, target string, body []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "响应不是合法JSON: %s", rec.Body.String())
	return rec, env
}

func TestGetPersonaRoute(t *testing.T) {
	r, mock := newTestRouter(t, &config.Config{})

	rows := sqlmock.NewRows(personaColumns).AddRow(
		"u1", "EDA-Focused", 0.72,
		`[{"tag":"EDA","ratio":0.8,"weight":0.9,"product":0.72}]`,
		`{"total_notebooks":10,"total_votes":55,"most_active_month":"2023-01"}`,
		`["Machine Learning","Time Series"]`,
		"computed", time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC),
	)
	mock.ExpectQuery("FROM user_personas").WithArgs("u1").WillReturnRows(rows)

	rec, env := doRequest(t, r, http.MethodGet, "/api/persona/u1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.CodeSuccess, env.Code)

	var view models.PersonaView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "u1", view.UserID)
	assert.Equal(t, "EDA-Focused", view.Persona)
	assert.Equal(t, "📊", view.Emoji)
	assert.Equal(t, "#4CAF50", view.Color)
	assert.Equal(t, []string{"Machine Learning", "Time Series"}, view.Topics)
	require.NotNil(t, view.Stats)
	assert.Equal(t, 10, view.Stats.TotalNotebooks)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPersonaRoute_NoPersona(t *testing.T) {
	r, mock := newTestRouter(t, &config.Config{})

	mock.ExpectQuery("FROM user_personas").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	rec, env := doRequest(t, r, http.MethodGet, "/api/persona/ghost", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CodeNoPersonaData, env.Code)
	assert.Equal(t, models.CodeMessages[models.CodeNoPersonaData], env.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyzeUserRoute(t *testing.T) {
	r, mock := newTestRouter(t, &config.Config{})

	jan := time.Date(2023, 1, 10, 9, 0, 0, 0, time.UTC)
	records := sqlmock.NewRows(recordColumns).
		AddRow("u2", "nb1", "EDA intro", jan, "EDA", 10, 2, 100, 20, "python", "").
		AddRow("u2", "nb2", "EDA deep dive", jan.AddDate(0, 0, 5), "EDA", 5, 1, 60, 30, "python", "gold")
	mock.ExpectQuery("FROM notebook_records").WithArgs("u2").WillReturnRows(records)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_timeline")).
		WithArgs("u2").WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO user_timeline"))
	prep.ExpectExec().WithArgs("u2", "2023-01", 2).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("FROM user_personas").WithArgs("u2").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO user_personas").WillReturnResult(sqlmock.NewResult(1, 1))

	rec, env := doRequest(t, r, http.MethodPost, "/api/persona/analyze/u2", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.CodeSuccess, env.Code)

	var data struct {
		Recomputed bool               `json:"recomputed"`
		Persona    models.PersonaView `json:"persona"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Recomputed)
	assert.Equal(t, "EDA-Focused", data.Persona.Persona)
	// 全部记录都是EDA: dot=0.9, ‖w‖=√0.83
	assert.InDelta(t, 0.9/math.Sqrt(0.83), data.Persona.Confidence, 1e-9)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyzeUserRoute_NoRecords(t *testing.T) {
	r, mock := newTestRouter(t, &config.Config{})

	mock.ExpectQuery("FROM notebook_records").WithArgs("u404").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, env := doRequest(t, r, http.MethodPost, "/api/persona/analyze/u404", nil)

	assert.Equal(t, models.CodeInsufficientData, env.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineRoute(t *testing.T) {
	r, mock := newTestRouter(t, &config.Config{})

	rows := sqlmock.NewRows([]string{"period", "notebook_count"}).
		AddRow("2023-01", 3).
		AddRow("2023-04", 1)
	mock.ExpectQuery("FROM user_timeline").WithArgs("u3").WillReturnRows(rows)

	_, env := doRequest(t, r, http.MethodGet, "/api/timeline/u3", nil)

	require.Equal(t, models.CodeSuccess, env.Code)

	var points []models.TimelinePoint
	require.NoError(t, json.Unmarshal(env.Data, &points))
	require.Len(t, points, 2)
	assert.Equal(t, "2023-01", points[0].Period)
	assert.Equal(t, 3, points[0].Count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineRoute_NoData(t *testing.T) {
	r, mock := newTestRouter(t, &config.Config{})

	// 时间线表为空时回退到原始记录，两者都为空则报无数据
	mock.ExpectQuery("FROM user_timeline").WithArgs("u3").
		WillReturnRows(sqlmock.NewRows([]string{"period", "notebook_count"}))
	mock.ExpectQuery("FROM notebook_records").WithArgs("u3").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, env := doRequest(t, r, http.MethodGet, "/api/timeline/u3", nil)

	assert.Equal(t, models.CodeNoTimelineData, env.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchUsersRoute(t *testing.T) {
	r, mock := newTestRouter(t, &config.Config{})

	rows := sqlmock.NewRows([]string{"user_id", "notebooks", "persona"}).
		AddRow("alice", 12, "EDA-Focused").
		AddRow("alina", 3, "")
	mock.ExpectQuery("LEFT JOIN user_personas").WithArgs("ali", 5).WillReturnRows(rows)

	_, env := doRequest(t, r, http.MethodGet, "/api/users?q=ali&limit=5", nil)

	require.Equal(t, models.CodeSuccess, env.Code)

	var data struct {
		Count int                  `json:"count"`
		Users []models.UserSummary `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 2, data.Count)
	require.Len(t, data.Users, 2)
	assert.Equal(t, "alice", data.Users[0].UserID)
	assert.Equal(t, "EDA-Focused", data.Users[0].Persona)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverviewRoute(t *testing.T) {
	r, mock := newTestRouter(t, &config.Config{})

	rows := sqlmock.NewRows([]string{"persona", "cnt"}).
		AddRow("EDA-Focused", 5).
		AddRow("Generalist", 2)
	mock.ExpectQuery("GROUP BY persona").WillReturnRows(rows)

	_, env := doRequest(t, r, http.MethodGet, "/api/overview", nil)

	require.Equal(t, models.CodeSuccess, env.Code)

	var data models.OverviewData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 7, data.TotalUsers)
	require.Len(t, data.Personas, 2)
	// 按原型目录顺序排列，Generalist在前
	assert.Equal(t, "Generalist", data.Personas[0].Persona)
	assert.Equal(t, "🧠", data.Personas[0].Emoji)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportDatasetRoute(t *testing.T) {
	content := "AuthorUserId,NotebookId,Title,CreationDate,Category,Votes,Forks,Views,CellCount,Language,Medal\n" +
		"u1,nb1,Intro EDA,2023-01-15 10:00:00,eda,10,2,100,25,Python,gold\n"
	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, mock := newTestRouter(t, &config.Config{})

	mock.ExpectExec(regexp.QuoteMeta("TRUNCATE TABLE notebook_records")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("TRUNCATE TABLE user_personas")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("TRUNCATE TABLE user_timeline")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT IGNORE INTO notebook_records"))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dataset_imports")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body, _ := json.Marshal(models.ImportRequest{FilePath: path, Truncate: true})
	_, env := doRequest(t, r, http.MethodPost, "/api/dataset/import", body)

	require.Equal(t, models.CodeSuccess, env.Code)

	var result models.ImportResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.Imported)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportDatasetRoute_BadBody(t *testing.T) {
	r, mock := newTestRouter(t, &config.Config{})

	_, env := doRequest(t, r, http.MethodPost, "/api/dataset/import", []byte("{not json"))

	assert.Equal(t, models.CodeInvalidParams, env.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPushUserRoute(t *testing.T) {
	t.Setenv("EXTERNAL_API_KEY", "secret-key")

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errCode":200,"msg":"ok","success":true}`))
	}))
	defer remote.Close()

	cfg := &config.Config{}
	cfg.ExternalAPI.PersonaPushURL = remote.URL

	r, mock := newTestRouter(t, cfg)

	rows := sqlmock.NewRows(personaColumns).AddRow(
		"u5", "ML Practitioner", 0.6, "", "", `["Deep Learning"]`, "computed", time.Now(),
	)
	mock.ExpectQuery("FROM user_personas").WithArgs("u5").WillReturnRows(rows)

	_, env := doRequest(t, r, http.MethodPost, "/api/push/u5", nil)

	require.Equal(t, models.CodeSuccess, env.Code)

	var data struct {
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "u5", data.UserID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPushAllRoute_NoURLConfigured(t *testing.T) {
	// 未配置推送地址时直接跳过，不touch数据库
	r, mock := newTestRouter(t, &config.Config{})

	_, env := doRequest(t, r, http.MethodPost, "/api/push/all", nil)

	assert.Equal(t, models.CodeSuccess, env.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
