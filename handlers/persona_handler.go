package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"persona_analyzer/config"
	_ "persona_analyzer/docs" // 导入 swagger 文档
	"persona_analyzer/engine"
	"persona_analyzer/models"
	"persona_analyzer/services"
	"persona_analyzer/utils"
)

// GetPersonaHandler godoc
// @Summary 获取用户画像
// @Description 获取指定用户的画像：原型、置信度、特征贡献、活跃统计和推荐主题
// @Tags 用户画像
// @Accept json
// @Produce json
// @Param uid path string true "用户ID"
// @Success 200 {object} models.PersonaResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/persona/{uid} [get]
func GetPersonaHandler(w http.ResponseWriter, r *http.Request, catalog *engine.Catalog) {
	uid := chi.URLParam(r, "uid")
	if !utils.ValidateUserID(w, uid) {
		return
	}

	persona, err := services.GetUserPersona(uid)
	if err != nil {
		utils.HandleServiceError(w, err, models.CodeNoPersonaData)
		return
	}

	view, err := services.BuildPersonaView(catalog, persona)
	if err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeServerError, err.Error(), map[string]interface{}{})
		return
	}

	utils.WriteSuccessResponse(w, view)
}

// AnalyzeAllHandler godoc
// @Summary 为所有用户计算画像
// @Description 手动触发对数据集中所有用户的画像计算，带导入画像的用户跳过打分
// @Tags 用户画像
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "成功"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/persona/analyze [post]
func AnalyzeAllHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config, catalog *engine.Catalog) {
	result, err := services.AnalyzeAllUsers(cfg, catalog)
	if err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeAnalyzeError, err.Error(), map[string]interface{}{})
		return
	}

	utils.WriteSuccessResponse(w, result)
}

// AnalyzeUserHandler godoc
// @Summary 为指定用户计算画像
// @Description 手动触发指定用户的画像计算并返回计算结果
// @Tags 用户画像
// @Accept json
// @Produce json
// @Param uid path string true "用户ID"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/persona/analyze/{uid} [post]
func AnalyzeUserHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config, catalog *engine.Catalog) {
	uid := chi.URLParam(r, "uid")
	if !utils.ValidateUserID(w, uid) {
		return
	}

	persona, recomputed, err := services.AnalyzeUser(cfg, catalog, uid)
	if err != nil {
		utils.HandleServiceError(w, err, models.CodeNoPersonaData)
		return
	}

	view, err := services.BuildPersonaView(catalog, persona)
	if err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeServerError, err.Error(), map[string]interface{}{})
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"recomputed": recomputed,
		"persona":    view,
	})
}

// ExportUserDataHandler godoc
// @Summary 导出用户完整数据
// @Description 导出指定用户的画像和活跃时间线，一份JSON文档
// @Tags 用户画像
// @Accept json
// @Produce json
// @Param uid path string true "用户ID"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/persona/{uid}/export [get]
func ExportUserDataHandler(w http.ResponseWriter, r *http.Request, catalog *engine.Catalog) {
	uid := chi.URLParam(r, "uid")
	if !utils.ValidateUserID(w, uid) {
		return
	}

	export, err := services.ExportUserData(catalog, uid)
	if err != nil {
		utils.HandleServiceError(w, err, models.CodeNoPersonaData)
		return
	}

	utils.WriteSuccessResponse(w, export)
}

// GetTimelineHandler godoc
// @Summary 获取用户活跃时间线
// @Description 获取指定用户按月聚合的notebook发布时间线，只包含有发布的月份
// @Tags 活跃时间线
// @Accept json
// @Produce json
// @Param uid path string true "用户ID"
// @Success 200 {object} models.TimelineResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/timeline/{uid} [get]
func GetTimelineHandler(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if !utils.ValidateUserID(w, uid) {
		return
	}

	points, err := services.GetUserTimeline(uid)
	if err != nil {
		utils.HandleServiceError(w, err, models.CodeNoTimelineData)
		return
	}

	if len(points) == 0 {
		utils.WriteErrorResponse(w, models.CodeNoTimelineData, map[string]interface{}{})
		return
	}

	utils.WriteSuccessResponse(w, points)
}

// SearchUsersHandler godoc
// @Summary 搜索用户
// @Description 按用户ID模糊搜索数据集中的用户，返回notebook数量和已有画像
// @Tags 用户检索
// @Accept json
// @Produce json
// @Param q query string false "搜索词，匹配用户ID子串"
// @Param limit query int false "返回数量上限，默认10，最大100"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/users [get]
func SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	users, err := services.SearchUsers(q, limit)
	if err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeDatabaseError, err.Error(), map[string]interface{}{})
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"count": len(users),
		"users": users,
	})
}

// GetOverviewHandler godoc
// @Summary 画像分布概览
// @Description 获取各画像原型下的用户数量分布，按原型目录顺序排列
// @Tags 用户画像
// @Accept json
// @Produce json
// @Success 200 {object} models.OverviewResponse "成功"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/overview [get]
func GetOverviewHandler(w http.ResponseWriter, r *http.Request, catalog *engine.Catalog) {
	counts, err := services.GetPersonaOverview(catalog)
	if err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeDatabaseError, err.Error(), map[string]interface{}{})
		return
	}

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	utils.WriteSuccessResponse(w, models.OverviewData{
		TotalUsers: total,
		Personas:   counts,
	})
}

// ImportDatasetHandler godoc
// @Summary 导入数据集
// @Description 重新导入配置的notebook记录CSV（可选预计算画像CSV）。文件checksum未变化时跳过
// @Tags 数据集
// @Accept json
// @Produce json
// @Param request body models.ImportRequest false "导入参数，可覆盖配置里的文件路径"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/dataset/import [post]
func ImportDatasetHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config, catalog *engine.Catalog) {
	var req models.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, "请求体格式错误", map[string]interface{}{})
		return
	}

	// 请求里可以临时指定数据集路径，不改全局配置
	importCfg := *cfg
	if req.FilePath != "" {
		importCfg.Dataset.RecordsFile = req.FilePath
	}

	result, err := services.ImportDataset(&importCfg, catalog, req.Truncate)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, err.Error(), map[string]interface{}{})
		} else {
			utils.WriteCustomErrorResponse(w, models.CodeImportError, err.Error(), map[string]interface{}{})
		}
		return
	}

	utils.WriteSuccessResponse(w, result)
}

// PushUserHandler godoc
// @Summary 推送指定用户的画像
// @Description 手动触发把指定用户的画像卡片通过HTTP推送给外部展示服务
// @Tags 推送
// @Accept json
// @Produce json
// @Param uid path string true "用户ID"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/push/{uid} [post]
func PushUserHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config, catalog *engine.Catalog) {
	uid := chi.URLParam(r, "uid")
	if !utils.ValidateUserID(w, uid) {
		return
	}

	if err := services.PushForUser(cfg, catalog, uid); err != nil {
		utils.HandleServiceError(w, err, models.CodeNoPersonaData)
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"user_id": uid,
	})
}

// PushAllHandler godoc
// @Summary 推送所有用户的画像
// @Description 手动触发把所有用户的画像推送给外部展示服务，最后附带一次分布概览群发
// @Tags 推送
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "成功"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/push/all [post]
func PushAllHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config, catalog *engine.Catalog) {
	if err := services.PushAll(cfg, catalog); err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeServerError, err.Error(), map[string]interface{}{})
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{})
}

func RegisterRoutes(r *chi.Mux, cfg *config.Config, catalog *engine.Catalog) {
	// Swagger 文档
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // Swagger JSON 的 URL
	))

	r.Get("/api/persona/{uid}", func(w http.ResponseWriter, r *http.Request) {
		GetPersonaHandler(w, r, catalog)
	})

	r.Post("/api/persona/analyze", func(w http.ResponseWriter, r *http.Request) {
		AnalyzeAllHandler(w, r, cfg, catalog)
	})

	r.Post("/api/persona/analyze/{uid}", func(w http.ResponseWriter, r *http.Request) {
		AnalyzeUserHandler(w, r, cfg, catalog)
	})

	r.Get("/api/persona/{uid}/export", func(w http.ResponseWriter, r *http.Request) {
		ExportUserDataHandler(w, r, catalog)
	})

	r.Get("/api/timeline/{uid}", GetTimelineHandler)

	r.Get("/api/users", SearchUsersHandler)

	r.Get("/api/overview", func(w http.ResponseWriter, r *http.Request) {
		GetOverviewHandler(w, r, catalog)
	})

	r.Post("/api/dataset/import", func(w http.ResponseWriter, r *http.Request) {
		ImportDatasetHandler(w, r, cfg, catalog)
	})

	r.Post("/api/push/{uid}", func(w http.ResponseWriter, r *http.Request) {
		PushUserHandler(w, r, cfg, catalog)
	})

	r.Post("/api/push/all", func(w http.ResponseWriter, r *http.Request) {
		PushAllHandler(w, r, cfg, catalog)
	})
}
