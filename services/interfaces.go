package services

import (
	"persona_analyzer/config"
	"persona_analyzer/engine"
	"persona_analyzer/models"
)

// AnalysisService 画像分析服务接口
type AnalysisService interface {
	// 为指定用户计算画像并落库
	AnalyzeUser(cfg *config.Config, catalog *engine.Catalog, uid string) (*models.UserPersona, bool, error)

	// 为数据集中的所有用户计算画像
	AnalyzeAllUsers(cfg *config.Config, catalog *engine.Catalog) (*models.AnalyzeResult, error)
	AnalyzeUsersWithConcurrency(cfg *config.Config, catalog *engine.Catalog, uids []string, concurrency int) *models.AnalyzeResult
}

// PersonaService 画像查询服务接口
type PersonaService interface {
	// 读取用户画像行
	GetUserPersona(uid string) (*models.UserPersona, error)

	// 组装对外返回的完整画像
	BuildPersonaView(catalog *engine.Catalog, p *models.UserPersona) (*models.PersonaView, error)

	// 用户活跃时间线
	GetUserTimeline(uid string) ([]models.TimelinePoint, error)

	// 单用户数据导出（画像+时间线）
	ExportUserData(catalog *engine.Catalog, uid string) (*models.UserExport, error)

	// 按用户ID搜索
	SearchUsers(q string, limit int) ([]models.UserSummary, error)

	// 画像分布概览
	GetPersonaOverview(catalog *engine.Catalog) ([]models.PersonaCount, error)
}

// DatasetService 数据集导入服务接口
type DatasetService interface {
	// 导入notebook记录和可选的预计算画像
	ImportDataset(cfg *config.Config, catalog *engine.Catalog, truncate bool) (*models.ImportResult, error)

	// 启动时记录表为空则自动导入
	ImportOnStartup(cfg *config.Config, catalog *engine.Catalog) error
}

// PushService 画像推送服务接口
type PushService interface {
	// 为指定用户推送画像
	PushForUser(cfg *config.Config, catalog *engine.Catalog, uid string) error

	// 推送所有用户的画像
	PushAll(cfg *config.Config, catalog *engine.Catalog) error
}
