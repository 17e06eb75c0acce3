package models

// ImportRequest 数据集导入请求体
type ImportRequest struct {
	FilePath string `json:"file_path" example:"data/kaggle_notebooks.csv"`
	Truncate bool   `json:"truncate" example:"false"` // true时清空旧记录后再导入
}

// APIResponse 通用API响应
type APIResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// PersonaResponse 用户画像响应
type PersonaResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    PersonaView `json:"data"`
}

// TimelineResponse 用户时间线响应
type TimelineResponse struct {
	Code    int             `json:"code" example:"0"`
	Message string          `json:"message" example:"success"`
	Data    []TimelinePoint `json:"data"`
}

// OverviewData 画像分布概览
type OverviewData struct {
	TotalUsers int            `json:"total_users" example:"300"` // 已有画像的用户总数
	Personas   []PersonaCount `json:"personas"`
}

// OverviewResponse 画像分布概览响应
type OverviewResponse struct {
	Code    int          `json:"code" example:"0"`
	Message string       `json:"message" example:"success"`
	Data    OverviewData `json:"data"`
}

// PersonaCount 某一画像原型下的用户数量
type PersonaCount struct {
	Persona string `json:"persona" example:"EDA-Focused"`
	Count   int    `json:"count" example:"42"`
}

// UserSummary 用户搜索结果条目
type UserSummary struct {
	UserID    string `json:"user_id" example:"8417821"`
	Persona   string `json:"persona,omitempty" example:"NLP Specialist"`
	Notebooks int    `json:"notebooks" example:"17"`
}

// ImportResult 数据集导入结果
type ImportResult struct {
	BatchID    string `json:"batch_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	FilePath   string `json:"file_path" example:"data/kaggle_notebooks.csv"`
	Checksum   string `json:"checksum" example:"5d41402abc4b2a76b9719d911017c592"`
	Total      int    `json:"total" example:"5000"`
	Imported   int    `json:"imported" example:"4987"`
	Skipped    int    `json:"skipped" example:"13"`
	Personas   int    `json:"personas" example:"120"` // 同文件携带的预计算画像条数
	DurationMs int64  `json:"duration_ms" example:"1520"`
}

// AnalyzeResult 批量分析结果
type AnalyzeResult struct {
	TotalUsers int   `json:"total_users" example:"300"`
	Analyzed   int   `json:"analyzed" example:"295"`
	Skipped    int   `json:"skipped" example:"3"` // 已有导入画像，跳过计算
	Failed     int   `json:"failed" example:"2"`
	DurationMs int64 `json:"duration_ms" example:"8421"`
}
