package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"persona_analyzer/engine"
	"persona_analyzer/models"
)

// WriteFormattedJSON 格式化JSON输出，使其更易读
func WriteFormattedJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ") // 使用4个空格缩进
	encoder.Encode(data)
}

// WriteSuccessResponse 写入成功响应
func WriteSuccessResponse(w http.ResponseWriter, data interface{}) {
	WriteFormattedJSON(w, models.NewSuccessResponse(data))
}

// WriteErrorResponse 写入错误响应
func WriteErrorResponse(w http.ResponseWriter, code int, data interface{}) {
	WriteFormattedJSON(w, models.NewErrorResponse(code, data))
}

// WriteCustomErrorResponse 写入自定义错误消息的响应
func WriteCustomErrorResponse(w http.ResponseWriter, code int, message string, data interface{}) {
	WriteFormattedJSON(w, models.NewCustomErrorResponse(code, message, data))
}

// HandleServiceError 处理服务层错误的通用函数。
// 引擎的错误类别逐一映射到响应码，其余一律按服务器内部错误处理。
func HandleServiceError(w http.ResponseWriter, err error, noDataCode int) {
	switch {
	case IsSQLNoRowsError(err):
		WriteErrorResponse(w, noDataCode, map[string]interface{}{})
	case errors.Is(err, engine.ErrInsufficientData):
		WriteErrorResponse(w, models.CodeInsufficientData, map[string]interface{}{})
	case errors.Is(err, engine.ErrInvalidInput):
		WriteCustomErrorResponse(w, models.CodeInvalidParams, err.Error(), map[string]interface{}{})
	case errors.Is(err, engine.ErrConfiguration):
		WriteCustomErrorResponse(w, models.CodeCatalogError, err.Error(), map[string]interface{}{})
	default:
		WriteCustomErrorResponse(w, models.CodeServerError, err.Error(), map[string]interface{}{})
	}
}

// ValidateUserID 验证用户ID参数
func ValidateUserID(w http.ResponseWriter, uid string) bool {
	if uid == "" {
		WriteErrorResponse(w, models.CodeMissingParams, map[string]interface{}{
			"param": "uid",
		})
		return false
	}
	return true
}
