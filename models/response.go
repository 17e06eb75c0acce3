package models

// 响应码定义
const (
	// 成功
	CodeSuccess = 0

	// 客户端错误 (1000-1999)
	CodeInvalidParams    = 1000 // 无效的参数
	CodeMissingParams    = 1001 // 缺少必要参数
	CodeUserNotFound     = 1002 // 用户不存在
	CodeNoPersonaData    = 1003 // 用户没有画像
	CodeNoTimelineData   = 1004 // 没有时间线数据
	CodeInsufficientData = 1005 // 用户活跃数据不足

	// 服务端错误 (2000-2999)
	CodeServerError   = 2000 // 服务器内部错误
	CodeDatabaseError = 2001 // 数据库错误
	CodeAnalyzeError  = 2002 // 画像分析错误
	CodeImportError   = 2003 // 数据集导入错误
	CodeCatalogError  = 2004 // 画像原型配置错误
)

// 错误码对应的消息
var CodeMessages = map[int]string{
	CodeSuccess:          "success",
	CodeInvalidParams:    "无效的参数",
	CodeMissingParams:    "缺少必要参数",
	CodeUserNotFound:     "用户不存在",
	CodeNoPersonaData:    "用户没有画像",
	CodeNoTimelineData:   "没有时间线数据",
	CodeInsufficientData: "用户活跃数据不足，无法生成画像",
	CodeServerError:      "服务器内部错误",
	CodeDatabaseError:    "数据库错误",
	CodeAnalyzeError:     "画像分析错误",
	CodeImportError:      "数据集导入错误",
	CodeCatalogError:     "画像原型配置错误",
}

// 注意：APIResponse结构体已在swagger_models.go中定义，此处不再重复定义

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Code:    CodeSuccess,
		Message: CodeMessages[CodeSuccess],
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, data interface{}) APIResponse {
	message, exists := CodeMessages[code]
	if !exists {
		message = "未知错误"
	}
	return APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewCustomErrorResponse 创建自定义错误消息的响应
func NewCustomErrorResponse(code int, message string, data interface{}) APIResponse {
	return APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
