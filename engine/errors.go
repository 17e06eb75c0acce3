package engine

import "errors"

// 引擎层错误类别。调用方用 errors.Is 区分处理，引擎内部不做兜底：
// 画像算不出来就报错，绝不静默给默认标签（默认标签会污染下游展示）。
var (
	// ErrInvalidInput 输入记录为空、缺少必要字段或混入了多个用户的数据
	ErrInvalidInput = errors.New("输入数据无效")

	// ErrInsufficientData 用户没有任何notebook记录，无法计算画像
	ErrInsufficientData = errors.New("用户活跃数据不足")

	// ErrConfiguration 画像原型目录为空或权重配置非法
	ErrConfiguration = errors.New("画像原型配置错误")
)
