package errors

import (
	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// 结算服务错误码定义
// 错误码格式：SSMMEE (6位数字)，其中 SS=14 表示 settlement-service
// 模块划分：
//   01: 订单模块
//   02: payout 模块
//   03: 支付网关
//   04: 鉴权

// 订单模块 (140100-140199)
const (
	// ErrCodeOrderNotFound 订单不存在错误
	ErrCodeOrderNotFound = 140101
	// ErrCodeOrderInvalid 订单数据不完整（缺少行项目或供应商）
	ErrCodeOrderInvalid = 140102
)

// payout 模块 (140200-140299)
const (
	// ErrCodePayoutGenerateFailed payout 生成失败
	ErrCodePayoutGenerateFailed = 140201
	// ErrCodePayoutProcessFailed payout 批处理失败
	ErrCodePayoutProcessFailed = 140202
	// ErrCodeInvalidArgument 参数错误
	ErrCodeInvalidArgument = 140203
)

// 支付网关 (140300-140399)
const (
	// ErrCodeGatewayUnavailable 网关调用失败
	ErrCodeGatewayUnavailable = 140301
	// ErrCodeGatewayStatusUnknown 网关返回未知的支付状态
	ErrCodeGatewayStatusUnknown = 140302
)

// 鉴权 (140400-140499)
const (
	// ErrCodeUnauthorized 未认证
	ErrCodeUnauthorized = 140401
	// ErrCodeForbidden 无权限
	ErrCodeForbidden = 140403
)

var reasons = map[int]string{
	ErrCodeOrderNotFound:        "ORDER_NOT_FOUND",
	ErrCodeOrderInvalid:         "ORDER_INVALID",
	ErrCodePayoutGenerateFailed: "PAYOUT_GENERATE_FAILED",
	ErrCodePayoutProcessFailed:  "PAYOUT_PROCESS_FAILED",
	ErrCodeInvalidArgument:      "INVALID_ARGUMENT",
	ErrCodeGatewayUnavailable:   "GATEWAY_UNAVAILABLE",
	ErrCodeGatewayStatusUnknown: "GATEWAY_STATUS_UNKNOWN",
	ErrCodeUnauthorized:         "UNAUTHORIZED",
	ErrCodeForbidden:            "FORBIDDEN",
}

// New 按错误码构造 kratos 错误
func New(code int, message string) *kerrors.Error {
	reason, ok := reasons[code]
	if !ok {
		reason = kerrors.UnknownReason
	}
	return kerrors.New(code, reason, message)
}

// Newf 带格式化信息的 New
func Newf(code int, format string, args ...interface{}) *kerrors.Error {
	reason, ok := reasons[code]
	if !ok {
		reason = kerrors.UnknownReason
	}
	return kerrors.Newf(code, reason, format, args...)
}

// HTTPStatus 将业务错误码映射为 HTTP 状态码
func HTTPStatus(code int) int {
	if code >= 100 && code < 600 {
		return code
	}
	switch code {
	case ErrCodeUnauthorized:
		return 401
	case ErrCodeForbidden:
		return 403
	case ErrCodeOrderNotFound:
		return 404
	case ErrCodeGatewayUnavailable, ErrCodeGatewayStatusUnknown:
		return 502
	case ErrCodeOrderInvalid, ErrCodeInvalidArgument:
		return 400
	}
	return 500
}
