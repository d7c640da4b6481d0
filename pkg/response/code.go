package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserNotFound        = 10002
	ErrAuthFailed          = 10003
	ErrTokenInvalid        = 10004
	ErrNoPermission        = 10005
	ErrInsufficientBalance = 10006

	// 支付模块错误 200xx
	ErrTariffNotFound  = 20001
	ErrPaymentNotFound = 20002
	ErrPaymentLink     = 20003

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
