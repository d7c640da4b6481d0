package protocol

// Payme Merchant API 是 JSON-RPC 风格的协议：
// 请求 {method, params, id}，响应 {result, id} 或 {error, id}。
// 业务失败也走 HTTP 200，错误只体现在 error 字段里。

// Request 回调请求信封
type Request struct {
	Method string      `json:"method"`
	Params Params      `json:"params"`
	ID     interface{} `json:"id"`
}

// Response 回调响应信封
type Response struct {
	Result interface{} `json:"result,omitempty"`
	Error  *Error      `json:"error,omitempty"`
	ID     interface{} `json:"id"`
}

// Params 各方法共用的参数集合，字段按方法取用
type Params struct {
	ID      string  `json:"id"`     // Payme 交易 ID
	Time    int64   `json:"time"`   // 请求时间（毫秒）
	Amount  int64   `json:"amount"` // 金额（tiyin）
	Account Account `json:"account"`
	Reason  *int    `json:"reason"`
	From    int64   `json:"from"` // GetStatement 起始时间（毫秒）
	To      int64   `json:"to"`   // GetStatement 结束时间（毫秒）
}

// Account checkout 链接里携带的账户字段，Payme 原样回传（值都是字符串）
type Account struct {
	OrderID    string `json:"order_id"`
	TelegramID string `json:"telegram_id,omitempty"`
}

// AllowResult CheckPerformTransaction 成功结果
type AllowResult struct {
	Allow bool `json:"allow"`
}

// CreateTransactionResult CreateTransaction 成功结果
type CreateTransactionResult struct {
	CreateTime  int64  `json:"create_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
}

// PerformTransactionResult PerformTransaction 成功结果
type PerformTransactionResult struct {
	Transaction string `json:"transaction"`
	PerformTime int64  `json:"perform_time"`
	State       int    `json:"state"`
}

// CancelTransactionResult CancelTransaction 成功结果
type CancelTransactionResult struct {
	Transaction string `json:"transaction"`
	CancelTime  int64  `json:"cancel_time"`
	State       int    `json:"state"`
}

// CheckTransactionResult CheckTransaction 成功结果
// perform_time / cancel_time / reason 只在对应事件发生过之后返回
type CheckTransactionResult struct {
	CreateTime  int64  `json:"create_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	PerformTime int64  `json:"perform_time,omitempty"`
	CancelTime  int64  `json:"cancel_time,omitempty"`
	Reason      *int   `json:"reason,omitempty"`
}

// StatementEntry GetStatement 中单笔交易快照
type StatementEntry struct {
	ID          string  `json:"id"` // Payme 交易 ID
	Time        int64   `json:"time"`
	Amount      int64   `json:"amount"`
	Account     Account `json:"account"`
	CreateTime  int64   `json:"create_time"`
	PerformTime int64   `json:"perform_time,omitempty"`
	CancelTime  int64   `json:"cancel_time,omitempty"`
	Transaction string  `json:"transaction"`
	State       int     `json:"state"`
	Reason      *int    `json:"reason,omitempty"`
}

// StatementResult GetStatement 成功结果
type StatementResult struct {
	Transactions []StatementEntry `json:"transactions"`
}

// ChangePasswordResult ChangePassword 成功结果（密钥轮换由运维侧处理，这里只应答）
type ChangePasswordResult struct {
	Success bool `json:"success"`
}

// 方法名常量
const (
	MethodCheckPerformTransaction = "CheckPerformTransaction"
	MethodCreateTransaction       = "CreateTransaction"
	MethodPerformTransaction      = "PerformTransaction"
	MethodCancelTransaction       = "CancelTransaction"
	MethodCheckTransaction        = "CheckTransaction"
	MethodGetStatement            = "GetStatement"
	MethodChangePassword          = "ChangePassword"
)
