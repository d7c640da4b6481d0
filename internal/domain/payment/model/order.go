package model

import (
	"time"

	baseModel "payme_gateway/pkg/model"
)

// Payment 支付订单
// 机器人侧先建单（state=1，未绑定交易），Payme 发起 CreateTransaction 后
// 绑定 payme_transaction_id，此后状态只沿状态机单向迁移
type Payment struct {
	baseModel.BaseModel
	OrderNo            string     `gorm:"uniqueIndex;not null" json:"orderNo"` // 商户订单号，即 checkout 链接里的 ac.order_id
	UserID             *string    `gorm:"type:uuid;index" json:"userId"`
	TariffID           *string    `gorm:"type:uuid" json:"tariffId"`
	Amount             float64    `gorm:"not null" json:"amount"` // so'm
	PricingCount       int        `gorm:"not null" json:"pricingCount"`
	PaymeTransactionID *string    `gorm:"uniqueIndex" json:"paymeTransactionId"`
	State              int        `gorm:"default:1;index;not null" json:"state"`
	PerformedAt        *time.Time `json:"performedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	Reason             *int       `json:"reason,omitempty"`
}

// 状态值与 Payme 协议一致
const (
	StateCreated                = 1
	StateCompleted              = 2
	StateCancelled              = -1
	StateCancelledAfterComplete = -2
)

func (Payment) TableName() string {
	return "payments"
}

// IsTerminal 是否处于终态（已取消）
func (p *Payment) IsTerminal() bool {
	return p.State == StateCancelled || p.State == StateCancelledAfterComplete
}

// AmountTiyin 订单金额换算为 tiyin
func (p *Payment) AmountTiyin() int64 {
	return int64(p.Amount*100 + 0.5)
}

// Millis time.Time → 协议使用的毫秒时间戳
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// MillisPtr 空安全版本，时间未发生时返回 0
func MillisPtr(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}
