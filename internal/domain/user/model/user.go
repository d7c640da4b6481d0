package model

import (
	baseModel "payme_gateway/pkg/model"
)

// BotUser Telegram 机器人用户，余额为剩余估价次数
type BotUser struct {
	baseModel.BaseModel
	TelegramID int64  `gorm:"uniqueIndex;not null" json:"telegramId"`
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Balance    int    `gorm:"default:0;not null" json:"balance"`
	IsActive   bool   `gorm:"default:true" json:"isActive"`
}

func (BotUser) TableName() string {
	return "bot_users"
}

// PricingHistory 估价消费记录，每消费一次余额写一行
type PricingHistory struct {
	baseModel.BaseModel
	UserID     string  `gorm:"type:uuid;index;not null" json:"userId"`
	PhoneModel string  `json:"phoneModel"`
	Price      float64 `json:"price"`
}

func (PricingHistory) TableName() string {
	return "pricing_history"
}
