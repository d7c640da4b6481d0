package model

import (
	baseModel "payme_gateway/pkg/model"
)

// PricingTariff 估价套餐：count 次估价，总价 price so'm
type PricingTariff struct {
	baseModel.BaseModel
	Name     string  `gorm:"type:varchar(100);not null" json:"name"`
	Count    int     `gorm:"not null" json:"count"`
	Price    float64 `gorm:"not null" json:"price"`
	IsActive bool    `gorm:"default:true" json:"isActive"`
}

func (PricingTariff) TableName() string {
	return "pricing_tariffs"
}

// PricePerOne 单次估价价格
func (t *PricingTariff) PricePerOne() float64 {
	if t.Count <= 0 {
		return 0
	}
	return t.Price / float64(t.Count)
}
