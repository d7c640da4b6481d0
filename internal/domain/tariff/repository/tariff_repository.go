package repository

import (
	"payme_gateway/internal/domain/tariff/model"

	"gorm.io/gorm"
)

type TariffRepository interface {
	Create(tariff *model.PricingTariff) error
	GetByID(id string) (*model.PricingTariff, error)
	ListActive() ([]model.PricingTariff, error)
	Update(tariff *model.PricingTariff) error
}

type tariffRepository struct {
	db *gorm.DB
}

func NewTariffRepository(db *gorm.DB) TariffRepository {
	return &tariffRepository{db: db}
}

func (r *tariffRepository) Create(tariff *model.PricingTariff) error {
	return r.db.Create(tariff).Error
}

func (r *tariffRepository) GetByID(id string) (*model.PricingTariff, error) {
	var tariff model.PricingTariff
	if err := r.db.Where("id = ?", id).First(&tariff).Error; err != nil {
		return nil, err
	}
	return &tariff, nil
}

func (r *tariffRepository) ListActive() ([]model.PricingTariff, error) {
	var tariffs []model.PricingTariff
	err := r.db.Where("is_active = ?", true).Order("count").Find(&tariffs).Error
	return tariffs, err
}

func (r *tariffRepository) Update(tariff *model.PricingTariff) error {
	return r.db.Save(tariff).Error
}
