package service

import (
	"errors"
	"time"

	"payme_gateway/internal/domain/tariff/model"
	"payme_gateway/internal/domain/tariff/repository"
)

// TariffService 套餐服务接口
type TariffService interface {
	CreateTariff(name string, count int, price float64) (*model.PricingTariff, error)
	GetTariffs() ([]model.PricingTariff, error)
	Deactivate(id string) error
}

type tariffService struct {
	repo repository.TariffRepository
}

func NewTariffService(repo repository.TariffRepository) TariffService {
	return &tariffService{repo: repo}
}

func (s *tariffService) CreateTariff(name string, count int, price float64) (*model.PricingTariff, error) {
	if count < 1 {
		return nil, errors.New("count must be at least 1")
	}
	if price <= 0 {
		return nil, errors.New("price must be positive")
	}

	tariff := &model.PricingTariff{
		Name:     name,
		Count:    count,
		Price:    price,
		IsActive: true,
	}
	if err := s.repo.Create(tariff); err != nil {
		return nil, err
	}
	return tariff, nil
}

func (s *tariffService) GetTariffs() ([]model.PricingTariff, error) {
	return s.repo.ListActive()
}

// Deactivate 下架套餐；历史订单保留套餐引用，不做物理删除
func (s *tariffService) Deactivate(id string) error {
	tariff, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	tariff.IsActive = false
	tariff.UpdatedAt = time.Now()
	return s.repo.Update(tariff)
}
