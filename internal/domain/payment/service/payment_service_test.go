package service

import (
	"encoding/base64"
	"strings"
	"testing"

	tariffModel "payme_gateway/internal/domain/tariff/model"
	baseModel "payme_gateway/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockTariffRepository is a mock of TariffRepository
type MockTariffRepository struct {
	mock.Mock
}

func (m *MockTariffRepository) Create(tariff *tariffModel.PricingTariff) error {
	args := m.Called(tariff)
	return args.Error(0)
}

func (m *MockTariffRepository) GetByID(id string) (*tariffModel.PricingTariff, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tariffModel.PricingTariff), args.Error(1)
}

func (m *MockTariffRepository) ListActive() ([]tariffModel.PricingTariff, error) {
	args := m.Called()
	return args.Get(0).([]tariffModel.PricingTariff), args.Error(1)
}

func (m *MockTariffRepository) Update(tariff *tariffModel.PricingTariff) error {
	args := m.Called(tariff)
	return args.Error(0)
}

func testTariff(id string, active bool) *tariffModel.PricingTariff {
	return &tariffModel.PricingTariff{
		BaseModel: baseModel.BaseModel{ID: id},
		Name:      "Standard",
		Count:     10,
		Price:     5000,
		IsActive:  active,
	}
}

func TestCreatePayment(t *testing.T) {
	t.Run("Creates order and checkout link from tariff", func(t *testing.T) {
		fx, _ := newFixture()
		tariffs := new(MockTariffRepository)
		tariffs.On("GetByID", "tariff-1").Return(testTariff("tariff-1", true), nil)

		svc := NewPaymentService(&fakePaymentRepo{fx: fx}, &fakeUserRepo{fx: fx}, tariffs,
			"merchant-1", "https://checkout.paycom.uz")

		payment, link, err := svc.CreatePayment(testTelegramID, "tariff-1")

		assert.NoError(t, err)
		assert.Equal(t, float64(5000), payment.Amount)
		assert.Equal(t, 10, payment.PricingCount)
		assert.Equal(t, testUserID, *payment.UserID)
		assert.Len(t, payment.OrderNo, 22)

		encoded := strings.TrimPrefix(link, "https://checkout.paycom.uz/")
		decoded, decodeErr := base64.StdEncoding.DecodeString(encoded)
		assert.NoError(t, decodeErr)
		assert.Contains(t, string(decoded), "m=merchant-1")
		assert.Contains(t, string(decoded), "ac.order_id="+payment.OrderNo)
		assert.Contains(t, string(decoded), "ac.telegram_id=777000111")
		assert.Contains(t, string(decoded), "a=500000")
		tariffs.AssertExpectations(t)
	})

	t.Run("Unknown telegram user", func(t *testing.T) {
		fx, _ := newFixture()
		tariffs := new(MockTariffRepository)
		svc := NewPaymentService(&fakePaymentRepo{fx: fx}, &fakeUserRepo{fx: fx}, tariffs,
			"merchant-1", "https://checkout.paycom.uz")

		_, _, err := svc.CreatePayment(42, "tariff-1")

		assert.ErrorIs(t, err, ErrUserNotFound)
		tariffs.AssertNotCalled(t, "GetByID")
	})

	t.Run("Unknown tariff", func(t *testing.T) {
		fx, _ := newFixture()
		tariffs := new(MockTariffRepository)
		tariffs.On("GetByID", "missing").Return(nil, gorm.ErrRecordNotFound)
		svc := NewPaymentService(&fakePaymentRepo{fx: fx}, &fakeUserRepo{fx: fx}, tariffs,
			"merchant-1", "https://checkout.paycom.uz")

		_, _, err := svc.CreatePayment(testTelegramID, "missing")

		assert.ErrorIs(t, err, ErrTariffNotFound)
	})

	t.Run("Inactive tariff is not purchasable", func(t *testing.T) {
		fx, _ := newFixture()
		tariffs := new(MockTariffRepository)
		tariffs.On("GetByID", "tariff-2").Return(testTariff("tariff-2", false), nil)
		svc := NewPaymentService(&fakePaymentRepo{fx: fx}, &fakeUserRepo{fx: fx}, tariffs,
			"merchant-1", "https://checkout.paycom.uz")

		_, _, err := svc.CreatePayment(testTelegramID, "tariff-2")

		assert.ErrorIs(t, err, ErrTariffNotFound)
	})
}

func TestLatestStatus(t *testing.T) {
	t.Run("Returns most recent order", func(t *testing.T) {
		fx, _ := newFixture()
		tariffs := new(MockTariffRepository)
		svc := NewPaymentService(&fakePaymentRepo{fx: fx}, &fakeUserRepo{fx: fx}, tariffs,
			"merchant-1", "https://checkout.paycom.uz")

		payment, err := svc.LatestStatus(testTelegramID)

		assert.NoError(t, err)
		assert.Equal(t, "pay-1", payment.ID)
	})

	t.Run("No orders yet", func(t *testing.T) {
		fx, _ := newFixture()
		delete(fx.payments, "pay-1")
		tariffs := new(MockTariffRepository)
		svc := NewPaymentService(&fakePaymentRepo{fx: fx}, &fakeUserRepo{fx: fx}, tariffs,
			"merchant-1", "https://checkout.paycom.uz")

		_, err := svc.LatestStatus(testTelegramID)

		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})

	t.Run("Unknown user", func(t *testing.T) {
		fx, _ := newFixture()
		tariffs := new(MockTariffRepository)
		svc := NewPaymentService(&fakePaymentRepo{fx: fx}, &fakeUserRepo{fx: fx}, tariffs,
			"merchant-1", "https://checkout.paycom.uz")

		_, err := svc.LatestStatus(42)

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
