package service

import (
	"errors"
	"fmt"
	"time"

	"payme_gateway/internal/domain/payment/model"
	"payme_gateway/internal/domain/payment/protocol"
	"payme_gateway/internal/domain/payment/repository"
	tariffRepo "payme_gateway/internal/domain/tariff/repository"
	userRepo "payme_gateway/internal/domain/user/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrTariffNotFound  = errors.New("tariff not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

// PaymentService 商户侧下单流程：建单并生成收银台链接
type PaymentService interface {
	CreatePayment(telegramID int64, tariffID string) (*model.Payment, string, error)
	// LatestStatus 机器人轮询用户最近一笔订单
	LatestStatus(telegramID int64) (*model.Payment, error)
}

type paymentService struct {
	repo        repository.PaymentRepository
	users       userRepo.UserRepository
	tariffs     tariffRepo.TariffRepository
	merchantID  string
	checkoutURL string
}

func NewPaymentService(repo repository.PaymentRepository, users userRepo.UserRepository,
	tariffs tariffRepo.TariffRepository, merchantID, checkoutURL string) PaymentService {
	return &paymentService{
		repo:        repo,
		users:       users,
		tariffs:     tariffs,
		merchantID:  merchantID,
		checkoutURL: checkoutURL,
	}
}

func (s *paymentService) CreatePayment(telegramID int64, tariffID string) (*model.Payment, string, error) {
	user, err := s.users.GetByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}

	tariff, err := s.tariffs.GetByID(tariffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrTariffNotFound
		}
		return nil, "", err
	}
	if !tariff.IsActive {
		return nil, "", ErrTariffNotFound
	}

	// 生成商户订单号：时间前缀 + 随机段，作为 checkout 链接里的 ac.order_id
	orderNo := fmt.Sprintf("%s%s", time.Now().Format("20060102150405"), uuid.New().String()[:8])

	payment := &model.Payment{
		OrderNo:      orderNo,
		UserID:       &user.ID,
		TariffID:     &tariff.ID,
		Amount:       tariff.Price,
		PricingCount: tariff.Count,
		State:        model.StateCreated,
	}
	if err := s.repo.Create(payment); err != nil {
		return nil, "", err
	}

	link := protocol.CheckoutLink(s.checkoutURL, s.merchantID, orderNo, telegramID, tariff.Price)
	return payment, link, nil
}

func (s *paymentService) LatestStatus(telegramID int64) (*model.Payment, error) {
	user, err := s.users.GetByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	payment, err := s.repo.LatestByUser(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}
