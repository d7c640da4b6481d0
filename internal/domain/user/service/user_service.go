package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"payme_gateway/internal/domain/user/model"
	"payme_gateway/internal/domain/user/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrInsufficientBalance 余额不足
var ErrInsufficientBalance = repository.ErrInsufficientBalance

// 余额缓存
const (
	balanceCacheKeyPrefix = "balance:"
	balanceCacheTTL       = time.Minute * 5
)

// BalanceCacheKey 用户余额的缓存键，payment 模块在余额变动后用它做失效
func BalanceCacheKey(userID string) string {
	return balanceCacheKeyPrefix + userID
}

// UserService 用户服务接口
type UserService interface {
	CreateOrUpdate(telegramID int64, fullName, username string) (*model.BotUser, bool, error)
	GetByTelegramID(telegramID int64) (*model.BotUser, error)
	// GetBalance 读余额，优先走缓存
	GetBalance(telegramID int64) (int, error)
	// UsePricing 消费一次估价，返回剩余余额
	UsePricing(telegramID int64, phoneModel string, price float64) (int, error)
}

type userService struct {
	repo repository.UserRepository
	rdb  *redis.Client
}

// NewUserService 创建用户服务，rdb 为 nil 时余额直接读库
func NewUserService(repo repository.UserRepository, rdb *redis.Client) UserService {
	return &userService{repo: repo, rdb: rdb}
}

// CreateOrUpdate 注册或更新机器人用户，返回是否新建
func (s *userService) CreateOrUpdate(telegramID int64, fullName, username string) (*model.BotUser, bool, error) {
	user, err := s.repo.GetByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = &model.BotUser{
				TelegramID: telegramID,
				FullName:   fullName,
				Username:   username,
				IsActive:   true,
			}
			if err := s.repo.Create(user); err != nil {
				return nil, false, err
			}
			return user, true, nil
		}
		return nil, false, err
	}

	user.FullName = fullName
	user.Username = username
	if err := s.repo.Update(user); err != nil {
		return nil, false, err
	}
	return user, false, nil
}

func (s *userService) GetByTelegramID(telegramID int64) (*model.BotUser, error) {
	return s.repo.GetByTelegramID(telegramID)
}

func (s *userService) GetBalance(telegramID int64) (int, error) {
	user, err := s.repo.GetByTelegramID(telegramID)
	if err != nil {
		return 0, err
	}

	if s.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
		defer cancel()

		key := BalanceCacheKey(user.ID)
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			if balance, err := strconv.Atoi(cached); err == nil {
				return balance, nil
			}
		}
		// 缓存未命中，回填数据库值
		s.rdb.Set(ctx, key, fmt.Sprintf("%d", user.Balance), balanceCacheTTL)
	}

	return user.Balance, nil
}

func (s *userService) UsePricing(telegramID int64, phoneModel string, price float64) (int, error) {
	user, err := s.repo.GetByTelegramID(telegramID)
	if err != nil {
		return 0, err
	}

	if user.Balance <= 0 {
		return 0, ErrInsufficientBalance
	}

	history := &model.PricingHistory{
		PhoneModel: phoneModel,
		Price:      price,
	}
	if err := s.repo.UsePricing(user.ID, history); err != nil {
		return 0, err
	}

	s.invalidateBalance(user.ID)
	return user.Balance - 1, nil
}

func (s *userService) invalidateBalance(userID string) {
	if s.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	s.rdb.Del(ctx, BalanceCacheKey(userID))
}
