package repository

import (
	"errors"

	"payme_gateway/internal/domain/user/model"

	"gorm.io/gorm"
)

// ErrInsufficientBalance 余额不足，估价扣减失败
var ErrInsufficientBalance = errors.New("insufficient balance")

// UserRepository 接口定义
type UserRepository interface {
	Create(user *model.BotUser) error
	GetByID(id string) (*model.BotUser, error)
	GetByTelegramID(telegramID int64) (*model.BotUser, error)
	Update(user *model.BotUser) error
	// UsePricing 消费一次估价：余额减一并写入消费记录，单事务
	UsePricing(userID string, history *model.PricingHistory) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建新的仓库实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.BotUser) error {
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id string) (*model.BotUser, error) {
	var user model.BotUser
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByTelegramID(telegramID int64) (*model.BotUser, error) {
	var user model.BotUser
	if err := r.db.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *model.BotUser) error {
	return r.db.Save(user).Error
}

func (r *userRepository) UsePricing(userID string, history *model.PricingHistory) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 条件更新扣减余额，balance > 0 兜底防止负数
		result := tx.Model(&model.BotUser{}).
			Where("id = ? AND balance > 0", userID).
			UpdateColumn("balance", gorm.Expr("balance - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		history.UserID = userID
		return tx.Create(history).Error
	})
}
