package repository

import (
	"time"

	"payme_gateway/internal/domain/payment/model"
	userModel "payme_gateway/internal/domain/user/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository interface {
	Create(payment *model.Payment) error
	GetByOrderNo(orderNo string) (*model.Payment, error)
	GetByTransactionID(txnID string) (*model.Payment, error)
	LatestByUser(userID string) (*model.Payment, error)
	// ListBoundByRange 查询区间内已绑定 Payme 交易的订单（GetStatement 用）
	ListBoundByRange(from, to time.Time) ([]model.Payment, error)
	// Reconcile 在一个数据库事务里执行对账操作
	// 闭包内通过 ReconcileTx 拿到的订单行持有行锁，余额变动与状态迁移同事务提交
	Reconcile(fn func(tx ReconcileTx) error) error
}

// ReconcileTx 对账事务内可用的操作集合
type ReconcileTx interface {
	GetByOrderNoForUpdate(orderNo string) (*model.Payment, error)
	GetByTransactionIDForUpdate(txnID string) (*model.Payment, error)
	Save(payment *model.Payment) error
	// CreditBalance 给用户增加估价次数
	CreditBalance(userID string, count int) error
	// DebitBalance 扣减估价次数，余额不足时不变更并返回 false
	DebitBalance(userID string, count int) (bool, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(payment *model.Payment) error {
	return r.db.Create(payment).Error
}

func (r *paymentRepository) GetByOrderNo(orderNo string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.Where("order_no = ?", orderNo).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByTransactionID(txnID string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.Where("payme_transaction_id = ?", txnID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) LatestByUser(userID string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListBoundByRange(from, to time.Time) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.
		Where("payme_transaction_id IS NOT NULL AND created_at BETWEEN ? AND ?", from, to).
		Order("created_at").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) Reconcile(fn func(tx ReconcileTx) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&reconcileTx{db: tx})
	})
}

// reconcileTx 事务作用域内的实现，db 是事务句柄
type reconcileTx struct {
	db *gorm.DB
}

func (t *reconcileTx) GetByOrderNoForUpdate(orderNo string) (*model.Payment, error) {
	var payment model.Payment
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_no = ?", orderNo).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (t *reconcileTx) GetByTransactionIDForUpdate(txnID string) (*model.Payment, error) {
	var payment model.Payment
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payme_transaction_id = ?", txnID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (t *reconcileTx) Save(payment *model.Payment) error {
	return t.db.Save(payment).Error
}

func (t *reconcileTx) CreditBalance(userID string, count int) error {
	return t.db.Model(&userModel.BotUser{}).
		Where("id = ?", userID).
		UpdateColumn("balance", gorm.Expr("balance + ?", count)).Error
}

func (t *reconcileTx) DebitBalance(userID string, count int) (bool, error) {
	result := t.db.Model(&userModel.BotUser{}).
		Where("id = ? AND balance >= ?", userID, count).
		UpdateColumn("balance", gorm.Expr("balance - ?", count))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
