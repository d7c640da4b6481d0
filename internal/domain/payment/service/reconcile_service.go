package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"payme_gateway/internal/domain/payment/model"
	"payme_gateway/internal/domain/payment/protocol"
	"payme_gateway/internal/domain/payment/repository"
	userRepo "payme_gateway/internal/domain/user/repository"
	userService "payme_gateway/internal/domain/user/service"
	"payme_gateway/internal/pkg/worker"
	"payme_gateway/pkg/logger"
	"payme_gateway/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReconcileService Payme Merchant API 的对账核心
// 每个方法对应一个回调方法，返回结果或协议错误，永远不向上抛异常
type ReconcileService interface {
	CheckPerformTransaction(p protocol.Params) (*protocol.AllowResult, *protocol.Error)
	CreateTransaction(p protocol.Params) (*protocol.CreateTransactionResult, *protocol.Error)
	PerformTransaction(p protocol.Params) (*protocol.PerformTransactionResult, *protocol.Error)
	CancelTransaction(p protocol.Params) (*protocol.CancelTransactionResult, *protocol.Error)
	CheckTransaction(p protocol.Params) (*protocol.CheckTransactionResult, *protocol.Error)
	GetStatement(p protocol.Params) (*protocol.StatementResult, *protocol.Error)
	ChangePassword(p protocol.Params) (*protocol.ChangePasswordResult, *protocol.Error)
}

type reconcileService struct {
	repo           repository.PaymentRepository
	users          userRepo.UserRepository
	rdb            *redis.Client
	notifier       *worker.NotifyPool
	minAmountTiyin int64
}

// NewReconcileService 创建对账服务
// rdb 和 notifier 允许为 nil（余额缓存失效和支付通知是旁路动作）
func NewReconcileService(repo repository.PaymentRepository, users userRepo.UserRepository,
	rdb *redis.Client, notifier *worker.NotifyPool, minAmountSum int64) ReconcileService {
	return &reconcileService{
		repo:           repo,
		users:          users,
		rdb:            rdb,
		notifier:       notifier,
		minAmountTiyin: minAmountSum * 100,
	}
}

// CheckPerformTransaction 校验订单是否可支付，只读
func (s *reconcileService) CheckPerformTransaction(p protocol.Params) (*protocol.AllowResult, *protocol.Error) {
	if p.Account.OrderID == "" {
		return nil, protocol.ErrFieldMissing("order_id")
	}

	if s.minAmountTiyin > 0 && p.Amount > 0 && p.Amount < s.minAmountTiyin {
		return nil, protocol.ErrWrongAmount()
	}

	payment, err := s.repo.GetByOrderNo(p.Account.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, protocol.ErrOrderNotFound()
		}
		return nil, s.internal("check perform lookup failed", err)
	}

	if payment.State != model.StateCreated {
		return nil, protocol.ErrOrderAlreadyProcessed()
	}

	if p.Amount != 0 && p.Amount != payment.AmountTiyin() {
		return nil, protocol.ErrWrongAmount()
	}

	if perr := s.checkAccountHint(payment, p.Account.TelegramID); perr != nil {
		return nil, perr
	}

	return &protocol.AllowResult{Allow: true}, nil
}

// CreateTransaction 将 Payme 交易绑定到已创建的订单，可安全重放
func (s *reconcileService) CreateTransaction(p protocol.Params) (*protocol.CreateTransactionResult, *protocol.Error) {
	if p.ID == "" {
		return nil, protocol.ErrFieldMissing("id")
	}
	if p.Account.OrderID == "" {
		return nil, protocol.ErrFieldMissing("order_id")
	}

	var result *protocol.CreateTransactionResult
	perr := s.withTx(func(tx repository.ReconcileTx) *protocol.Error {
		payment, err := tx.GetByOrderNoForUpdate(p.Account.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return protocol.ErrOrderNotFound()
			}
			return s.internal("create transaction lookup failed", err)
		}

		// 幂等重放：同一交易 ID 重复绑定，返回首次绑定的结果
		if payment.PaymeTransactionID != nil {
			if *payment.PaymeTransactionID == p.ID {
				result = &protocol.CreateTransactionResult{
					CreateTime:  model.Millis(payment.CreatedAt),
					Transaction: payment.ID,
					State:       payment.State,
				}
				return nil
			}
			// 订单已绑定另一笔交易，一单一绑
			return protocol.ErrDuplicateBinding()
		}

		if p.Amount != payment.AmountTiyin() {
			return protocol.ErrWrongAmount()
		}

		if payment.State != model.StateCreated {
			return protocol.ErrOrderAlreadyProcessed()
		}

		txnID := p.ID
		payment.PaymeTransactionID = &txnID
		if err := tx.Save(payment); err != nil {
			return s.internal("bind transaction save failed", err)
		}

		result = &protocol.CreateTransactionResult{
			CreateTime:  model.Millis(payment.CreatedAt),
			Transaction: payment.ID,
			State:       payment.State,
		}
		return nil
	})
	if perr != nil {
		return nil, perr
	}
	return result, nil
}

// PerformTransaction 确认支付：入账一次，重放返回首次入账时间
func (s *reconcileService) PerformTransaction(p protocol.Params) (*protocol.PerformTransactionResult, *protocol.Error) {
	if p.ID == "" {
		return nil, protocol.ErrFieldMissing("id")
	}

	var result *protocol.PerformTransactionResult
	var completed *model.Payment // 本次调用新完成的订单
	perr := s.withTx(func(tx repository.ReconcileTx) *protocol.Error {
		payment, err := tx.GetByTransactionIDForUpdate(p.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return protocol.ErrTransactionNotFound()
			}
			return s.internal("perform lookup failed", err)
		}

		switch payment.State {
		case model.StateCreated:
			now := time.Now()
			payment.State = model.StateCompleted
			payment.PerformedAt = &now

			// 余额入账与状态迁移同事务提交
			if payment.UserID != nil {
				if err := tx.CreditBalance(*payment.UserID, payment.PricingCount); err != nil {
					return s.internal("balance credit failed", err)
				}
			}

			if err := tx.Save(payment); err != nil {
				return s.internal("perform save failed", err)
			}

			completed = payment
			result = &protocol.PerformTransactionResult{
				Transaction: payment.ID,
				PerformTime: model.Millis(now),
				State:       payment.State,
			}
			return nil

		case model.StateCompleted:
			// 幂等重放：返回存储的完成时间，不重新取 now
			result = &protocol.PerformTransactionResult{
				Transaction: payment.ID,
				PerformTime: model.MillisPtr(payment.PerformedAt),
				State:       payment.State,
			}
			return nil

		default:
			return protocol.ErrCannotPerform()
		}
	})
	if perr != nil {
		return nil, perr
	}

	if completed != nil {
		metrics.GetGlobalCollector().RecordCredit(completed.PricingCount)
		s.afterBalanceChange(completed)
		s.notifyPaid(completed)
	}
	return result, nil
}

// CancelTransaction 取消交易
// 已完成的订单转入 -2 并尝试回收余额，余额不足时按策略跳过扣减
func (s *reconcileService) CancelTransaction(p protocol.Params) (*protocol.CancelTransactionResult, *protocol.Error) {
	if p.ID == "" {
		return nil, protocol.ErrFieldMissing("id")
	}

	var result *protocol.CancelTransactionResult
	var debited *model.Payment
	perr := s.withTx(func(tx repository.ReconcileTx) *protocol.Error {
		payment, err := tx.GetByTransactionIDForUpdate(p.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return protocol.ErrTransactionNotFound()
			}
			return s.internal("cancel lookup failed", err)
		}

		switch payment.State {
		case model.StateCreated:
			payment.State = model.StateCancelled

		case model.StateCompleted:
			payment.State = model.StateCancelledAfterComplete

			// 回收余额；不足则跳过，只在完成→取消这条边上扣一次
			if payment.UserID != nil {
				ok, err := tx.DebitBalance(*payment.UserID, payment.PricingCount)
				if err != nil {
					return s.internal("balance debit failed", err)
				}
				if ok {
					debited = payment
				} else if logger.Log != nil {
					logger.Log.Warn("cancel after complete: balance insufficient, debit skipped",
						zap.String("order_no", payment.OrderNo),
						zap.Int("count", payment.PricingCount))
				}
			}

		default:
			// 已取消的交易重复取消：只刷新取消时间和原因，状态与余额不再变化
		}

		now := time.Now()
		payment.CancelledAt = &now
		if p.Reason != nil {
			payment.Reason = p.Reason
		}
		if err := tx.Save(payment); err != nil {
			return s.internal("cancel save failed", err)
		}

		result = &protocol.CancelTransactionResult{
			Transaction: payment.ID,
			CancelTime:  model.Millis(now),
			State:       payment.State,
		}
		return nil
	})
	if perr != nil {
		return nil, perr
	}

	if debited != nil {
		metrics.GetGlobalCollector().RecordDebit(debited.PricingCount)
		s.afterBalanceChange(debited)
	}
	return result, nil
}

// CheckTransaction 查询交易状态，只读
func (s *reconcileService) CheckTransaction(p protocol.Params) (*protocol.CheckTransactionResult, *protocol.Error) {
	if p.ID == "" {
		return nil, protocol.ErrFieldMissing("id")
	}

	payment, err := s.repo.GetByTransactionID(p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, protocol.ErrTransactionNotFound()
		}
		return nil, s.internal("check lookup failed", err)
	}

	return &protocol.CheckTransactionResult{
		CreateTime:  model.Millis(payment.CreatedAt),
		Transaction: payment.ID,
		State:       payment.State,
		PerformTime: model.MillisPtr(payment.PerformedAt),
		CancelTime:  model.MillisPtr(payment.CancelledAt),
		Reason:      payment.Reason,
	}, nil
}

// GetStatement 区间对账单
// 结果不分页：协议没有给游标语义，量大时靠缩小时间窗口
func (s *reconcileService) GetStatement(p protocol.Params) (*protocol.StatementResult, *protocol.Error) {
	from := time.UnixMilli(p.From)
	to := time.UnixMilli(p.To)

	payments, err := s.repo.ListBoundByRange(from, to)
	if err != nil {
		return nil, s.internal("statement query failed", err)
	}

	entries := make([]protocol.StatementEntry, 0, len(payments))
	for i := range payments {
		payment := &payments[i]

		account := protocol.Account{OrderID: payment.OrderNo}
		if payment.UserID != nil {
			if user, err := s.users.GetByID(*payment.UserID); err == nil {
				account.TelegramID = strconv.FormatInt(user.TelegramID, 10)
			}
		}

		entries = append(entries, protocol.StatementEntry{
			ID:          *payment.PaymeTransactionID,
			Time:        model.Millis(payment.CreatedAt),
			Amount:      payment.AmountTiyin(),
			Account:     account,
			CreateTime:  model.Millis(payment.CreatedAt),
			PerformTime: model.MillisPtr(payment.PerformedAt),
			CancelTime:  model.MillisPtr(payment.CancelledAt),
			Transaction: payment.ID,
			State:       payment.State,
			Reason:      payment.Reason,
		})
	}

	return &protocol.StatementResult{Transactions: entries}, nil
}

// ChangePassword 密钥轮换走运维流程，这里按协议应答成功
func (s *reconcileService) ChangePassword(p protocol.Params) (*protocol.ChangePasswordResult, *protocol.Error) {
	return &protocol.ChangePasswordResult{Success: true}, nil
}

// checkAccountHint 校验回调里的 telegram_id 与订单绑定的用户一致
func (s *reconcileService) checkAccountHint(payment *model.Payment, telegramID string) *protocol.Error {
	if telegramID == "" || payment.UserID == nil {
		return nil
	}

	user, err := s.users.GetByID(*payment.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return protocol.ErrAccountMismatch()
		}
		return s.internal("account hint lookup failed", err)
	}

	if strconv.FormatInt(user.TelegramID, 10) != telegramID {
		return protocol.ErrAccountMismatch()
	}
	return nil
}

// withTx 在对账事务里执行 fn；协议错误触发回滚并原样返回
func (s *reconcileService) withTx(fn func(tx repository.ReconcileTx) *protocol.Error) *protocol.Error {
	var perr *protocol.Error
	err := s.repo.Reconcile(func(tx repository.ReconcileTx) error {
		if e := fn(tx); e != nil {
			perr = e
			return e
		}
		return nil
	})
	if perr != nil {
		return perr
	}
	if err != nil {
		return s.internal("reconcile transaction failed", err)
	}
	return nil
}

// afterBalanceChange 余额变动后让缓存失效
func (s *reconcileService) afterBalanceChange(payment *model.Payment) {
	if s.rdb == nil || payment.UserID == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	s.rdb.Del(ctx, userService.BalanceCacheKey(*payment.UserID))
}

// notifyPaid 支付完成后异步通知机器人后端
func (s *reconcileService) notifyPaid(payment *model.Payment) {
	if s.notifier == nil || payment.UserID == nil {
		return
	}

	user, err := s.users.GetByID(*payment.UserID)
	if err != nil {
		if logger.Log != nil {
			logger.Log.Warn("paid notice skipped: user lookup failed",
				zap.String("order_no", payment.OrderNo), zap.Error(err))
		}
		return
	}

	s.notifier.Enqueue(worker.PaidNotice{
		TelegramID: user.TelegramID,
		OrderNo:    payment.OrderNo,
		Amount:     payment.Amount,
		Count:      payment.PricingCount,
		State:      payment.State,
	})
}

// internal 记录并收敛为协议内部错误，细节不外漏
func (s *reconcileService) internal(msg string, err error) *protocol.Error {
	if logger.Log != nil {
		logger.Log.Error(msg, zap.Error(err))
	}
	return protocol.ErrInternal()
}
