package service

import (
	"testing"
	"time"

	"payme_gateway/internal/domain/payment/model"
	"payme_gateway/internal/domain/payment/protocol"
	"payme_gateway/internal/domain/payment/repository"
	userModel "payme_gateway/internal/domain/user/model"
	userRepository "payme_gateway/internal/domain/user/repository"
	baseModel "payme_gateway/pkg/model"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// fixture is an in-memory store shared by the fake repositories so that
// balance changes and state transitions stay visible across calls.
type fixture struct {
	payments map[string]*model.Payment
	users    map[string]*userModel.BotUser
}

type fakePaymentRepo struct{ fx *fixture }
type fakeReconcileTx struct{ fx *fixture }
type fakeUserRepo struct{ fx *fixture }

func (r *fakePaymentRepo) Create(p *model.Payment) error {
	cp := *p
	r.fx.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByOrderNo(orderNo string) (*model.Payment, error) {
	for _, p := range r.fx.payments {
		if p.OrderNo == orderNo {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) GetByTransactionID(txnID string) (*model.Payment, error) {
	for _, p := range r.fx.payments {
		if p.PaymeTransactionID != nil && *p.PaymeTransactionID == txnID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) LatestByUser(userID string) (*model.Payment, error) {
	var latest *model.Payment
	for _, p := range r.fx.payments {
		if p.UserID != nil && *p.UserID == userID {
			if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
				latest = p
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakePaymentRepo) ListBoundByRange(from, to time.Time) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range r.fx.payments {
		if p.PaymeTransactionID == nil {
			continue
		}
		if p.CreatedAt.Before(from) || p.CreatedAt.After(to) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakePaymentRepo) Reconcile(fn func(tx repository.ReconcileTx) error) error {
	return fn(&fakeReconcileTx{fx: r.fx})
}

func (t *fakeReconcileTx) GetByOrderNoForUpdate(orderNo string) (*model.Payment, error) {
	return (&fakePaymentRepo{fx: t.fx}).GetByOrderNo(orderNo)
}

func (t *fakeReconcileTx) GetByTransactionIDForUpdate(txnID string) (*model.Payment, error) {
	return (&fakePaymentRepo{fx: t.fx}).GetByTransactionID(txnID)
}

func (t *fakeReconcileTx) Save(p *model.Payment) error {
	cp := *p
	t.fx.payments[p.ID] = &cp
	return nil
}

func (t *fakeReconcileTx) CreditBalance(userID string, count int) error {
	if u, ok := t.fx.users[userID]; ok {
		u.Balance += count
	}
	return nil
}

func (t *fakeReconcileTx) DebitBalance(userID string, count int) (bool, error) {
	u, ok := t.fx.users[userID]
	if !ok || u.Balance < count {
		return false, nil
	}
	u.Balance -= count
	return true, nil
}

func (r *fakeUserRepo) Create(u *userModel.BotUser) error {
	cp := *u
	r.fx.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(id string) (*userModel.BotUser, error) {
	if u, ok := r.fx.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByTelegramID(telegramID int64) (*userModel.BotUser, error) {
	for _, u := range r.fx.users {
		if u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(u *userModel.BotUser) error {
	cp := *u
	r.fx.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UsePricing(userID string, history *userModel.PricingHistory) error {
	u, ok := r.fx.users[userID]
	if !ok || u.Balance <= 0 {
		return userRepository.ErrInsufficientBalance
	}
	u.Balance--
	return nil
}

const (
	testUserID     = "b7a1f3a0-0000-4000-8000-000000000001"
	testTelegramID = int64(777000111)
	testOrderNo    = "20250101120000a1b2c3d4"
	testTxnID      = "64f1c9a2b3d4e5f601234567"
)

// newFixture seeds one bot user (zero balance) and one freshly created
// 5000 so'm / 10 credit order that is not yet bound to a transaction.
func newFixture() (*fixture, ReconcileService) {
	userID := testUserID
	fx := &fixture{
		payments: map[string]*model.Payment{},
		users:    map[string]*userModel.BotUser{},
	}
	fx.users[userID] = &userModel.BotUser{
		BaseModel:  baseModel.BaseModel{ID: userID},
		TelegramID: testTelegramID,
		Balance:    0,
		IsActive:   true,
	}
	fx.payments["pay-1"] = &model.Payment{
		BaseModel: baseModel.BaseModel{
			ID:        "pay-1",
			CreatedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		OrderNo:      testOrderNo,
		UserID:       &userID,
		Amount:       5000,
		PricingCount: 10,
		State:        model.StateCreated,
	}

	svc := NewReconcileService(
		&fakePaymentRepo{fx: fx},
		&fakeUserRepo{fx: fx},
		nil, nil, 1000,
	)
	return fx, svc
}

func params(txnID string, amount int64, orderID string) protocol.Params {
	return protocol.Params{
		ID:      txnID,
		Amount:  amount,
		Account: protocol.Account{OrderID: orderID},
	}
}

func TestCheckPerformTransaction(t *testing.T) {
	t.Run("Allow payable order", func(t *testing.T) {
		_, svc := newFixture()

		res, perr := svc.CheckPerformTransaction(params("", 500000, testOrderNo))

		assert.Nil(t, perr)
		assert.True(t, res.Allow)
	})

	t.Run("Missing order_id field", func(t *testing.T) {
		_, svc := newFixture()

		_, perr := svc.CheckPerformTransaction(params("", 500000, ""))

		assert.Equal(t, protocol.CodeFieldMissing, perr.Code)
		assert.Equal(t, "order_id", perr.Data)
	})

	t.Run("Order not found", func(t *testing.T) {
		_, svc := newFixture()

		_, perr := svc.CheckPerformTransaction(params("", 500000, "missing-order"))

		assert.Equal(t, protocol.CodeOrderNotFound, perr.Code)
	})

	t.Run("Amount below merchant minimum", func(t *testing.T) {
		_, svc := newFixture()

		// minimum is 1000 so'm = 100000 tiyin
		_, perr := svc.CheckPerformTransaction(params("", 50000, testOrderNo))

		assert.Equal(t, protocol.CodeWrongAmount, perr.Code)
	})

	t.Run("Amount does not match order", func(t *testing.T) {
		_, svc := newFixture()

		_, perr := svc.CheckPerformTransaction(params("", 400000, testOrderNo))

		assert.Equal(t, protocol.CodeWrongAmount, perr.Code)
	})

	t.Run("Order already processed", func(t *testing.T) {
		fx, svc := newFixture()
		fx.payments["pay-1"].State = model.StateCompleted

		_, perr := svc.CheckPerformTransaction(params("", 500000, testOrderNo))

		assert.Equal(t, protocol.CodeOrderAlreadyProcessed, perr.Code)
	})

	t.Run("Account hint mismatch", func(t *testing.T) {
		_, svc := newFixture()

		p := params("", 500000, testOrderNo)
		p.Account.TelegramID = "123456"

		_, perr := svc.CheckPerformTransaction(p)

		assert.Equal(t, protocol.CodeAccountMismatch, perr.Code)
	})

	t.Run("Account hint match passes", func(t *testing.T) {
		_, svc := newFixture()

		p := params("", 500000, testOrderNo)
		p.Account.TelegramID = "777000111"

		res, perr := svc.CheckPerformTransaction(p)

		assert.Nil(t, perr)
		assert.True(t, res.Allow)
	})
}

func TestCreateTransaction(t *testing.T) {
	t.Run("Bind transaction to order", func(t *testing.T) {
		fx, svc := newFixture()

		res, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))

		assert.Nil(t, perr)
		assert.Equal(t, "pay-1", res.Transaction)
		assert.Equal(t, model.StateCreated, res.State)
		assert.Equal(t, fx.payments["pay-1"].CreatedAt.UnixMilli(), res.CreateTime)
		assert.Equal(t, testTxnID, *fx.payments["pay-1"].PaymeTransactionID)
	})

	t.Run("Replay with same transaction id is idempotent", func(t *testing.T) {
		_, svc := newFixture()

		first, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)

		second, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)
		assert.Equal(t, first, second)
	})

	t.Run("Second transaction on same order is rejected", func(t *testing.T) {
		_, svc := newFixture()

		_, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)

		_, perr = svc.CreateTransaction(params("another-txn-id", 500000, testOrderNo))
		assert.Equal(t, protocol.CodeDuplicateBinding, perr.Code)
	})

	t.Run("Wrong amount does not bind", func(t *testing.T) {
		fx, svc := newFixture()

		_, perr := svc.CreateTransaction(params(testTxnID, 123456, testOrderNo))

		assert.Equal(t, protocol.CodeWrongAmount, perr.Code)
		assert.Nil(t, fx.payments["pay-1"].PaymeTransactionID)
	})

	t.Run("Missing transaction id", func(t *testing.T) {
		_, svc := newFixture()

		_, perr := svc.CreateTransaction(params("", 500000, testOrderNo))

		assert.Equal(t, protocol.CodeFieldMissing, perr.Code)
		assert.Equal(t, "id", perr.Data)
	})

	t.Run("Order not found", func(t *testing.T) {
		_, svc := newFixture()

		_, perr := svc.CreateTransaction(params(testTxnID, 500000, "missing-order"))

		assert.Equal(t, protocol.CodeOrderNotFound, perr.Code)
	})
}

func TestPerformTransaction(t *testing.T) {
	t.Run("Perform credits balance once", func(t *testing.T) {
		fx, svc := newFixture()
		_, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)

		res, perr := svc.PerformTransaction(params(testTxnID, 0, ""))

		assert.Nil(t, perr)
		assert.Equal(t, model.StateCompleted, res.State)
		assert.NotZero(t, res.PerformTime)
		assert.Equal(t, 10, fx.users[testUserID].Balance)
	})

	t.Run("Replay returns stored perform time without double credit", func(t *testing.T) {
		fx, svc := newFixture()
		_, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)

		first, perr := svc.PerformTransaction(params(testTxnID, 0, ""))
		assert.Nil(t, perr)

		second, perr := svc.PerformTransaction(params(testTxnID, 0, ""))
		assert.Nil(t, perr)
		assert.Equal(t, first.PerformTime, second.PerformTime)
		assert.Equal(t, 10, fx.users[testUserID].Balance)
	})

	t.Run("Cancelled transaction cannot be performed", func(t *testing.T) {
		fx, svc := newFixture()
		_, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)
		fx.payments["pay-1"].State = model.StateCancelled

		_, perr = svc.PerformTransaction(params(testTxnID, 0, ""))

		assert.Equal(t, protocol.CodeCannotPerform, perr.Code)
		assert.Equal(t, 0, fx.users[testUserID].Balance)
	})

	t.Run("Unknown transaction", func(t *testing.T) {
		_, svc := newFixture()

		_, perr := svc.PerformTransaction(params("no-such-txn", 0, ""))

		assert.Equal(t, protocol.CodeTransactionNotFound, perr.Code)
	})
}

func TestCancelTransaction(t *testing.T) {
	reason := 5

	t.Run("Cancel before perform leaves balance untouched", func(t *testing.T) {
		fx, svc := newFixture()
		_, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)

		p := params(testTxnID, 0, "")
		p.Reason = &reason
		res, perr := svc.CancelTransaction(p)

		assert.Nil(t, perr)
		assert.Equal(t, model.StateCancelled, res.State)
		assert.Equal(t, 0, fx.users[testUserID].Balance)
		assert.Equal(t, reason, *fx.payments["pay-1"].Reason)
	})

	t.Run("Cancel after perform debits credited amount", func(t *testing.T) {
		fx, svc := newFixture()
		_, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)
		_, perr = svc.PerformTransaction(params(testTxnID, 0, ""))
		assert.Nil(t, perr)
		assert.Equal(t, 10, fx.users[testUserID].Balance)

		p := params(testTxnID, 0, "")
		p.Reason = &reason
		res, perr := svc.CancelTransaction(p)

		assert.Nil(t, perr)
		assert.Equal(t, model.StateCancelledAfterComplete, res.State)
		assert.Equal(t, 0, fx.users[testUserID].Balance)
	})

	t.Run("Debit skipped when balance already spent", func(t *testing.T) {
		fx, svc := newFixture()
		_, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)
		_, perr = svc.PerformTransaction(params(testTxnID, 0, ""))
		assert.Nil(t, perr)

		// user spent 6 of the 10 credits before the refund arrived
		fx.users[testUserID].Balance = 4

		res, perr := svc.CancelTransaction(params(testTxnID, 0, ""))

		assert.Nil(t, perr)
		assert.Equal(t, model.StateCancelledAfterComplete, res.State)
		assert.Equal(t, 4, fx.users[testUserID].Balance)
	})

	t.Run("Repeated cancel does not change state or balance again", func(t *testing.T) {
		fx, svc := newFixture()
		_, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)
		_, perr = svc.PerformTransaction(params(testTxnID, 0, ""))
		assert.Nil(t, perr)

		_, perr = svc.CancelTransaction(params(testTxnID, 0, ""))
		assert.Nil(t, perr)
		assert.Equal(t, 0, fx.users[testUserID].Balance)

		res, perr := svc.CancelTransaction(params(testTxnID, 0, ""))

		assert.Nil(t, perr)
		assert.Equal(t, model.StateCancelledAfterComplete, res.State)
		assert.Equal(t, 0, fx.users[testUserID].Balance)
	})

	t.Run("Unknown transaction", func(t *testing.T) {
		_, svc := newFixture()

		_, perr := svc.CancelTransaction(params("no-such-txn", 0, ""))

		assert.Equal(t, protocol.CodeTransactionNotFound, perr.Code)
	})
}

func TestCheckTransaction(t *testing.T) {
	t.Run("Bound transaction before perform", func(t *testing.T) {
		fx, svc := newFixture()
		_, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)

		res, perr := svc.CheckTransaction(params(testTxnID, 0, ""))

		assert.Nil(t, perr)
		assert.Equal(t, model.StateCreated, res.State)
		assert.Equal(t, fx.payments["pay-1"].CreatedAt.UnixMilli(), res.CreateTime)
		assert.Zero(t, res.PerformTime)
		assert.Zero(t, res.CancelTime)
		assert.Nil(t, res.Reason)
	})

	t.Run("Full lifecycle snapshot", func(t *testing.T) {
		_, svc := newFixture()
		reason := 5
		_, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)
		_, perr = svc.PerformTransaction(params(testTxnID, 0, ""))
		assert.Nil(t, perr)
		p := params(testTxnID, 0, "")
		p.Reason = &reason
		_, perr = svc.CancelTransaction(p)
		assert.Nil(t, perr)

		res, perr := svc.CheckTransaction(params(testTxnID, 0, ""))

		assert.Nil(t, perr)
		assert.Equal(t, model.StateCancelledAfterComplete, res.State)
		assert.NotZero(t, res.PerformTime)
		assert.NotZero(t, res.CancelTime)
		assert.Equal(t, reason, *res.Reason)
	})

	t.Run("Unknown transaction", func(t *testing.T) {
		_, svc := newFixture()

		_, perr := svc.CheckTransaction(params("no-such-txn", 0, ""))

		assert.Equal(t, protocol.CodeTransactionNotFound, perr.Code)
	})
}

func TestGetStatement(t *testing.T) {
	t.Run("Only bound transactions inside window", func(t *testing.T) {
		fx, svc := newFixture()
		_, perr := svc.CreateTransaction(params(testTxnID, 500000, testOrderNo))
		assert.Nil(t, perr)

		// unbound order in the same window must not appear
		userID := testUserID
		fx.payments["pay-2"] = &model.Payment{
			BaseModel: baseModel.BaseModel{
				ID:        "pay-2",
				CreatedAt: time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC),
			},
			OrderNo:      "20250101130000deadbeef",
			UserID:       &userID,
			Amount:       5000,
			PricingCount: 10,
			State:        model.StateCreated,
		}

		p := protocol.Params{
			From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
			To:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli(),
		}
		res, perr := svc.GetStatement(p)

		assert.Nil(t, perr)
		assert.Len(t, res.Transactions, 1)
		entry := res.Transactions[0]
		assert.Equal(t, testTxnID, entry.ID)
		assert.Equal(t, "pay-1", entry.Transaction)
		assert.Equal(t, int64(500000), entry.Amount)
		assert.Equal(t, testOrderNo, entry.Account.OrderID)
		assert.Equal(t, "777000111", entry.Account.TelegramID)
	})

	t.Run("Empty window returns empty list", func(t *testing.T) {
		_, svc := newFixture()

		p := protocol.Params{
			From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
			To:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli(),
		}
		res, perr := svc.GetStatement(p)

		assert.Nil(t, perr)
		assert.Empty(t, res.Transactions)
	})
}

func TestChangePassword(t *testing.T) {
	t.Run("Always acknowledges", func(t *testing.T) {
		_, svc := newFixture()

		res, perr := svc.ChangePassword(protocol.Params{})

		assert.Nil(t, perr)
		assert.True(t, res.Success)
	})
}
