package repository

import (
	"testing"
	"time"

	"dream/internal/domain"
	"dream/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createOrder(t *testing.T, db *gorm.DB, userID uint, outTradeNo string) *models.Order {
	t.Helper()
	o := &models.Order{
		UserID:      userID,
		OutTradeNo:  outTradeNo,
		Subject:     "100 points pack",
		TotalAmount: dec("10"),
		PointsRate:  dec("10"),
	}
	require.NoError(t, NewOrderRepository(db).Create(o))
	return o
}

func TestOrderCreate(t *testing.T) {
	db := setupDB(t)
	repo := NewOrderRepository(db)
	u := createUser(t, db, "alice")

	o := createOrder(t, db, u.ID, "20260829001")
	require.Equal(t, domain.OrderPending, o.Status)
	require.Nil(t, o.TradeNo)
	require.True(t, o.PointsAwarded.IsZero())

	dup := &models.Order{UserID: u.ID, OutTradeNo: "20260829001", Subject: "dup", TotalAmount: dec("1")}
	require.ErrorIs(t, repo.Create(dup), domain.ErrConflict)

	got, err := repo.GetByOutTradeNo("20260829001")
	require.NoError(t, err)
	require.Equal(t, o.ID, got.ID)

	_, err = repo.GetByOutTradeNo("missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderMarkPaidIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := NewOrderRepository(db)
	u := createUser(t, db, "bob")
	o := createOrder(t, db, u.ID, "20260829002")

	paidAt := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	paid, err := repo.MarkPaid(o.OutTradeNo, "ALI123", dec("10"), paidAt)
	require.NoError(t, err)
	require.Equal(t, domain.OrderPaid, paid.Status)
	require.NotNil(t, paid.TradeNo)
	require.Equal(t, "ALI123", *paid.TradeNo)
	require.True(t, paid.PaidAmount.Equal(dec("10")))

	// Replayed notification: same record back, nothing rewritten.
	again, err := repo.MarkPaid(o.OutTradeNo, "ALI999", dec("99"), paidAt.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, "ALI123", *again.TradeNo)
	require.True(t, again.PaidAmount.Equal(dec("10")))
}

func TestOrderMarkPaidInvalidTransitions(t *testing.T) {
	db := setupDB(t)
	repo := NewOrderRepository(db)
	u := createUser(t, db, "carol")
	o := createOrder(t, db, u.ID, "20260829003")

	_, err := repo.Cancel(o.OutTradeNo)
	require.NoError(t, err)

	_, err = repo.MarkPaid(o.OutTradeNo, "ALI123", dec("10"), time.Now())
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = repo.MarkPaid("missing", "ALI123", dec("10"), time.Now())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderAwardPointsOnce(t *testing.T) {
	db := setupDB(t)
	repo := NewOrderRepository(db)
	ledger := NewLedgerRepository(db)
	u := createUser(t, db, "dave")
	o := createOrder(t, db, u.ID, "20260829004")

	// Not paid yet: no award.
	_, _, err := repo.AwardPoints(o.ID, dec("100"))
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = repo.MarkPaid(o.OutTradeNo, "ALI456", dec("10"), time.Now())
	require.NoError(t, err)

	awarded, ptx, err := repo.AwardPoints(o.ID, dec("100"))
	require.NoError(t, err)
	require.True(t, awarded.PointsAwarded.Equal(dec("100")))
	require.Equal(t, domain.TxPaymentReward, ptx.TransactionType)
	require.Equal(t, o.OutTradeNo, ptx.ReferenceID)
	require.True(t, ptx.Amount.Equal(dec("100")))

	balance, err := ledger.GetBalance(u.ID)
	require.NoError(t, err)
	require.True(t, balance.Equal(dec("100")))

	// Second award is a no-op.
	_, _, err = repo.AwardPoints(o.ID, dec("100"))
	require.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	balance, err = ledger.GetBalance(u.ID)
	require.NoError(t, err)
	require.True(t, balance.Equal(dec("100")))

	var count int64
	require.NoError(t, db.Model(&models.PointTransaction{}).
		Where("user_id = ? AND transaction_type = ?", u.ID, domain.TxPaymentReward).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestOrderStatusTransitions(t *testing.T) {
	db := setupDB(t)
	repo := NewOrderRepository(db)
	u := createUser(t, db, "erin")

	o := createOrder(t, db, u.ID, "20260829005")
	cancelled, err := repo.Cancel(o.OutTradeNo)
	require.NoError(t, err)
	require.Equal(t, domain.OrderCancelled, cancelled.Status)

	// Cancel again: idempotent.
	cancelled, err = repo.Cancel(o.OutTradeNo)
	require.NoError(t, err)
	require.Equal(t, domain.OrderCancelled, cancelled.Status)

	o2 := createOrder(t, db, u.ID, "20260829006")
	_, err = repo.MarkPaid(o2.OutTradeNo, "ALI789", dec("10"), time.Now())
	require.NoError(t, err)

	// Refund only applies to paid orders.
	_, err = repo.MarkRefunded(o.OutTradeNo)
	require.ErrorIs(t, err, domain.ErrValidation)
	refunded, err := repo.MarkRefunded(o2.OutTradeNo)
	require.NoError(t, err)
	require.Equal(t, domain.OrderRefunded, refunded.Status)

	closed, err := repo.Close(o.OutTradeNo)
	require.NoError(t, err)
	require.Equal(t, domain.OrderClosed, closed.Status)
}

func TestOrderListByUser(t *testing.T) {
	db := setupDB(t)
	repo := NewOrderRepository(db)
	u := createUser(t, db, "frank")
	other := createUser(t, db, "grace")

	createOrder(t, db, u.ID, "20260829007")
	createOrder(t, db, u.ID, "20260829008")
	createOrder(t, db, other.ID, "20260829009")

	orders, total, err := repo.ListByUser(u.ID, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, orders, 2)
	require.Equal(t, "20260829008", orders[0].OutTradeNo)
}
