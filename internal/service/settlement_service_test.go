package service

import (
	"testing"

	"dream/internal/domain"
	"dream/internal/models"
	"dream/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testAppID = "2021000000000000"

// staticVerifier accepts or rejects every notification.
type staticVerifier bool

func (v staticVerifier) VerifyNotify(map[string]string) bool { return bool(v) }

func notifyParams(outTradeNo string) map[string]string {
	return map[string]string{
		"notify_time":  "2026-08-29 12:00:00",
		"notify_type":  domain.NotifyTypeTradeStatusSync,
		"notify_id":    "notify-1",
		"app_id":       testAppID,
		"trade_no":     "ALI20260829",
		"out_trade_no": outTradeNo,
		"trade_status": domain.TradeSuccess,
		"total_amount": "10.00",
		"gmt_payment":  "2026-08-29 11:59:58",
		"sign":         "sig",
		"sign_type":    "RSA2",
	}
}

func setupSettlement(t *testing.T, verifier NotifyVerifier) (*SettlementService, *gorm.DB, *models.User, *models.Order) {
	t.Helper()
	db := setupDB(t)
	orders := repository.NewOrderRepository(db)
	u := createUser(t, db, "payer")
	o := &models.Order{
		UserID:      u.ID,
		OutTradeNo:  "20260829T001",
		Subject:     "100 points pack",
		TotalAmount: decimal.RequireFromString("10"),
		PointsRate:  decimal.RequireFromString("10"),
	}
	require.NoError(t, orders.Create(o))
	return NewSettlementService(testAppID, verifier, orders), db, u, o
}

func TestHandleNotifySettlesOrder(t *testing.T) {
	svc, db, u, o := setupSettlement(t, staticVerifier(true))

	body := svc.HandleNotify(notifyParams(o.OutTradeNo))
	require.Equal(t, "success", body)

	var order models.Order
	require.NoError(t, db.First(&order, o.ID).Error)
	require.Equal(t, domain.OrderPaid, order.Status)
	require.NotNil(t, order.TradeNo)
	require.Equal(t, "ALI20260829", *order.TradeNo)
	require.True(t, order.PaidAmount.Equal(decimal.RequireFromString("10.00")))
	require.True(t, order.PointsAwarded.Equal(decimal.RequireFromString("100")))
	require.NotNil(t, order.PaymentTime)

	var user models.User
	require.NoError(t, db.First(&user, u.ID).Error)
	require.True(t, user.PointsBalance.Equal(decimal.RequireFromString("100")))

	var tx models.PointTransaction
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&tx).Error)
	require.Equal(t, domain.TxPaymentReward, tx.TransactionType)
	require.Equal(t, o.OutTradeNo, tx.ReferenceID)
}

func TestHandleNotifyDuplicateDelivery(t *testing.T) {
	svc, db, u, o := setupSettlement(t, staticVerifier(true))

	require.Equal(t, "success", svc.HandleNotify(notifyParams(o.OutTradeNo)))
	// Gateway retries until it sees success; the retry must be a no-op.
	require.Equal(t, "success", svc.HandleNotify(notifyParams(o.OutTradeNo)))

	var user models.User
	require.NoError(t, db.First(&user, u.ID).Error)
	require.True(t, user.PointsBalance.Equal(decimal.RequireFromString("100")))

	var count int64
	require.NoError(t, db.Model(&models.PointTransaction{}).Where("user_id = ?", u.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestHandleNotifyRejections(t *testing.T) {
	svc, db, u, o := setupSettlement(t, staticVerifier(true))

	missing := notifyParams(o.OutTradeNo)
	delete(missing, "trade_no")
	require.Equal(t, "fail", svc.HandleNotify(missing))

	wrongApp := notifyParams(o.OutTradeNo)
	wrongApp["app_id"] = "other-app"
	require.Equal(t, "fail", svc.HandleNotify(wrongApp))

	wrongType := notifyParams(o.OutTradeNo)
	wrongType["notify_type"] = "servyou_agreement_sync"
	require.Equal(t, "fail", svc.HandleNotify(wrongType))

	unknownOrder := notifyParams("no-such-order")
	require.Equal(t, "fail", svc.HandleNotify(unknownOrder))

	badAmount := notifyParams(o.OutTradeNo)
	badAmount["total_amount"] = "-3"
	require.Equal(t, "fail", svc.HandleNotify(badAmount))

	// None of the rejects may have touched the order or the ledger.
	var order models.Order
	require.NoError(t, db.First(&order, o.ID).Error)
	require.Equal(t, domain.OrderPending, order.Status)
	var count int64
	require.NoError(t, db.Model(&models.PointTransaction{}).Where("user_id = ?", u.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestHandleNotifyBadSignature(t *testing.T) {
	svc, db, _, o := setupSettlement(t, staticVerifier(false))

	require.ErrorIs(t, svc.validate(notifyParams(o.OutTradeNo)), domain.ErrSignatureInvalid)
	require.Equal(t, "fail", svc.HandleNotify(notifyParams(o.OutTradeNo)))

	var order models.Order
	require.NoError(t, db.First(&order, o.ID).Error)
	require.Equal(t, domain.OrderPending, order.Status)
}

func TestHandleNotifyNonSuccessStatuses(t *testing.T) {
	svc, db, u, o := setupSettlement(t, staticVerifier(true))

	closed := notifyParams(o.OutTradeNo)
	closed["trade_status"] = domain.TradeClosed
	require.Equal(t, "success", svc.HandleNotify(closed))

	pending := notifyParams(o.OutTradeNo)
	pending["trade_status"] = "WAIT_BUYER_PAY"
	require.Equal(t, "success", svc.HandleNotify(pending))

	// Acknowledged but not settled.
	var order models.Order
	require.NoError(t, db.First(&order, o.ID).Error)
	require.Equal(t, domain.OrderPending, order.Status)
	var count int64
	require.NoError(t, db.Model(&models.PointTransaction{}).Where("user_id = ?", u.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)
}
