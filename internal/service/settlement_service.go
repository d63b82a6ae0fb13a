package service

import (
	"errors"
	"fmt"
	"time"

	"dream/internal/domain"
	"dream/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Gateway-mandated response bodies; reproduced bit-for-bit.
const (
	NotifyAck    = "success"
	NotifyReject = "fail"
)

var notifyRequiredParams = []string{
	"notify_time", "notify_type", "notify_id", "app_id",
	"trade_no", "out_trade_no", "trade_status", "total_amount", "sign",
}

// NotifyVerifier abstracts the gateway's signature check so the coordinator
// never touches key material.
type NotifyVerifier interface {
	VerifyNotify(params map[string]string) bool
}

// SettlementService turns asynchronous gateway notifications into order
// transitions and ledger credits. Delivery is at-least-once; idempotent
// MarkPaid/AwardPoints make replays harmless, no external deduplication.
type SettlementService struct {
	appID    string
	verifier NotifyVerifier
	orders   *repository.OrderRepository
}

func NewSettlementService(appID string, verifier NotifyVerifier, orders *repository.OrderRepository) *SettlementService {
	return &SettlementService{appID: appID, verifier: verifier, orders: orders}
}

// HandleNotify processes one notification and returns the exact response body
// for the gateway. Any validation, signature or processing failure answers
// NotifyReject so the gateway retries; nothing is retried internally.
func (s *SettlementService) HandleNotify(params map[string]string) string {
	if err := s.validate(params); err != nil {
		zap.L().Warn("notification rejected",
			zap.String("out_trade_no", params["out_trade_no"]),
			zap.Error(err))
		return NotifyReject
	}

	outTradeNo := params["out_trade_no"]
	tradeStatus := params["trade_status"]

	switch tradeStatus {
	case domain.TradeSuccess:
		if err := s.settle(outTradeNo, params["trade_no"], params["total_amount"], params["gmt_payment"]); err != nil {
			zap.L().Error("settlement failed",
				zap.String("out_trade_no", outTradeNo), zap.Error(err))
			return NotifyReject
		}
		return NotifyAck
	case domain.TradeFinished, domain.TradeClosed:
		// Bookkeeping only; no ledger effect. Extension point for refund/close
		// settlement.
		zap.L().Info("trade status noted",
			zap.String("out_trade_no", outTradeNo),
			zap.String("trade_status", tradeStatus))
		return NotifyAck
	default:
		zap.L().Warn("unhandled trade status, acknowledging",
			zap.String("out_trade_no", outTradeNo),
			zap.String("trade_status", tradeStatus))
		return NotifyAck
	}
}

// validate enforces the notification contract before anything touches state:
// required fields, app_id, notify_type, then the RSA2 signature.
func (s *SettlementService) validate(params map[string]string) error {
	for _, key := range notifyRequiredParams {
		if params[key] == "" {
			return fmt.Errorf("%w: missing %s", domain.ErrValidation, key)
		}
	}
	if params["app_id"] != s.appID {
		return fmt.Errorf("%w: app_id %s", domain.ErrValidation, params["app_id"])
	}
	if params["notify_type"] != domain.NotifyTypeTradeStatusSync {
		return fmt.Errorf("%w: notify_type %s", domain.ErrValidation, params["notify_type"])
	}
	if !s.verifier.VerifyNotify(params) {
		return domain.ErrSignatureInvalid
	}
	return nil
}

func (s *SettlementService) settle(outTradeNo, tradeNo, totalAmount, gmtPayment string) error {
	amount, err := decimal.NewFromString(totalAmount)
	if err != nil || !amount.IsPositive() {
		return domain.ErrValidation
	}
	paymentTime := time.Now()
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", gmtPayment, time.Local); err == nil {
		paymentTime = t
	}

	order, err := s.orders.MarkPaid(outTradeNo, tradeNo, amount, paymentTime)
	if err != nil {
		return err
	}

	reward := amount.Mul(order.PointsRate)
	_, ptx, err := s.orders.AwardPoints(order.ID, reward)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		zap.L().Info("points already awarded, skipping",
			zap.String("out_trade_no", outTradeNo))
		return nil
	}
	if err != nil {
		return err
	}
	zap.L().Info("order settled",
		zap.String("out_trade_no", outTradeNo),
		zap.String("trade_no", tradeNo),
		zap.String("paid_amount", amount.String()),
		zap.String("points_awarded", reward.String()),
		zap.Uint("transaction_id", ptx.ID))
	return nil
}
