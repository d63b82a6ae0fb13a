package repository

import (
	"errors"
	"strings"
	"time"

	"dream/internal/domain"
	"dream/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderRepository owns order records and their status transitions. MarkPaid
// and AwardPoints are idempotent so replayed gateway notifications cannot
// double-award.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	if _, err := r.GetByOutTradeNo(o.OutTradeNo); err == nil {
		return domain.ErrConflict
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	if err := r.db.Create(o).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByOutTradeNo(outTradeNo string) (*models.Order, error) {
	var o models.Order
	if err := r.db.Where("out_trade_no = ?", outTradeNo).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByUser(userID uint, page, pageSize int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	var orders []models.Order
	var total int64
	q := r.db.Model(&models.Order{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&orders).Error
	return orders, total, err
}

// MarkPaid transitions pending → paid. Re-delivery for an already paid order
// returns the existing record unchanged; any other status is an invalid
// transition.
func (r *OrderRepository) MarkPaid(outTradeNo, tradeNo string, paidAmount decimal.Decimal, paymentTime time.Time) (*models.Order, error) {
	res := r.db.Model(&models.Order{}).
		Where("out_trade_no = ? AND status = ?", outTradeNo, domain.OrderPending).
		Updates(map[string]interface{}{
			"status":       domain.OrderPaid,
			"trade_no":     tradeNo,
			"paid_amount":  paidAmount,
			"payment_time": paymentTime,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	o, err := r.GetByOutTradeNo(outTradeNo)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		if o.Status == domain.OrderPaid {
			return o, nil
		}
		return nil, domain.ErrValidation
	}
	return o, nil
}

// AwardPoints credits the payment reward exactly once. The points_awarded
// guard and the ledger credit commit in the same transaction; a replay
// reports ErrAlreadyProcessed with no ledger effect.
func (r *OrderRepository) AwardPoints(orderID uint, points decimal.Decimal) (*models.Order, *models.PointTransaction, error) {
	if !points.IsPositive() {
		return nil, nil, domain.ErrValidation
	}
	var order *models.Order
	var ptx *models.PointTransaction
	var err error
	for attempt := 0; attempt < casAttempts; attempt++ {
		err = r.db.Transaction(func(tx *gorm.DB) error {
			var o models.Order
			if e := tx.First(&o, orderID).Error; e != nil {
				if errors.Is(e, gorm.ErrRecordNotFound) {
					return domain.ErrNotFound
				}
				return e
			}
			if o.PointsAwarded.IsPositive() {
				return domain.ErrAlreadyProcessed
			}
			if o.Status != domain.OrderPaid {
				return domain.ErrValidation
			}
			res := tx.Model(&models.Order{}).
				Where("id = ? AND points_awarded = 0", orderID).
				Update("points_awarded", points)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrAlreadyProcessed
			}
			var e error
			ptx, e = applyMutation(tx, o.UserID, points, domain.TxPaymentReward, "payment reward: "+o.Subject, o.OutTradeNo)
			if e != nil {
				return e
			}
			o.PointsAwarded = points
			order = &o
			return nil
		})
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			break
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return order, ptx, nil
}

// Cancel transitions pending → cancelled.
func (r *OrderRepository) Cancel(outTradeNo string) (*models.Order, error) {
	return r.transition(outTradeNo, []string{domain.OrderPending}, domain.OrderCancelled)
}

// MarkRefunded transitions paid → refunded. Refund settlement itself is an
// extension point; only the status bookkeeping lives here.
func (r *OrderRepository) MarkRefunded(outTradeNo string) (*models.Order, error) {
	return r.transition(outTradeNo, []string{domain.OrderPaid}, domain.OrderRefunded)
}

// Close transitions any non-closed order to closed.
func (r *OrderRepository) Close(outTradeNo string) (*models.Order, error) {
	return r.transition(outTradeNo, []string{
		domain.OrderPending, domain.OrderPaid, domain.OrderCancelled, domain.OrderRefunded,
	}, domain.OrderClosed)
}

func (r *OrderRepository) transition(outTradeNo string, from []string, to string) (*models.Order, error) {
	res := r.db.Model(&models.Order{}).
		Where("out_trade_no = ? AND status IN ?", outTradeNo, from).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	o, err := r.GetByOutTradeNo(outTradeNo)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		if o.Status == to {
			return o, nil
		}
		return nil, domain.ErrValidation
	}
	return o, nil
}
