package repository

import (
	"errors"
	"strconv"

	"dream/internal/domain"
	"dream/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerRepository owns every points balance mutation. Each mutation runs as
// one database transaction: a compare-and-swap on points_balance serializes
// concurrent writers on the same user row, and the immutable transaction row
// is inserted in the same unit so the audit trail can never drift from the
// balance.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// casAttempts bounds the retries after a lost compare-and-swap race.
const casAttempts = 3

func (r *LedgerRepository) Credit(userID uint, amount decimal.Decimal, txType, description, referenceID string) (*models.PointTransaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrValidation
	}
	return r.mutate(userID, amount, txType, description, referenceID)
}

func (r *LedgerRepository) Debit(userID uint, amount decimal.Decimal, txType, description, referenceID string) (*models.PointTransaction, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrValidation
	}
	return r.mutate(userID, amount.Neg(), txType, description, referenceID)
}

// Transfer moves points between two users in a single database transaction.
// A failure on the credit leg rolls the debit back, so the operation either
// fully succeeds or leaves both balances unchanged.
func (r *LedgerRepository) Transfer(fromUserID, toUserID uint, amount decimal.Decimal, description string) (*models.PointTransaction, *models.PointTransaction, error) {
	if !amount.IsPositive() {
		return nil, nil, domain.ErrValidation
	}
	if fromUserID == toUserID {
		return nil, nil, domain.ErrValidation
	}
	var debitTx, creditTx *models.PointTransaction
	var err error
	for attempt := 0; attempt < casAttempts; attempt++ {
		err = r.db.Transaction(func(tx *gorm.DB) error {
			var e error
			debitTx, e = applyMutation(tx, fromUserID, amount.Neg(), domain.TxGift, description, "")
			if e != nil {
				return e
			}
			creditTx, e = applyMutation(tx, toUserID, amount, domain.TxGift, description, strconv.FormatUint(uint64(debitTx.ID), 10))
			return e
		})
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			break
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return debitTx, creditTx, nil
}

func (r *LedgerRepository) GetBalance(userID uint) (decimal.Decimal, error) {
	var u models.User
	if err := r.db.Select("points_balance").First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, domain.ErrNotFound
		}
		return decimal.Zero, err
	}
	return u.PointsBalance, nil
}

func (r *LedgerRepository) ListTransactions(userID uint, page, pageSize int) ([]models.PointTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	var txs []models.PointTransaction
	var total int64
	q := r.db.Model(&models.PointTransaction{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&txs).Error
	return txs, total, err
}

// ListAllTransactions pages over every user's transactions (admin view).
func (r *LedgerRepository) ListAllTransactions(offset, limit int) ([]models.PointTransaction, error) {
	var txs []models.PointTransaction
	err := r.db.Order("id desc").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, err
}

func (r *LedgerRepository) mutate(userID uint, delta decimal.Decimal, txType, description, referenceID string) (*models.PointTransaction, error) {
	var ptx *models.PointTransaction
	var err error
	for attempt := 0; attempt < casAttempts; attempt++ {
		err = r.db.Transaction(func(tx *gorm.DB) error {
			var e error
			ptx, e = applyMutation(tx, userID, delta, txType, description, referenceID)
			return e
		})
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return ptx, nil
}

// applyMutation performs one read-modify-write inside the caller's
// transaction. The UPDATE is guarded by the balance read at the start; a lost
// race affects zero rows and surfaces as ErrConcurrentUpdate so the whole
// transaction rolls back and can be retried.
func applyMutation(tx *gorm.DB, userID uint, delta decimal.Decimal, txType, description, referenceID string) (*models.PointTransaction, error) {
	var u models.User
	if err := tx.First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	before := u.PointsBalance
	after := before.Add(delta)
	if after.IsNegative() {
		return nil, domain.ErrInsufficientBalance
	}

	updates := map[string]interface{}{"points_balance": after}
	if delta.IsPositive() {
		updates["total_points_earned"] = u.TotalPointsEarned.Add(delta)
	} else {
		updates["total_points_spent"] = u.TotalPointsSpent.Add(delta.Neg())
	}

	res := tx.Model(&models.User{}).
		Where("id = ? AND points_balance = ?", userID, before).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrConcurrentUpdate
	}

	ptx := &models.PointTransaction{
		UserID:          userID,
		TransactionType: txType,
		Amount:          delta,
		BalanceBefore:   before,
		BalanceAfter:    after,
		Description:     description,
		ReferenceID:     referenceID,
	}
	if err := tx.Create(ptx).Error; err != nil {
		return nil, err
	}
	return ptx, nil
}
