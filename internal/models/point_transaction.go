package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PointTransaction is the append-only audit trail of every balance mutation.
// Rows are never updated or deleted after creation.
type PointTransaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	TransactionType string          `gorm:"size:30;not null;index" json:"transaction_type"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"` // positive = credit, negative = debit
	BalanceBefore   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_before"`
	BalanceAfter    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_after"`
	Description     string          `gorm:"size:255" json:"description"`
	ReferenceID     string          `gorm:"size:128;index" json:"reference_id"` // order out_trade_no or reversed tx id
	CreatedAt       time.Time       `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (PointTransaction) TableName() string {
	return "point_transactions"
}
