package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	UserID     uint    `gorm:"not null;index" json:"user_id"`
	OutTradeNo string  `gorm:"uniqueIndex;size:64;not null" json:"out_trade_no"` // merchant order number
	TradeNo    *string `gorm:"size:64" json:"trade_no"`                          // gateway trade number, nil until paid
	Subject    string  `gorm:"size:255;not null" json:"subject"`
	Body       string  `gorm:"size:255" json:"body"`

	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status      string          `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	PaymentTime *time.Time      `json:"payment_time"`

	// PointsAwarded flips from zero exactly once; a non-zero value implies
	// status == paid and one payment_reward transaction referencing OutTradeNo.
	PointsAwarded decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"points_awarded"`
	PointsRate    decimal.Decimal `gorm:"type:decimal(8,2);not null;default:10" json:"points_rate"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}
