package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Username     string  `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string  `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash string  `gorm:"size:255;not null" json:"-"`
	FullName     string  `gorm:"size:100" json:"full_name"`
	Phone        *string `gorm:"uniqueIndex;size:20" json:"phone"` // nil when not bound (avoids duplicate '' on unique index)
	Avatar       string  `gorm:"type:text" json:"avatar"`
	IsActive     bool    `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser  bool    `gorm:"not null;default:false" json:"is_superuser"`

	// Points ledger summary. PointsBalance always equals the balance_after of
	// the user's newest point transaction.
	PointsBalance     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"points_balance"`
	TotalPointsEarned decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_points_earned"`
	TotalPointsSpent  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_points_spent"`

	// Single live refresh token; a new login overwrites the previous one.
	RefreshToken          *string    `gorm:"type:text" json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`
	LastActiveAt          *time.Time `json:"last_active_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
