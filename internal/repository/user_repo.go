package repository

import (
	"errors"
	"time"

	"dream/internal/domain"
	"dream/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByPhone(phone string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("phone = ?", phone).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Partial updates are explicit per field; there is no generic
// "update these columns" method.

func (r *UserRepository) UpdateRefreshToken(userID uint, token string, expiresAt, lastActive time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"refresh_token":            token,
		"refresh_token_expires_at": expiresAt,
		"last_active_at":           lastActive,
	}).Error
}

func (r *UserRepository) UpdateRefreshTokenExpiry(userID uint, expiresAt time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("refresh_token_expires_at", expiresAt).Error
}

func (r *UserRepository) ClearRefreshToken(userID uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"refresh_token":            nil,
		"refresh_token_expires_at": nil,
	}).Error
}

func (r *UserRepository) TouchLastActive(userID uint, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("last_active_at", at).Error
}

func (r *UserRepository) UpdatePasswordHash(userID uint, hash string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("password_hash", hash).Error
}

func (r *UserRepository) UpdatePhone(userID uint, phone string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("phone", phone).Error
}

func (r *UserRepository) UpdateProfile(userID uint, fullName, avatar string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"full_name": fullName,
		"avatar":    avatar,
	}).Error
}

func (r *UserRepository) SetActive(userID uint, active bool) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("is_active", active).Error
}

func (r *UserRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("id").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}
