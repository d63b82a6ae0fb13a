package service

import (
	"errors"
	"strings"

	"dream/config"
	"dream/internal/domain"
	"dream/internal/models"
	"dream/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameExists = errors.New("username already taken")
	ErrEmailExists    = errors.New("email already registered")
	ErrInvalidCreds   = errors.New("invalid username or password")
	ErrUserDisabled   = errors.New("account disabled")
)

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
	ledger   *repository.LedgerRepository
	tokens   *TokenService
	verify   *VerificationService
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, ledger *repository.LedgerRepository, tokens *TokenService, verify *VerificationService) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, ledger: ledger, tokens: tokens, verify: verify}
}

// Register creates the user, credits the registration bonus and issues a
// token pair. The bonus failing does not fail registration.
func (s *AuthService) Register(username, email, password, fullName string) (*models.User, *TokenPair, error) {
	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil, nil, ErrUsernameExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, nil, ErrEmailExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	u := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		IsActive:     true,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, nil, err
	}

	if s.cfg.Points.RegisterBonus.IsPositive() {
		if _, err := s.ledger.Credit(u.ID, s.cfg.Points.RegisterBonus, domain.TxRegister, "registration bonus", ""); err != nil {
			zap.L().Error("register bonus credit failed", zap.Uint("user_id", u.ID), zap.Error(err))
		}
	}

	pair, err := s.tokens.IssueTokenPair(u)
	if err != nil {
		return u, nil, err
	}
	return u, pair, nil
}

// Login authenticates by username, falling back to email when the identifier
// contains an '@'.
func (s *AuthService) Login(identifier, password string) (*models.User, *TokenPair, error) {
	u, err := s.userRepo.GetByUsername(identifier)
	if errors.Is(err, domain.ErrNotFound) && strings.Contains(identifier, "@") {
		u, err = s.userRepo.GetByEmail(identifier)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, ErrInvalidCreds
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCreds
	}
	if !u.IsActive {
		return nil, nil, ErrUserDisabled
	}
	pair, err := s.tokens.IssueTokenPair(u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// LoginWithCode authenticates with a verification code delivered to the
// user's email or bound phone, no password involved. The code must have been
// requested for the login action.
func (s *AuthService) LoginWithCode(destination, code string) (*models.User, *TokenPair, error) {
	if err := s.verify.VerifyCode(destination, ActionLogin, code); err != nil {
		return nil, nil, err
	}
	var u *models.User
	var err error
	if strings.Contains(destination, "@") {
		u, err = s.userRepo.GetByEmail(destination)
	} else {
		u, err = s.userRepo.GetByPhone(destination)
	}
	if err != nil {
		return nil, nil, err
	}
	if !u.IsActive {
		return nil, nil, ErrUserDisabled
	}
	pair, err := s.tokens.IssueTokenPair(u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// BindPhone attaches a verified phone number to the account, enabling SMS
// code login for it.
func (s *AuthService) BindPhone(userID uint, phone, code string) error {
	if err := s.verify.VerifyCode(phone, ActionBindPhone, code); err != nil {
		return err
	}
	if existing, err := s.userRepo.GetByPhone(phone); err == nil {
		if existing.ID == userID {
			return nil
		}
		return domain.ErrConflict
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return s.userRepo.UpdatePhone(userID, phone)
}

func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePasswordHash(userID, string(hash))
}

// Logout clears the stored refresh token so it can no longer be redeemed.
func (s *AuthService) Logout(userID uint) error {
	return s.userRepo.ClearRefreshToken(userID)
}
