package service

import (
	"time"

	"dream/config"
	"dream/internal/auth"
	"dream/internal/domain"
	"dream/internal/models"
	"dream/internal/repository"

	"go.uber.org/zap"
)

// TokenService owns the dual-token lifecycle. The raw refresh token is
// persisted on the user row, so a user has at most one live refresh token and
// a new login invalidates the previous device's.
type TokenService struct {
	cfg      *config.JWTConfig
	userRepo *repository.UserRepository
}

func NewTokenService(cfg *config.JWTConfig, userRepo *repository.UserRepository) *TokenService {
	return &TokenService{cfg: cfg, userRepo: userRepo}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// IssueTokenPair creates an access/refresh pair and stores the raw refresh
// token plus its expiry on the user record, overwriting any prior value.
func (s *TokenService) IssueTokenPair(user *models.User) (*TokenPair, error) {
	access, err := auth.GenerateAccessToken(s.cfg, user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.GenerateRefreshToken(s.cfg, user.ID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	expiresAt := now.Add(s.cfg.RefreshExpiry)
	if err := s.userRepo.UpdateRefreshToken(user.ID, refresh, expiresAt, now); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.cfg.AccessExpiry.Seconds()),
	}, nil
}

func (s *TokenService) VerifyAccess(token string) (*auth.Claims, error) {
	return auth.ParseAccessToken(s.cfg, token)
}

// VerifyRefresh checks signature and type, then requires the presented token
// to byte-equal the persisted one. A mismatch covers both forgery and
// invalidation by a newer login.
func (s *TokenService) VerifyRefresh(token string) (*models.User, error) {
	claims, err := auth.ParseRefreshToken(s.cfg, token)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	if u.RefreshToken == nil || *u.RefreshToken != token {
		return nil, domain.ErrTokenInvalid
	}
	if u.RefreshTokenExpiresAt != nil && u.RefreshTokenExpiresAt.Before(time.Now()) {
		return nil, domain.ErrTokenExpired
	}
	return u, nil
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Refresh issues a new access token. When the stored refresh expiry is inside
// the sliding window it is extended to a full new period; the refresh token
// value itself is never rotated here.
func (s *TokenService) Refresh(rawRefreshToken string) (*AccessToken, error) {
	u, err := s.VerifyRefresh(rawRefreshToken)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if u.RefreshTokenExpiresAt != nil && u.RefreshTokenExpiresAt.Sub(now) <= s.cfg.SlidingWindow {
		newExpiry := now.Add(s.cfg.RefreshExpiry)
		if err := s.userRepo.UpdateRefreshTokenExpiry(u.ID, newExpiry); err != nil {
			return nil, err
		}
		zap.L().Info("refresh token expiry extended",
			zap.Uint("user_id", u.ID),
			zap.Time("new_expiry", newExpiry))
	}
	if err := s.userRepo.TouchLastActive(u.ID, now); err != nil {
		return nil, err
	}

	access, err := auth.GenerateAccessToken(s.cfg, u.ID)
	if err != nil {
		return nil, err
	}
	return &AccessToken{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.cfg.AccessExpiry.Seconds()),
	}, nil
}
