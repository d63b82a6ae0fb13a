package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"dream/config"
	"dream/pkg/codestore"

	"go.uber.org/zap"
)

var (
	ErrCodeResendTooSoon = errors.New("verification code requested too recently")
	ErrCodeInvalid       = errors.New("verification code invalid or expired")
)

// Verification actions. Codes are namespaced per action, so a login code
// cannot be replayed to bind a phone.
const (
	ActionRegister      = "register"
	ActionLogin         = "login"
	ActionResetPassword = "reset_password"
	ActionBindPhone     = "bind_phone"
)

// CodeSender delivers a verification code over email or SMS; the channel is
// opaque to this service.
type CodeSender interface {
	Send(destination, code string) error
}

// VerificationService issues and checks short-lived verification codes
// against a TTL key-value store.
type VerificationService struct {
	cfg    *config.VerificationConfig
	store  codestore.Store
	sender CodeSender
}

func NewVerificationService(cfg *config.VerificationConfig, store codestore.Store, sender CodeSender) *VerificationService {
	return &VerificationService{cfg: cfg, store: store, sender: sender}
}

// SendCode generates a 6-digit code, stores it under destination+action and
// delivers it. A resend within the resend interval is rejected.
func (s *VerificationService) SendCode(destination, action string) error {
	resendKey := resendKey(destination, action)
	if _, held := s.store.Get(resendKey); held {
		return ErrCodeResendTooSoon
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.sender.Send(destination, code); err != nil {
		return err
	}
	s.store.Set(codeKey(destination, action), code, s.cfg.CodeTTL)
	s.store.Set(resendKey, "1", s.cfg.ResendInterval)
	zap.L().Info("verification code sent",
		zap.String("destination", destination),
		zap.String("action", action))
	return nil
}

// VerifyCode checks and consumes a code; a code can be used once.
func (s *VerificationService) VerifyCode(destination, action, code string) error {
	key := codeKey(destination, action)
	stored, ok := s.store.Get(key)
	if !ok || stored != code {
		return ErrCodeInvalid
	}
	s.store.Delete(key)
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func codeKey(destination, action string) string {
	return "verify:" + action + ":" + destination
}

func resendKey(destination, action string) string {
	return "verify_resend:" + action + ":" + destination
}

// LogSender logs codes instead of delivering them; development default.
type LogSender struct{}

func (LogSender) Send(destination, code string) error {
	zap.L().Info("verification code (log sender)",
		zap.String("destination", destination),
		zap.String("code", code))
	return nil
}
