package service

import (
	"context"
	"fmt"
	"strconv"

	"dream/config"
	"dream/internal/domain"
	"dream/internal/models"
	"dream/internal/repository"
	"dream/pkg/provider"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GenerationService wraps points-costing calls to external providers with
// debit-then-execute-then-refund-on-failure semantics. Debit and refund are
// separate commits, not a two-phase commit: a crash between them leaves the
// user under-credited, and a failed refund is logged as an unresolved
// discrepancy rather than retried.
type GenerationService struct {
	points *config.PointsConfig
	ledger *repository.LedgerRepository
	image  provider.ImageProvider
	chat   provider.ChatProvider
}

func NewGenerationService(points *config.PointsConfig, ledger *repository.LedgerRepository, image provider.ImageProvider, chat provider.ChatProvider) *GenerationService {
	return &GenerationService{points: points, ledger: ledger, image: image, chat: chat}
}

type GenerationResult struct {
	ImageURL        string          `json:"image_url"`
	PointsSpent     decimal.Decimal `json:"points_spent"`
	PointsRemaining decimal.Decimal `json:"points_remaining"`
}

func (s *GenerationService) GenerateImage(ctx context.Context, userID uint, req provider.ImageRequest) (*GenerationResult, error) {
	cost := s.points.ImageGenerationCost
	desc := "image generation: " + truncate(req.Prompt, 50)

	debitTx, err := s.debit(userID, cost, domain.TxImageGeneration, desc)
	if err != nil {
		return nil, err
	}

	url, err := s.image.GenerateImage(ctx, req)
	if err != nil {
		s.refund(userID, cost, debitTx, "image generation refund: "+truncate(req.Prompt, 50))
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}

	return &GenerationResult{
		ImageURL:        url,
		PointsSpent:     cost,
		PointsRemaining: debitTx.BalanceAfter,
	}, nil
}

func (s *GenerationService) ChatComplete(ctx context.Context, userID uint, messages []provider.Message) (string, error) {
	cost := s.points.ChatCost
	debitTx, err := s.debit(userID, cost, domain.TxChat, "chat completion")
	if err != nil {
		return "", err
	}

	content, err := s.chat.Complete(ctx, messages)
	if err != nil {
		s.refund(userID, cost, debitTx, "chat refund")
		return "", fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	return content, nil
}

// ChatStream debits, then forwards streamed chunks to write. A provider error
// at any point, including mid-stream, refunds the debit. A write failure is a
// client disconnect: the provider delivered, so the debit stands.
func (s *GenerationService) ChatStream(ctx context.Context, userID uint, messages []provider.Message, write func(string) error) error {
	cost := s.points.ChatCost
	debitTx, err := s.debit(userID, cost, domain.TxChat, "chat completion")
	if err != nil {
		return err
	}

	ch, err := s.chat.Stream(ctx, messages)
	if err != nil {
		s.refund(userID, cost, debitTx, "chat refund")
		return fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	for chunk := range ch {
		if chunk.Err != nil {
			s.refund(userID, cost, debitTx, "chat refund")
			return fmt.Errorf("%w: %v", domain.ErrExternalService, chunk.Err)
		}
		if err := write(chunk.Content); err != nil {
			return err
		}
	}
	return nil
}

func (s *GenerationService) debit(userID uint, cost decimal.Decimal, txType, desc string) (*models.PointTransaction, error) {
	balance, err := s.ledger.GetBalance(userID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(cost) {
		return nil, domain.ErrInsufficientBalance
	}
	return s.ledger.Debit(userID, cost, txType, desc, "")
}

func (s *GenerationService) refund(userID uint, cost decimal.Decimal, debitTx *models.PointTransaction, desc string) {
	ref := strconv.FormatUint(uint64(debitTx.ID), 10)
	if _, err := s.ledger.Credit(userID, cost, domain.TxRefund, desc, ref); err != nil {
		zap.L().Error("refund failed, unresolved discrepancy",
			zap.Uint("user_id", userID),
			zap.String("amount", cost.String()),
			zap.String("debit_tx_id", ref),
			zap.Error(err))
		return
	}
	zap.L().Info("points refunded after provider failure",
		zap.Uint("user_id", userID),
		zap.String("amount", cost.String()),
		zap.String("debit_tx_id", ref))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
