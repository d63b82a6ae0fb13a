package handler

import (
	"net/http"
	"strconv"

	"dream/config"
	"dream/internal/domain"
	"dream/internal/middleware"
	"dream/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PointsHandler struct {
	points   *config.PointsConfig
	ledger   *repository.LedgerRepository
	userRepo *repository.UserRepository
}

func NewPointsHandler(points *config.PointsConfig, ledger *repository.LedgerRepository, userRepo *repository.UserRepository) *PointsHandler {
	return &PointsHandler{points: points, ledger: ledger, userRepo: userRepo}
}

func (h *PointsHandler) GetBalance(c *gin.Context) {
	h.balanceOf(c, middleware.GetUserID(c))
}

// GetUserBalance returns another user's balance (superuser only, enforced by
// route middleware).
func (h *PointsHandler) GetUserBalance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	h.balanceOf(c, uint(id))
}

func (h *PointsHandler) balanceOf(c *gin.Context, userID uint) {
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":             u.ID,
		"username":            u.Username,
		"points_balance":      u.PointsBalance,
		"total_points_earned": u.TotalPointsEarned,
		"total_points_spent":  u.TotalPointsSpent,
	})
}

func (h *PointsHandler) ListTransactions(c *gin.Context) {
	h.transactionsOf(c, middleware.GetUserID(c))
}

func (h *PointsHandler) ListUserTransactions(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	h.transactionsOf(c, uint(id))
}

func (h *PointsHandler) transactionsOf(c *gin.Context, userID uint) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	txs, total, err := h.ledger.ListTransactions(userID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}

// ListAllTransactions pages every user's transactions (superuser only).
func (h *PointsHandler) ListAllTransactions(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	txs, err := h.ledger.ListAllTransactions(offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

type pointsOperationRequest struct {
	UserID          uint            `json:"user_id" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	TransactionType string          `json:"transaction_type"`
	Description     string          `json:"description"`
	ReferenceID     string          `json:"reference_id"`
}

// AddPoints credits an arbitrary user (superuser only).
func (h *PointsHandler) AddPoints(c *gin.Context) {
	var req pointsOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TransactionType == "" {
		req.TransactionType = domain.TxAdminAdjust
	}
	tx, err := h.ledger.Credit(req.UserID, req.Amount, req.TransactionType, req.Description, req.ReferenceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// DeductPoints debits an arbitrary user (superuser only).
func (h *PointsHandler) DeductPoints(c *gin.Context) {
	var req pointsOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TransactionType == "" {
		req.TransactionType = domain.TxAdminAdjust
	}
	tx, err := h.ledger.Debit(req.UserID, req.Amount, req.TransactionType, req.Description, req.ReferenceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

type transferRequest struct {
	ToUserID    uint            `json:"to_user_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

func (h *PointsHandler) Transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	debitTx, creditTx, err := h.ledger.Transfer(middleware.GetUserID(c), req.ToUserID, req.Amount, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debit": debitTx, "credit": creditTx})
}

// ClaimLoginBonus credits the daily login bonus.
func (h *PointsHandler) ClaimLoginBonus(c *gin.Context) {
	tx, err := h.ledger.Credit(middleware.GetUserID(c), h.points.LoginBonus, domain.TxLogin, "daily login bonus", "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}
