package handler

import (
	"net/http"

	"dream/internal/service"

	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	verifySvc *service.VerificationService
}

func NewVerificationHandler(verifySvc *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verifySvc: verifySvc}
}

type sendCodeRequest struct {
	Destination string `json:"destination" binding:"required"`
	Action      string `json:"action" binding:"required,oneof=register login reset_password bind_phone"`
}

func (h *VerificationHandler) SendCode(c *gin.Context) {
	var req sendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.verifySvc.SendCode(req.Destination, req.Action); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

type verifyCodeRequest struct {
	Destination string `json:"destination" binding:"required"`
	Action      string `json:"action" binding:"required"`
	Code        string `json:"code" binding:"required,len=6"`
}

func (h *VerificationHandler) VerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.verifySvc.VerifyCode(req.Destination, req.Action, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code verified"})
}
