package handler

import (
	"net/http"

	"dream/internal/middleware"
	"dream/internal/service"
	"dream/pkg/provider"

	"github.com/gin-gonic/gin"
)

type GenerationHandler struct {
	genSvc *service.GenerationService
}

func NewGenerationHandler(genSvc *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{genSvc: genSvc}
}

type imageRequest struct {
	Prompt    string `json:"prompt" binding:"required"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Seed      int64  `json:"seed"`
	UseSR     bool   `json:"use_sr"`
	UsePreLLM bool   `json:"use_pre_llm"`
}

func (h *GenerationHandler) GenerateImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Width == 0 {
		req.Width = 512
	}
	if req.Height == 0 {
		req.Height = 512
	}
	result, err := h.genSvc.GenerateImage(c.Request.Context(), middleware.GetUserID(c), provider.ImageRequest{
		Prompt:    req.Prompt,
		Width:     req.Width,
		Height:    req.Height,
		Seed:      req.Seed,
		UseSR:     req.UseSR,
		UsePreLLM: req.UsePreLLM,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
