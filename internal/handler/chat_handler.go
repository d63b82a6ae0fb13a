package handler

import (
	"net/http"

	"dream/internal/middleware"
	"dream/internal/service"
	"dream/pkg/provider"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	genSvc *service.GenerationService
}

func NewChatHandler(genSvc *service.GenerationService) *ChatHandler {
	return &ChatHandler{genSvc: genSvc}
}

type chatRequest struct {
	Messages []provider.Message `json:"messages" binding:"required,min=1"`
	Stream   bool               `json:"stream"`
}

// Completions proxies a paid chat call. Streaming responses are written as
// plain text chunks; the points debit is refunded if the provider breaks
// mid-stream.
func (h *ChatHandler) Completions(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)

	if !req.Stream {
		content, err := h.genSvc.ChatComplete(c.Request.Context(), userID, req.Messages)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"response": content})
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	err := h.genSvc.ChatStream(c.Request.Context(), userID, req.Messages, func(chunk string) error {
		if _, werr := c.Writer.WriteString(chunk); werr != nil {
			return werr
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil && !c.Writer.Written() {
		respondError(c, err)
	}
}
