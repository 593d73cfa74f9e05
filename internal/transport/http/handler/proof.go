package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"antrelay/internal/app"
	"antrelay/internal/model"
	"antrelay/internal/transport/http/response"
)

// ProofHandler exposes the latest rows across all sessions so durability
// can be verified from outside.
type ProofHandler struct {
	chat *app.ChatService
}

func NewProofHandler(chat *app.ChatService) *ProofHandler {
	return &ProofHandler{chat: chat}
}

func (h *ProofHandler) RecentMessages(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	rows, err := h.chat.RecentMessages(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrDB, err.Error())
		return
	}
	if rows == nil {
		rows = []model.Message{}
	}

	response.OK(c, gin.H{"rows": rows})
}
