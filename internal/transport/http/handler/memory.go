package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"antrelay/internal/app"
	"antrelay/internal/transport/http/response"
)

type MemoryHandler struct {
	memory *app.MemoryService
}

type MemoryRequest struct {
	SessionIdentifier string `json:"session_identifier"`
	Topic             string `json:"topic"`
	Content           string `json:"content"`
}

func NewMemoryHandler(memory *app.MemoryService) *MemoryHandler {
	return &MemoryHandler{memory: memory}
}

func (h *MemoryHandler) Upsert(c *gin.Context) {
	var req MemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	err := h.memory.Upsert(c.Request.Context(), app.MemoryInput{
		SessionIdentifier: req.SessionIdentifier,
		Topic:             req.Topic,
		Content:           req.Content,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMemoryNotConfigured):
			response.Error(c, http.StatusServiceUnavailable, "memory_not_configured", "")
		case errors.Is(err, app.ErrMissingSessionIdentifier):
			response.Validation(c, "Missing session_identifier", req)
		case errors.Is(err, app.ErrMissingTopic):
			response.Validation(c, "Missing topic", req)
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrInternal, err.Error())
		}
		return
	}

	response.OK(c, gin.H{})
}
