package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"antrelay/internal/app"
	"antrelay/internal/model"
	"antrelay/internal/transport/http/response"
)

type ChatHandler struct {
	chat *app.ChatService
}

type ChatRequest struct {
	Question          string `json:"question"`
	SessionIdentifier string `json:"session_identifier"`
}

func NewChatHandler(chat *app.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	result, err := h.chat.ProcessTurn(c.Request.Context(), app.TurnInput{
		SessionIdentifier: req.SessionIdentifier,
		Question:          req.Question,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingSessionIdentifier):
			response.Validation(c, "Missing session_identifier", req)
		case errors.Is(err, app.ErrMissingQuestion):
			response.Validation(c, "Missing question", req)
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrInternal, err.Error())
		}
		return
	}

	payload := gin.H{
		"reply":              result.Reply,
		"session_identifier": result.SessionIdentifier,
		"question":           result.Question,
		"mode":               result.Mode,
	}
	if result.Usage != nil {
		payload["usage"] = gin.H{
			"tokens_in":  result.Usage.TokensIn,
			"tokens_out": result.Usage.TokensOut,
		}
	}
	response.OK(c, payload)
}

func (h *ChatHandler) History(c *gin.Context) {
	sessionIdentifier := c.Query("session_identifier")

	messages, err := h.chat.History(c.Request.Context(), sessionIdentifier)
	if err != nil {
		if errors.Is(err, app.ErrMissingSessionIdentifier) {
			response.Validation(c, "Missing session_identifier", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrDB, err.Error())
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	response.OK(c, gin.H{
		"session_identifier": sessionIdentifier,
		"count":              len(messages),
		"messages":           messages,
	})
}
