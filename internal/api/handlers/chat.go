package handlers

import (
	"credit-chat/internal/apperrors"
	"credit-chat/internal/auth"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"
	chatService "credit-chat/internal/service/chat"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ChatRequest struct {
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}

type ChatResponse struct {
	Reply            string `json:"reply"`
	RemainingCredits *int   `json:"remainingCredits"`
	Cached           bool   `json:"cached"`
}

// Chat handles POST /api/chat
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	requestID := auth.RequestIDFrom(c)
	logger.Log.WithFields(logrus.Fields{
		"request_id": requestID,
		"provider":   req.Provider,
	}).Info("POST /api/chat")

	resp, err := h.chat.SendMessage(c.Request.Context(), chatService.SendMessageRequest{
		Message:   req.Message,
		Provider:  req.Provider,
		UserID:    auth.UserID(c),
		RequestID: requestID,
	})
	if err != nil {
		respondError(c, err, "Failed to process chat request")
		return
	}

	respondOK(c, http.StatusOK, ChatResponse{
		Reply:            resp.Reply,
		RemainingCredits: resp.RemainingCredits,
		Cached:           resp.Cached,
	})
}

// ChatRateLimit applies the per-minute burst limit and the daily quota
func (h *Handlers) ChatRateLimit() gin.HandlerFunc {
	limits := h.config.AppConfig.RateLimit

	return func(c *gin.Context) {
		userID := auth.UserID(c)

		if !h.burst.Allow(userID) {
			respondError(c, apperrors.ErrRateLimited, "")
			return
		}

		limit := limits.DailyLimit
		if auth.HasRole(auth.Role(c), db.RoleSubscriber) {
			limit = limits.SubscriberDailyLimit
		}

		result := h.quota.Allow(c.Request.Context(), userID, limit)
		if !result.Allowed {
			respondError(c, apperrors.ErrRateLimited, "")
			return
		}
		c.Next()
	}
}
