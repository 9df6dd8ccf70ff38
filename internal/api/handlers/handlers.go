package handlers

import (
	"credit-chat/internal/app"
	"credit-chat/internal/apperrors"
	"credit-chat/internal/auth"
	"credit-chat/internal/logger"
	"credit-chat/internal/ratelimit"
	billingService "credit-chat/internal/service/billing"
	chatService "credit-chat/internal/service/chat"
	"credit-chat/internal/service/cost"
	creditsService "credit-chat/internal/service/credits"
	"credit-chat/pkg/validation"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Response is the envelope returned by every JSON endpoint
type Response struct {
	Success          bool        `json:"success"`
	Data             interface{} `json:"data,omitempty"`
	Error            string      `json:"error,omitempty"`
	RemainingCredits *int        `json:"remainingCredits,omitempty"`
}

// Handlers wires HTTP routes to the service layer
type Handlers struct {
	config        *app.Config
	tokens        *auth.TokenManager
	authValidator *validation.AuthRequestValidator
	chat          *chatService.ChatService
	credits       *creditsService.CreditsService
	billing       *billingService.BillingService
	costs         *cost.Tracker
	burst         *ratelimit.BurstLimiter
	quota         *ratelimit.DailyQuota
}

// NewHandlers creates the services from the application container
func NewHandlers(config *app.Config) *Handlers {
	appConfig := config.AppConfig
	costs := cost.NewTracker(config.DB)

	return &Handlers{
		config:        config,
		tokens:        auth.NewTokenManager(appConfig.Auth.JWTSecret, appConfig.Auth.TokenExpiration),
		authValidator: validation.NewAuthRequestValidator(),
		chat: chatService.NewChatService(config.Cache, config.DB, config.LLM, appConfig.Chat,
			chatService.WithEventTracker(config.Events),
			chatService.WithCostTracker(costs),
		),
		credits: creditsService.NewCreditsService(config.DB, config.Events),
		billing: billingService.NewBillingService(appConfig.Stripe, config.DB, config.Events),
		costs:   costs,
		burst:   ratelimit.NewBurstLimiter(appConfig.RateLimit.BurstPerMinute),
		quota:   ratelimit.NewDailyQuota(config.Redis),
	}
}

// Tokens returns the token manager used by the auth middleware
func (h *Handlers) Tokens() *auth.TokenManager {
	return h.tokens
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// respondError maps err to a status and a message safe for clients
func respondError(c *gin.Context, err error, fallback string) {
	status := apperrors.HTTPStatus(err)
	resp := Response{Success: false, Error: apperrors.PublicMessage(err, fallback)}

	var creditsErr *apperrors.InsufficientCreditsError
	if errors.As(err, &creditsErr) {
		remaining := creditsErr.Remaining
		resp.RemainingCredits = &remaining
	}

	if status >= http.StatusInternalServerError {
		logger.Log.WithFields(logrus.Fields{
			"request_id": auth.RequestIDFrom(c),
			"path":       c.FullPath(),
		}).WithError(err).Error("Request failed")
	}

	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Success: false, Error: message})
}
