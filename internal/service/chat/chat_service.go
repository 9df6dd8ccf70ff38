package chat

import (
	"context"
	"credit-chat/internal/analytics"
	"credit-chat/internal/apperrors"
	"credit-chat/internal/cache"
	"credit-chat/internal/config"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"
	"credit-chat/internal/service/llm"
	"credit-chat/internal/timeout"
	"credit-chat/pkg/validation"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const operationChat = "chat"

// errSimulatedFailure is returned for the catalog's primary provider when
// SimulatePrimaryFailure is set
var errSimulatedFailure = errors.New("Simulated Gemini failure")

// Cache is the reply cache. Implementations must not fail the caller.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) bool
}

// ProviderSource resolves chat backends by catalog id
type ProviderSource interface {
	Order(requested string) []string
	Get(name string) (llm.Provider, bool)
	Model(name string) string
}

// CostTracker records the estimated cost of a served request
type CostTracker interface {
	Track(ctx context.Context, userID, operation, provider, model string, creditsCharged int, requestID string)
}

// pinger is implemented by ledgers that can report connectivity
type pinger interface {
	Ping(ctx context.Context) error
}

// SendMessageRequest contains all the parameters needed to send a message
type SendMessageRequest struct {
	Message   string
	Provider  string
	UserID    string // Extracted from auth context
	RequestID string
}

// SendMessageResponse contains the reply and how it was produced
type SendMessageResponse struct {
	Reply            string
	RemainingCredits *int // nil when served from cache or metering is off
	Cached           bool
	Provider         string
	FallbackUsed     bool
}

// Option configures optional collaborators
type Option func(*ChatService)

// WithEventTracker sets the analytics sink
func WithEventTracker(tracker analytics.Tracker) Option {
	return func(s *ChatService) { s.events = tracker }
}

// WithCostTracker sets the cost recorder
func WithCostTracker(tracker CostTracker) Option {
	return func(s *ChatService) { s.costs = tracker }
}

// WithClock overrides the time source used for phase timings
func WithClock(now func() time.Time) Option {
	return func(s *ChatService) { s.now = now }
}

// ChatService handles the business logic for chat operations
type ChatService struct {
	cache     Cache
	ledger    db.CreditStore
	providers ProviderSource
	cfg       config.ChatConfig
	validator *validation.ChatRequestValidator
	events    analytics.Tracker
	costs     CostTracker
	now       func() time.Time
}

// NewChatService creates a new ChatService. cfg is captured once; later
// environment changes have no effect.
func NewChatService(replyCache Cache, ledger db.CreditStore, providers ProviderSource, cfg config.ChatConfig, opts ...Option) *ChatService {
	defaults := config.DefaultChatConfig()
	if cfg.CreditCost < 1 {
		cfg.CreditCost = defaults.CreditCost
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaults.CacheTTL
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = timeout.Chat
	}

	s := &ChatService{
		cache:     replyCache,
		ledger:    ledger,
		providers: providers,
		cfg:       cfg,
		now:       time.Now,
	}
	s.validator = validation.NewChatRequestValidator(func(name string) bool {
		_, ok := providers.Get(name)
		return ok
	})

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requestMetrics accumulates the per-phase record for one request
type requestMetrics struct {
	requestID         string
	userID            string
	providerRequested string
	providerUsed      string
	fallbackUsed      bool
	cached            bool
	messageLength     int
	messageHash       string
	dbMs              int64
	cacheReadMs       int64
	creditMs          int64
	aiMs              int64
	cacheWriteMs      int64
}

// SendMessage produces a reply for an authenticated caller
func (s *ChatService) SendMessage(ctx context.Context, req SendMessageRequest) (resp *SendMessageResponse, err error) {
	start := s.now()
	m := &requestMetrics{
		requestID:         req.RequestID,
		userID:            req.UserID,
		providerRequested: req.Provider,
	}

	defer func() {
		if err != nil {
			s.logFailure(req, err)
		}
		if s.cfg.MetricsEnabled {
			s.emitMetric(m, start, err)
		}
	}()

	if req.UserID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	message, err := s.validator.NormalizeMessage(req.Message)
	if err != nil {
		return nil, apperrors.Validation(err)
	}
	if err := s.validator.ValidateProvider(req.Provider); err != nil {
		return nil, apperrors.Validation(err)
	}

	order := s.providers.Order(req.Provider)
	m.providerRequested = order[0]
	m.messageLength = utf8.RuneCountInString(message)
	m.messageHash = messageHash(message)

	if p, ok := s.ledger.(pinger); ok {
		t := s.now()
		pingErr := p.Ping(ctx)
		m.dbMs = s.since(t)
		if pingErr != nil {
			return nil, fmt.Errorf("credit store unavailable: %w", pingErr)
		}
	}

	key := s.cacheKey(req.UserID, message)

	if !s.cfg.CacheDisabled {
		t := s.now()
		cachedReply, hit := s.cache.Get(ctx, key)
		m.cacheReadMs = s.since(t)

		if hit {
			m.cached = true
			logger.Log.WithFields(logrus.Fields{
				"request_id": req.RequestID,
				"user_id":    req.UserID,
			}).Debug("Serving chat reply from cache")
			return &SendMessageResponse{Reply: cachedReply, Cached: true}, nil
		}
	}

	var remaining *int
	charged := 0
	if !s.cfg.CreditsDisabled {
		t := s.now()
		result, deductErr := s.ledger.DeductAtomic(ctx, req.UserID, s.cfg.CreditCost)
		m.creditMs = s.since(t)

		if deductErr != nil {
			return nil, fmt.Errorf("failed to deduct credits: %w", deductErr)
		}
		if !result.Success {
			return nil, &apperrors.InsufficientCreditsError{Remaining: result.Remaining}
		}
		remaining = &result.Remaining
		charged = s.cfg.CreditCost
	}

	t := s.now()
	reply, used, err := s.chatWithFallback(ctx, message, order, req.RequestID)
	m.aiMs = s.since(t)
	if err != nil {
		if charged > 0 && s.cfg.RefundOnFailure {
			s.refund(ctx, req, charged)
		}
		return nil, err
	}
	m.providerUsed = used
	m.fallbackUsed = used != order[0]

	if !s.cfg.CacheDisabled && reply != llm.NoResponse {
		t := s.now()
		s.cache.Set(ctx, key, reply, s.cfg.CacheTTL)
		m.cacheWriteMs = s.since(t)
	}

	if s.events != nil {
		s.events.TrackAIUsage(used, operationChat, time.Duration(m.aiMs)*time.Millisecond, charged, req.UserID, req.RequestID)
	}
	if s.costs != nil {
		s.costs.Track(ctx, req.UserID, operationChat, used, s.providers.Model(used), charged, req.RequestID)
	}

	return &SendMessageResponse{
		Reply:            reply,
		RemainingCredits: remaining,
		Provider:         used,
		FallbackUsed:     m.fallbackUsed,
	}, nil
}

// chatWithFallback tries each provider in order and stops at the first reply
func (s *ChatService) chatWithFallback(ctx context.Context, message string, order []string, requestID string) (string, string, error) {
	failures := make([]apperrors.ProviderFailure, 0, len(order))

	for _, name := range order {
		logger.Log.WithFields(logrus.Fields{
			"provider":   name,
			"request_id": requestID,
		}).Debug("Attempting AI provider")

		reply, err := s.callProvider(ctx, name, message)
		if err == nil {
			if reply == "" {
				reply = llm.NoResponse
			}
			return reply, name, nil
		}

		logger.Log.WithFields(logrus.Fields{
			"provider":   name,
			"request_id": requestID,
		}).WithError(err).Warn("AI provider failed")
		failures = append(failures, apperrors.ProviderFailure{Provider: name, Err: err})
	}

	return "", "", &apperrors.AllProvidersFailedError{Failures: failures}
}

func (s *ChatService) callProvider(ctx context.Context, name, message string) (string, error) {
	if s.cfg.SimulatePrimaryFailure && name == s.providers.Order("")[0] {
		return "", errSimulatedFailure
	}

	provider, ok := s.providers.Get(name)
	if !ok {
		return "", fmt.Errorf("provider %s is not registered", name)
	}

	label := fmt.Sprintf("AI provider %s timeout", name)
	return timeout.Do(ctx, s.cfg.ProviderTimeout, label, func(ctx context.Context) (string, error) {
		return provider.Chat(ctx, message)
	})
}

// refund returns the deducted unit. The caller may already be gone, so the
// request context's cancellation is ignored.
func (s *ChatService) refund(ctx context.Context, req SendMessageRequest, amount int) {
	account, err := s.ledger.AddCredits(context.WithoutCancel(ctx), req.UserID, 0, amount)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id":    req.UserID,
			"request_id": req.RequestID,
		}).WithError(err).Error("Failed to refund credits")
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"user_id":    req.UserID,
		"request_id": req.RequestID,
		"credits":    account.Credits,
	}).Info("Refunded credits after provider failure")
}

func (s *ChatService) cacheKey(userID, message string) string {
	if s.cfg.CachePerUser {
		return cache.UserPromptKey(userID, message)
	}
	return cache.PromptKey(message)
}

func (s *ChatService) since(t time.Time) int64 {
	return s.now().Sub(t).Milliseconds()
}

func (s *ChatService) logFailure(req SendMessageRequest, err error) {
	entry := logger.Log.WithFields(logrus.Fields{
		"request_id": req.RequestID,
		"user_id":    req.UserID,
		"error_name": errorName(err),
	}).WithError(err)

	if apperrors.HTTPStatus(err) >= 500 {
		entry.Error("Chat request failed")
		return
	}
	entry.Info("Chat request rejected")
}

// emitMetric writes the per-request record. It never includes the message
// text, only its length and hash.
func (s *ChatService) emitMetric(m *requestMetrics, start time.Time, err error) {
	status := "ok"
	name := ""
	if err != nil {
		status = "error"
		name = errorName(err)
	}

	logger.Log.WithFields(logrus.Fields{
		"request_id":         m.requestID,
		"user_id":            m.userID,
		"status":             status,
		"error_name":         name,
		"provider_requested": m.providerRequested,
		"provider_used":      m.providerUsed,
		"fallback_used":      m.fallbackUsed,
		"cached":             m.cached,
		"message_length":     m.messageLength,
		"message_hash":       m.messageHash,
		"total_ms":           s.since(start),
		"db_ms":              m.dbMs,
		"cache_read_ms":      m.cacheReadMs,
		"credit_ms":          m.creditMs,
		"ai_ms":              m.aiMs,
		"cache_write_ms":     m.cacheWriteMs,
	}).Info("[metric] chat.request")
}

func messageHash(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])[:12]
}

func errorName(err error) string {
	var validationErr *apperrors.ValidationError
	var creditsErr *apperrors.InsufficientCreditsError
	var providersErr *apperrors.AllProvidersFailedError

	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return "UnauthenticatedError"
	case errors.As(err, &validationErr):
		return "ValidationError"
	case errors.As(err, &creditsErr):
		return "InsufficientCreditsError"
	case errors.As(err, &providersErr):
		return "ProviderError"
	default:
		return "InternalError"
	}
}
