package analytics

import (
	"sync"
	"time"

	"credit-chat/internal/logger"

	"github.com/sirupsen/logrus"
)

const (
	DefaultCapacity = 100
	DefaultLimit    = 50

	EventAIUsage        = "ai_usage"
	EventCreditPurchase = "credit_purchase"
)

// Event is one tracked occurrence
type Event struct {
	Name       string                 `json:"event"`
	UserID     string                 `json:"userId,omitempty"`
	RequestID  string                 `json:"requestId,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Tracker receives analytics events
type Tracker interface {
	TrackAIUsage(provider, operation string, duration time.Duration, creditsUsed int, userID, requestID string)
	TrackCreditPurchase(amount int64, credits int, userID, requestID string)
}

// Buffer keeps the most recent events in a fixed-size ring, dropping the
// oldest when full. Safe for concurrent use.
type Buffer struct {
	mu     sync.Mutex
	events []Event
	start  int
	size   int
	now    func() time.Time
}

var _ Tracker = (*Buffer)(nil)

// NewBuffer creates a buffer holding at most capacity events
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		events: make([]Event, capacity),
		now:    time.Now,
	}
}

// Track appends an event, evicting the oldest if the buffer is full
func (b *Buffer) Track(event Event) {
	b.mu.Lock()
	if event.Timestamp.IsZero() {
		event.Timestamp = b.now()
	}

	capacity := len(b.events)
	if b.size < capacity {
		b.events[(b.start+b.size)%capacity] = event
		b.size++
	} else {
		b.events[b.start] = event
		b.start = (b.start + 1) % capacity
	}
	b.mu.Unlock()

	logger.Log.WithFields(logrus.Fields{
		"event":      event.Name,
		"user_id":    event.UserID,
		"request_id": event.RequestID,
	}).Debug("Analytics event tracked")
}

// TrackAIUsage records a completed provider call
func (b *Buffer) TrackAIUsage(provider, operation string, duration time.Duration, creditsUsed int, userID, requestID string) {
	b.Track(Event{
		Name:      EventAIUsage,
		UserID:    userID,
		RequestID: requestID,
		Properties: map[string]interface{}{
			"provider":    provider,
			"operation":   operation,
			"duration":    duration.Milliseconds(),
			"creditsUsed": creditsUsed,
		},
	})
}

// TrackCreditPurchase records credits added to an account
func (b *Buffer) TrackCreditPurchase(amount int64, credits int, userID, requestID string) {
	b.Track(Event{
		Name:      EventCreditPurchase,
		UserID:    userID,
		RequestID: requestID,
		Properties: map[string]interface{}{
			"amount":  amount,
			"credits": credits,
		},
	})
}

// Recent returns up to limit of the newest events, oldest first
func (b *Buffer) Recent(limit int) []Event {
	if limit <= 0 {
		limit = DefaultLimit
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if limit > b.size {
		limit = b.size
	}

	capacity := len(b.events)
	out := make([]Event, 0, limit)
	for i := b.size - limit; i < b.size; i++ {
		out = append(out, b.events[(b.start+i)%capacity])
	}
	return out
}

// Len returns the number of buffered events
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}
