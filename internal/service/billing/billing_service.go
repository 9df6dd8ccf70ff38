package billing

import (
	"context"
	"credit-chat/internal/analytics"
	"credit-chat/internal/apperrors"
	"credit-chat/internal/config"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"
	"credit-chat/pkg/validation"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

const eventCheckoutCompleted = "checkout.session.completed"

// ErrNotConfigured is returned when Stripe keys are missing
var ErrNotConfigured = errors.New("billing is not configured")

// SessionCreator creates Stripe Checkout Sessions
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// BillingService sells credit packs through Stripe Checkout
type BillingService struct {
	cfg       config.StripeConfig
	sessions  SessionCreator
	purchases db.PurchaseStore
	events    analytics.Tracker
}

// NewBillingService creates a new BillingService using the Stripe API
func NewBillingService(cfg config.StripeConfig, purchases db.PurchaseStore, events analytics.Tracker) *BillingService {
	sessions := &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.SecretKey}
	return NewBillingServiceWithSessions(cfg, sessions, purchases, events)
}

// NewBillingServiceWithSessions allows a custom session creator
func NewBillingServiceWithSessions(cfg config.StripeConfig, sessions SessionCreator, purchases db.PurchaseStore, events analytics.Tracker) *BillingService {
	if cfg.PricePerCreditCents <= 0 {
		cfg.PricePerCreditCents = 10
	}
	return &BillingService{cfg: cfg, sessions: sessions, purchases: purchases, events: events}
}

// CreateCheckout starts a payment for credits and returns the hosted page URL
func (s *BillingService) CreateCheckout(ctx context.Context, userID string, credits int) (string, error) {
	if userID == "" {
		return "", apperrors.ErrUnauthenticated
	}
	if err := validation.ValidateCheckoutCredits(credits); err != nil {
		return "", apperrors.Validation(err)
	}
	if s.cfg.SecretKey == "" {
		return "", ErrNotConfigured
	}

	amount := int64(credits) * s.cfg.PricePerCreditCents
	purchaseID := uuid.New().String()

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(userID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%d chat credits", credits)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)
	params.AddMetadata("credits", strconv.Itoa(credits))
	params.AddMetadata("purchase_id", purchaseID)

	sess, err := s.sessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":     userID,
		"credits":     credits,
		"amount":      amount,
		"session_id":  sess.ID,
		"purchase_id": purchaseID,
	}).Info("Created checkout session")

	return sess.URL, nil
}

// HandleWebhook verifies a Stripe event and fulfils completed checkouts.
// Other event types are acknowledged and ignored.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.cfg.WebhookSecret == "" {
		return ErrNotConfigured
	}

	event, err := webhook.ConstructEvent(payload, signature, s.cfg.WebhookSecret)
	if err != nil {
		return apperrors.Validation(fmt.Errorf("invalid webhook signature: %w", err))
	}

	if string(event.Type) != eventCheckoutCompleted {
		logger.Log.WithField("type", event.Type).Debug("Ignoring webhook event")
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return apperrors.Validation(fmt.Errorf("invalid checkout session payload: %w", err))
	}

	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		logger.Log.WithFields(logrus.Fields{
			"session_id": sess.ID,
			"status":     sess.PaymentStatus,
		}).Info("Checkout completed without payment, skipping")
		return nil
	}

	userID := sess.Metadata["user_id"]
	credits, err := strconv.Atoi(sess.Metadata["credits"])
	if userID == "" || err != nil {
		return apperrors.Validation(fmt.Errorf("checkout session %s is missing purchase metadata", sess.ID))
	}

	_, err = s.Fulfil(ctx, sess.ID, userID, sess.AmountTotal, credits)
	return err
}

// Fulfil credits a paid session exactly once. It reports whether credits
// were added by this call.
func (s *BillingService) Fulfil(ctx context.Context, sessionID, userID string, amountCents int64, credits int) (bool, error) {
	if sessionID == "" || userID == "" {
		return false, apperrors.Validation(errors.New("session and user are required"))
	}
	if credits < 1 {
		return false, apperrors.Validation(fmt.Errorf("credits must be at least 1, got %d", credits))
	}

	added, account, err := s.purchases.FulfilPurchase(ctx, &db.Purchase{
		SessionID:   sessionID,
		UserID:      userID,
		AmountCents: amountCents,
		Credits:     credits,
	})
	if err != nil {
		return false, fmt.Errorf("failed to fulfil purchase: %w", err)
	}
	if !added {
		return false, nil
	}

	logger.Log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"user_id":    userID,
		"balance":    account.Credits,
	}).Info("Credited checkout")

	if s.events != nil {
		s.events.TrackCreditPurchase(amountCents, credits, userID, sessionID)
	}
	return true, nil
}
