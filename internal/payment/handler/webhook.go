package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ms-registration/internal/kafka"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/payment/storage"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// RegistrationUpdater flips a registration's payment status once Stripe
// reports a terminal intent state.
type RegistrationUpdater interface {
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, intentID string) error
}

// PaymentEvent is the message fanned out on the payment-events topic.
type PaymentEvent struct {
	Type           string         `json:"type"`
	RegistrationID string         `json:"registration_id"`
	Payment        *models.Payment `json:"payment,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

type StripeWebhookHandler struct {
	store         storage.Store
	producer      *kafka.Producer
	registrations RegistrationUpdater
	webhookSecret string
	logger        *logger.Logger
}

func NewStripeWebhookHandler(store storage.Store, producer *kafka.Producer, registrations RegistrationUpdater, webhookSecret string, log *logger.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		store:         store,
		producer:      producer,
		registrations: registrations,
		webhookSecret: webhookSecret,
		logger:        log,
	}
}

// HandleWebhook verifies and dispatches Stripe payment intent events. The
// registration row and the payment record are both updated; Kafka fan-out is
// best effort.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("Webhook: failed to read body: %v", err))
		http.Error(w, "Failed to read request body", http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("Webhook: signature verification failed: %v", err))
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		h.handleIntent(r.Context(), w, event, models.StatusPaid, "payment.success")
	case "payment_intent.payment_failed":
		h.handleIntent(r.Context(), w, event, models.StatusFailed, "payment.failed")
	case "payment_intent.canceled":
		h.handleIntent(r.Context(), w, event, models.StatusCancelled, "payment.cancelled")
	default:
		h.logger.Debug("PAYMENT", fmt.Sprintf("Webhook: ignoring event type %s", event.Type))
		w.WriteHeader(http.StatusOK)
	}
}

func (h *StripeWebhookHandler) handleIntent(ctx context.Context, w http.ResponseWriter, event stripe.Event, status models.PaymentStatus, eventType string) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("Webhook: failed to parse payment intent: %v", err))
		http.Error(w, "Malformed event payload", http.StatusBadRequest)
		return
	}

	registrationID := intent.Metadata["registration_id"]
	if registrationID == "" {
		h.logger.Warn("PAYMENT", fmt.Sprintf("Webhook: intent %s carries no registration_id", intent.ID))
		w.WriteHeader(http.StatusOK)
		return
	}

	h.logger.Info("PAYMENT", fmt.Sprintf("Webhook: intent %s for registration %s is %s", intent.ID, registrationID, status))

	if err := h.registrations.UpdatePaymentStatus(ctx, registrationID, status, intent.ID); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("Webhook: failed to update registration %s: %v", registrationID, err))
		http.Error(w, "Failed to update registration", http.StatusInternalServerError)
		return
	}

	payment := h.recordPayment(registrationID, intent.ID, float64(intent.Amount)/100, status)

	if h.producer != nil {
		paymentEvent := PaymentEvent{
			Type:           eventType,
			RegistrationID: registrationID,
			Payment:        payment,
			OccurredAt:     time.Now(),
		}
		if err := h.producer.Publish(registrationID, paymentEvent); err != nil {
			h.logger.Error("KAFKA", fmt.Sprintf("Webhook: failed to publish payment event: %v", err))
		}
	}

	w.WriteHeader(http.StatusOK)
}

// recordPayment upserts the payment row for the registration. Storage
// failures are logged and swallowed, the registration row already carries
// the authoritative status.
func (h *StripeWebhookHandler) recordPayment(registrationID, intentID string, amount float64, status models.PaymentStatus) *models.Payment {
	existing, err := h.store.GetPaymentByRegistrationID(registrationID)
	if err == nil {
		existing.Status = status
		existing.IntentID = intentID
		if amount > 0 {
			existing.Amount = amount
		}
		if err := h.store.UpdatePayment(existing); err != nil {
			h.logger.Error("PAYMENT", fmt.Sprintf("Failed to update payment record for %s: %v", registrationID, err))
		}
		return existing
	}

	payment := &models.Payment{
		PaymentID:      uuid.NewString(),
		RegistrationID: registrationID,
		Status:         status,
		Amount:         amount,
		IntentID:       intentID,
		CreatedDate:    time.Now(),
	}
	if err := h.store.SavePayment(payment); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("Failed to save payment record for %s: %v", registrationID, err))
	}
	return payment
}

// ListPayments exposes the payment history for one registration.
func (h *StripeWebhookHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	registrationID := r.URL.Query().Get("registration_id")
	if registrationID == "" {
		http.Error(w, "registration_id is required", http.StatusBadRequest)
		return
	}

	payments, err := h.store.ListPayments(registrationID, 50, 0)
	if err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("ListPayments: %v", err))
		http.Error(w, "Failed to list payments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payments); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("ListPayments: failed to encode response: %v", err))
	}
}
