package registration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"ms-registration/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// InitStripe initializes the Stripe API with the secret key
func InitStripe() {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
}

// Per-registration locks so two concurrent payment-intent requests for the
// same registration never create two intents.
var paymentIntentLocks = make(map[string]bool)
var paymentIntentMutex = &sync.Mutex{}

// CreatePaymentIntent creates a Stripe payment intent for a committed
// registration's total amount. The intent is only created after the
// registration transaction has committed; the core knows nothing about the
// processor beyond amount and status.
func (s *RegistrationService) CreatePaymentIntent(ctx context.Context, registrationID string) (*stripe.PaymentIntent, error) {
	s.logger.Info("PAYMENT", fmt.Sprintf("Creating payment intent for registration: %s", registrationID))

	paymentIntentMutex.Lock()
	if _, locked := paymentIntentLocks[registrationID]; locked {
		paymentIntentMutex.Unlock()
		s.logger.Warn("PAYMENT", fmt.Sprintf("Payment intent creation for registration %s is already in progress", registrationID))
		time.Sleep(500 * time.Millisecond)
		return s.CreatePaymentIntent(ctx, registrationID)
	}
	paymentIntentLocks[registrationID] = true
	paymentIntentMutex.Unlock()

	defer func() {
		paymentIntentMutex.Lock()
		delete(paymentIntentLocks, registrationID)
		paymentIntentMutex.Unlock()
	}()

	reg, err := s.DB.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to find registration %s: %v", registrationID, err))
		return nil, fmt.Errorf("%w: %s", ErrRegistrationNotFound, registrationID)
	}

	if reg.PaymentStatus != models.StatusPending {
		s.logger.Warn("PAYMENT", fmt.Sprintf("Cannot create payment intent for registration %s with status %s", registrationID, reg.PaymentStatus))
		return nil, errors.New("cannot create payment intent for a registration that is not pending")
	}

	// Reuse an existing intent when it is still usable.
	if reg.PaymentIntentID != "" {
		intent, err := paymentintent.Get(reg.PaymentIntentID, nil)
		if err != nil {
			s.logger.Error("PAYMENT", fmt.Sprintf("Failed to retrieve existing payment intent %s: %v", reg.PaymentIntentID, err))
		} else if intent.Status != stripe.PaymentIntentStatusCanceled && intent.Status != stripe.PaymentIntentStatusSucceeded {
			s.logger.Info("PAYMENT", fmt.Sprintf("Retrieved existing payment intent %s with status %s", intent.ID, intent.Status))
			return intent, nil
		}
	}

	currency := os.Getenv("STRIPE_CURRENCY")
	if currency == "" {
		currency = "eur"
	}

	amountInCents := int64(reg.TotalAmount * 100)
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("registration_id", registrationID)

	intent, err := paymentintent.New(params)
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to create payment intent for registration %s: %v", registrationID, err))
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	if err := s.DB.UpdatePaymentStatus(ctx, registrationID, models.StatusPending, intent.ID); err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to store payment intent id for registration %s: %v", registrationID, err))
	}

	s.logger.Info("PAYMENT", fmt.Sprintf("Created payment intent %s for registration %s (%d cents)", intent.ID, registrationID, amountInCents))
	return intent, nil
}

// CancelPaymentIntent cancels a Stripe payment intent for a registration
// that was deleted before payment completed.
func (s *RegistrationService) CancelPaymentIntent(paymentIntentID string) error {
	s.logger.Info("PAYMENT", fmt.Sprintf("Cancelling payment intent: %s", paymentIntentID))

	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	_, err := paymentintent.Cancel(paymentIntentID, params)
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to cancel payment intent %s: %v", paymentIntentID, err))
		return fmt.Errorf("failed to cancel payment intent: %w", err)
	}
	return nil
}
