package models

import (
	"time"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusPaid      PaymentStatus = "paid"
	StatusFailed    PaymentStatus = "failed"
	StatusRefunded  PaymentStatus = "refunded"
	StatusCancelled PaymentStatus = "cancelled"
)

// Payment is one payment attempt for a registration, persisted by the
// payment store.
type Payment struct {
	PaymentID      string        `json:"payment_id"`
	RegistrationID string        `json:"registration_id"`
	Status         PaymentStatus `json:"status"`
	Amount         float64       `json:"amount"`
	IntentID       string        `json:"intent_id,omitempty"`
	CreatedDate    time.Time     `json:"created_date"`
	UpdatedDate    time.Time     `json:"updated_date,omitempty"`
}

// PaymentIntentResponse is returned to the wizard after a payment intent is
// created for a committed registration.
type PaymentIntentResponse struct {
	RegistrationID string  `json:"registration_id"`
	IntentID       string  `json:"intent_id"`
	ClientSecret   string  `json:"client_secret"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
}
