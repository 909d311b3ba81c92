package storage

import (
	"ms-registration/internal/models"
)

type Store interface {
	SavePayment(payment *models.Payment) error
	GetPayment(id string) (*models.Payment, error)
	UpdatePayment(payment *models.Payment) error
	ListPayments(registrationID string, limit, offset int) ([]*models.Payment, error)
	GetPaymentByRegistrationID(registrationID string) (*models.Payment, error)

	Close() error
	HealthCheck() error
}
