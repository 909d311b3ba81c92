package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-registration/internal/confirmation"
	"ms-registration/internal/inventory"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/registration"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *registration.RegistrationService
	QR      *confirmation.QRGenerator
	Logger  *logger.Logger
}

func NewHandler(service *registration.RegistrationService, qr *confirmation.QRGenerator) *Handler {
	return &Handler{
		Service: service,
		QR:      qr,
		Logger:  logger.NewLogger(),
	}
}

// writeError maps service errors onto HTTP statuses. Validation gives 400,
// capacity and lease contention give 409, unknown ids give 404.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	switch {
	case registration.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case inventory.IsCapacityError(err), errors.Is(err, registration.ErrTableBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, inventory.ErrOccupancyUnderflow):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, registration.ErrRegistrationNotFound),
		errors.Is(err, registration.ErrResourceNotFound),
		errors.Is(err, inventory.ErrTableNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "CreateRegistration: received request")

	var draft models.RegistrationDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateRegistration: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	reg, err := h.Service.Create(r.Context(), draft)
	if err != nil {
		h.writeError(w, "CreateRegistration", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(reg); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateRegistration: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateRegistration: registration %s created", reg.ID))
}

func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationId")
	h.Logger.Info("API", fmt.Sprintf("GetRegistration: registrationId=%s", registrationID))

	reg, err := h.Service.Get(r.Context(), registrationID)
	if err != nil {
		h.writeError(w, "GetRegistration", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reg); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetRegistration: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationId")
	h.Logger.Info("API", fmt.Sprintf("DeleteRegistration: registrationId=%s", registrationID))

	if err := h.Service.Delete(r.Context(), registrationID); err != nil {
		h.writeError(w, "DeleteRegistration", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	h.Logger.Info("API", fmt.Sprintf("DeleteRegistration: registration %s cancelled", registrationID))
}

// Quote prices a draft without persisting anything. The booking wizard
// calls this on every step change.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var draft models.RegistrationDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Quote: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	breakdown, err := h.Service.Quote(r.Context(), draft)
	if err != nil {
		h.writeError(w, "Quote", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(breakdown); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Quote: failed to encode response: %v", err))
	}
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	resourceID := chi.URLParam(r, "resourceId")
	h.Logger.Info("API", fmt.Sprintf("GetAvailability: kind=%s id=%s", kind, resourceID))

	availability, err := h.Service.Availability(r.Context(), kind, resourceID)
	if err != nil {
		h.writeError(w, "GetAvailability", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(availability); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetAvailability: failed to encode response: %v", err))
	}
}

// GetBadge streams the encrypted check-in QR for a paid registration.
func (h *Handler) GetBadge(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationId")
	h.Logger.Info("API", fmt.Sprintf("GetBadge: registrationId=%s", registrationID))

	reg, err := h.Service.Get(r.Context(), registrationID)
	if err != nil {
		h.writeError(w, "GetBadge", err)
		return
	}

	png, err := h.QR.GenerateBadge(*reg)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBadge: failed to generate QR: %v", err))
		http.Error(w, "Failed to generate badge", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBadge: failed to write response: %v", err))
	}
}

func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "registrationId")
	h.Logger.Info("API", fmt.Sprintf("CreatePaymentIntent: registrationId=%s", registrationID))

	intent, err := h.Service.CreatePaymentIntent(r.Context(), registrationID)
	if err != nil {
		h.writeError(w, "CreatePaymentIntent", err)
		return
	}

	resp := models.PaymentIntentResponse{
		RegistrationID: registrationID,
		IntentID:       intent.ID,
		ClientSecret:   intent.ClientSecret,
		Amount:         float64(intent.Amount) / 100,
		Currency:       string(intent.Currency),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreatePaymentIntent: failed to encode response: %v", err))
	}
}
