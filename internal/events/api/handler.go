package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-registration/internal/events"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/pricing/tiers"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *events.EventService
	Tiers   *tiers.Service
	Logger  *logger.Logger
}

func NewHandler(service *events.EventService, tierService *tiers.Service) *Handler {
	return &Handler{
		Service: service,
		Tiers:   tierService,
		Logger:  logger.NewLogger(),
	}
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	switch {
	case errors.Is(err, events.ErrEventNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, events.ErrNoParentEvent):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var ev models.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.Service.CreateEvent(r.Context(), ev)
	if err != nil {
		h.writeError(w, "CreateEvent", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	ev, err := h.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		h.writeError(w, "GetEvent", err)
		return
	}
	h.writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListEvents(r.Context())
	if err != nil {
		h.writeError(w, "ListEvents", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var ev models.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	ev.ID = chi.URLParam(r, "eventId")
	if err := h.Service.UpdateEvent(r.Context(), ev); err != nil {
		h.writeError(w, "UpdateEvent", err)
		return
	}
	h.writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("SetCurrent: eventId=%s", eventID))
	if err := h.Service.SetCurrent(r.Context(), eventID); err != nil {
		h.writeError(w, "SetCurrent", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateWorkshop(w http.ResponseWriter, r *http.Request) {
	var workshop models.Workshop
	if err := json.NewDecoder(r.Body).Decode(&workshop); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	workshop.EventID = chi.URLParam(r, "eventId")
	created, err := h.Service.CreateWorkshop(r.Context(), workshop)
	if err != nil {
		h.writeError(w, "CreateWorkshop", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListWorkshops(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListWorkshops(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, "ListWorkshops", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateMilonga(w http.ResponseWriter, r *http.Request) {
	var milonga models.Milonga
	if err := json.NewDecoder(r.Body).Decode(&milonga); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	milonga.EventID = chi.URLParam(r, "eventId")
	created, err := h.Service.CreateMilonga(r.Context(), milonga)
	if err != nil {
		h.writeError(w, "CreateMilonga", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListMilongas(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListMilongas(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, "ListMilongas", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var table models.Table
	if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	table.EventID = chi.URLParam(r, "eventId")
	created, err := h.Service.CreateTable(r.Context(), table)
	if err != nil {
		h.writeError(w, "CreateTable", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListTables(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, "ListTables", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateAddon(w http.ResponseWriter, r *http.Request) {
	var addon models.Addon
	if err := json.NewDecoder(r.Body).Decode(&addon); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	addon.EventID = chi.URLParam(r, "eventId")
	created, err := h.Service.CreateAddon(r.Context(), addon)
	if err != nil {
		h.writeError(w, "CreateAddon", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListAddons(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListAddons(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, "ListAddons", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreatePricingTier(w http.ResponseWriter, r *http.Request) {
	var tier models.PricingTier
	if err := json.NewDecoder(r.Body).Decode(&tier); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	tier.EventID = chi.URLParam(r, "eventId")
	created, err := h.Service.CreatePricingTier(r.Context(), tier)
	if err != nil {
		h.writeError(w, "CreatePricingTier", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListPricingTiers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListPricingTiers(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, "ListPricingTiers", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// GetActiveTier reports the single promotion currently in effect, if any.
func (h *Handler) GetActiveTier(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	tier, err := h.Tiers.ActiveTier(r.Context(), eventID, time.Now())
	if err != nil {
		h.writeError(w, "GetActiveTier", err)
		return
	}
	if tier == nil {
		http.Error(w, "No active pricing tier", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, tier)
}

func (h *Handler) SavePackageConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.PackageConfiguration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	cfg.EventID = chi.URLParam(r, "eventId")
	if err := h.Service.SavePackageConfig(r.Context(), cfg); err != nil {
		h.writeError(w, "SavePackageConfig", err)
		return
	}
	h.writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) CreateAccommodationRate(w http.ResponseWriter, r *http.Request) {
	var rate models.AccommodationRate
	if err := json.NewDecoder(r.Body).Decode(&rate); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	rate.EventID = chi.URLParam(r, "eventId")
	if err := h.Service.CreateAccommodationRate(r.Context(), rate); err != nil {
		h.writeError(w, "CreateAccommodationRate", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rate)
}
