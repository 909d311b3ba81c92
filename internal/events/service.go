package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-registration/internal/logger"
	"ms-registration/internal/models"

	"github.com/google/uuid"
)

// ErrEventNotFound is returned for references to unknown event ids.
var ErrEventNotFound = errors.New("event not found")

// ErrNoParentEvent is returned when a workshop, milonga, table or addon is
// created against a missing event. Orphaned resources are never priced, so
// this is a hard failure rather than a silent insert.
var ErrNoParentEvent = errors.New("resource must belong to an existing event")

type DBLayer interface {
	CreateEvent(ctx context.Context, ev models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	UpdateEvent(ctx context.Context, ev models.Event) error
	SetCurrentEvent(ctx context.Context, id string) error
	EventExists(ctx context.Context, id string) (bool, error)

	CreateWorkshop(ctx context.Context, w models.Workshop) error
	UpdateWorkshop(ctx context.Context, w models.Workshop) error
	DeleteWorkshop(ctx context.Context, id string) error
	ListWorkshops(ctx context.Context, eventID string) ([]models.Workshop, error)
	CreateMilonga(ctx context.Context, m models.Milonga) error
	ListMilongas(ctx context.Context, eventID string) ([]models.Milonga, error)
	CreateTable(ctx context.Context, t models.Table) error
	ListTables(ctx context.Context, eventID string) ([]models.Table, error)
	CreateAddon(ctx context.Context, a models.Addon) error
	ListAddons(ctx context.Context, eventID string) ([]models.Addon, error)
	CreatePricingTier(ctx context.Context, tier models.PricingTier) error
	ListPricingTiers(ctx context.Context, eventID string) ([]models.PricingTier, error)
	UpsertPackageConfig(ctx context.Context, cfg models.PackageConfiguration) error
	CreateAccommodationRate(ctx context.Context, rate models.AccommodationRate) error
}

type EventService struct {
	DB     DBLayer
	logger *logger.Logger
}

func NewEventService(db DBLayer, log *logger.Logger) *EventService {
	return &EventService{DB: db, logger: log}
}

func (s *EventService) CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Year == 0 {
		ev.Year = ev.StartDate.Year()
	}
	if ev.EndDate.Before(ev.StartDate) {
		return nil, fmt.Errorf("event end date %s precedes start date %s",
			ev.EndDate.Format(time.DateOnly), ev.StartDate.Format(time.DateOnly))
	}
	ev.CreatedAt = time.Now()
	if err := s.DB.CreateEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s.logger.Info("EVENT", fmt.Sprintf("Created event %s (%d)", ev.ID, ev.Year))
	return &ev, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	ev, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return ev, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.DB.ListEvents(ctx)
}

func (s *EventService) UpdateEvent(ctx context.Context, ev models.Event) error {
	if _, err := s.DB.GetEventByID(ctx, ev.ID); err != nil {
		return fmt.Errorf("%w: %s", ErrEventNotFound, ev.ID)
	}
	return s.DB.UpdateEvent(ctx, ev)
}

// SetCurrent marks one event as the registration target. At most one event
// is current at any time.
func (s *EventService) SetCurrent(ctx context.Context, id string) error {
	if err := s.DB.SetCurrentEvent(ctx, id); err != nil {
		return fmt.Errorf("failed to set current event: %w", err)
	}
	s.logger.Info("EVENT", fmt.Sprintf("Event %s is now current", id))
	return nil
}

func (s *EventService) requireEvent(ctx context.Context, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return ErrNoParentEvent
	}
	exists, err := s.DB.EventExists(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to check event %s: %w", eventID, err)
	}
	if !exists {
		return fmt.Errorf("%w: event %s", ErrNoParentEvent, eventID)
	}
	return nil
}

func (s *EventService) CreateWorkshop(ctx context.Context, w models.Workshop) (*models.Workshop, error) {
	if err := s.requireEvent(ctx, w.EventID); err != nil {
		return nil, err
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if strings.TrimSpace(w.Title) == "" {
		return nil, errors.New("workshop title is required")
	}
	if err := s.DB.CreateWorkshop(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create workshop: %w", err)
	}
	return &w, nil
}

func (s *EventService) UpdateWorkshop(ctx context.Context, w models.Workshop) error {
	return s.DB.UpdateWorkshop(ctx, w)
}

func (s *EventService) DeleteWorkshop(ctx context.Context, id string) error {
	return s.DB.DeleteWorkshop(ctx, id)
}

func (s *EventService) ListWorkshops(ctx context.Context, eventID string) ([]models.Workshop, error) {
	return s.DB.ListWorkshops(ctx, eventID)
}

func (s *EventService) CreateMilonga(ctx context.Context, m models.Milonga) (*models.Milonga, error) {
	if err := s.requireEvent(ctx, m.EventID); err != nil {
		return nil, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := s.DB.CreateMilonga(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create milonga: %w", err)
	}
	return &m, nil
}

func (s *EventService) ListMilongas(ctx context.Context, eventID string) ([]models.Milonga, error) {
	return s.DB.ListMilongas(ctx, eventID)
}

func (s *EventService) CreateTable(ctx context.Context, t models.Table) (*models.Table, error) {
	if err := s.requireEvent(ctx, t.EventID); err != nil {
		return nil, err
	}
	if t.Number <= 0 {
		return nil, errors.New("table number must be positive")
	}
	if t.TotalSeats <= 0 {
		return nil, errors.New("table must have at least one seat")
	}
	if t.OccupiedSeats < 0 || t.OccupiedSeats > t.TotalSeats {
		return nil, fmt.Errorf("occupied seats %d out of range for %d total", t.OccupiedSeats, t.TotalSeats)
	}
	if err := s.DB.CreateTable(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &t, nil
}

func (s *EventService) ListTables(ctx context.Context, eventID string) ([]models.Table, error) {
	return s.DB.ListTables(ctx, eventID)
}

func (s *EventService) CreateAddon(ctx context.Context, a models.Addon) (*models.Addon, error) {
	if err := s.requireEvent(ctx, a.EventID); err != nil {
		return nil, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := s.DB.CreateAddon(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create addon: %w", err)
	}
	return &a, nil
}

func (s *EventService) ListAddons(ctx context.Context, eventID string) ([]models.Addon, error) {
	return s.DB.ListAddons(ctx, eventID)
}

func (s *EventService) CreatePricingTier(ctx context.Context, tier models.PricingTier) (*models.PricingTier, error) {
	if err := s.requireEvent(ctx, tier.EventID); err != nil {
		return nil, err
	}
	if tier.EndDate.Before(tier.StartDate) {
		return nil, errors.New("tier end date precedes start date")
	}
	if tier.DiscountPercent < 0 || tier.DiscountPercent > 100 {
		return nil, fmt.Errorf("discount percent %.2f out of range", tier.DiscountPercent)
	}
	if err := s.DB.CreatePricingTier(ctx, tier); err != nil {
		return nil, fmt.Errorf("failed to create pricing tier: %w", err)
	}
	return &tier, nil
}

func (s *EventService) ListPricingTiers(ctx context.Context, eventID string) ([]models.PricingTier, error) {
	return s.DB.ListPricingTiers(ctx, eventID)
}

func (s *EventService) SavePackageConfig(ctx context.Context, cfg models.PackageConfiguration) error {
	if err := s.requireEvent(ctx, cfg.EventID); err != nil {
		return err
	}
	if cfg.CoupleMultiplier == 0 {
		cfg.CoupleMultiplier = 2
	}
	return s.DB.UpsertPackageConfig(ctx, cfg)
}

func (s *EventService) CreateAccommodationRate(ctx context.Context, rate models.AccommodationRate) error {
	if err := s.requireEvent(ctx, rate.EventID); err != nil {
		return err
	}
	if !rate.PackageType.IsAccommodation() {
		return fmt.Errorf("package type %q carries no accommodation", rate.PackageType)
	}
	return s.DB.CreateAccommodationRate(ctx, rate)
}
