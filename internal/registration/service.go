package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/pricing"

	"github.com/google/uuid"
)

// ErrRegistrationNotFound is returned for references to unknown
// registration ids.
var ErrRegistrationNotFound = errors.New("registration not found")

// ErrResourceNotFound is returned for references to unknown workshop,
// milonga or table ids.
var ErrResourceNotFound = errors.New("resource not found")

// ErrTableBusy is returned when another instance holds the booking lease
// for the selected table. The caller should retry or pick another table.
var ErrTableBusy = errors.New("table is currently being booked by another registration")

// ValidationError is a malformed or logically-conflicting draft. Never
// fatal, never retried automatically.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err came from draft validation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type DBLayer interface {
	CreateRegistration(ctx context.Context, reg models.Registration) error
	GetRegistrationByID(ctx context.Context, id string) (*models.Registration, error)
	DeleteRegistration(ctx context.Context, reg models.Registration) error
	ListRegistrations(ctx context.Context, eventID string) ([]models.Registration, error)
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, intentID string) error
	GetCurrentEvent(ctx context.Context) (*models.Event, error)
	GetWorkshopsByIDs(ctx context.Context, ids []string) (map[string]models.Workshop, error)
	GetWorkshop(ctx context.Context, id string) (*models.Workshop, error)
	GetMilonga(ctx context.Context, id string) (*models.Milonga, error)
	LoadCatalog(ctx context.Context, eventID string) (pricing.Catalog, error)
}

type RedisLock interface {
	LockTable(number int, registrationID string) (bool, error)
	UnlockTable(number int, registrationID string) error
}

type KafkaPublisher interface {
	PublishRegistrationCreated(reg models.Registration) error
	PublishRegistrationCancelled(reg models.Registration) error
}

// ConfigSource supplies the stored package inclusion rules, when any.
type ConfigSource interface {
	PackageConfig(ctx context.Context, eventID string, pkg models.PackageType) (*models.PackageConfiguration, error)
}

// InventoryReader exposes availability reads for the HTTP surface.
type InventoryReader interface {
	TableAvailability(ctx context.Context, number int) (*models.Availability, error)
	ResourceAvailability(ctx context.Context, kind, resourceID string, capacity int) (*models.Availability, error)
}

type RegistrationService struct {
	DB        DBLayer
	Redis     RedisLock
	Kafka     KafkaPublisher
	Config    ConfigSource
	Inventory InventoryReader

	// Clock is injectable so tier-boundary behavior is deterministic in
	// tests.
	Clock func() time.Time

	calculator pricing.Calculator
	logger     *logger.Logger
}

func NewRegistrationService(db DBLayer, redis RedisLock, kafka KafkaPublisher, cfg ConfigSource, inv InventoryReader, log *logger.Logger) *RegistrationService {
	return &RegistrationService{
		DB:         db,
		Redis:      redis,
		Kafka:      kafka,
		Config:     cfg,
		Inventory:  inv,
		Clock:      time.Now,
		calculator: pricing.NewCalculator(),
		logger:     log,
	}
}

var validPackages = map[models.PackageType]bool{
	models.PackageFull:    true,
	models.PackageEvening: true,
	models.PackageCustom:  true,
	models.PackageInn:     true,
	models.PackageInnPlus: true,
}

var validRoles = map[models.Role]bool{
	models.RoleLeader:   true,
	models.RoleFollower: true,
	models.RoleCouple:   true,
}

func (s *RegistrationService) validateDraft(draft models.RegistrationDraft) error {
	if !validPackages[draft.PackageType] {
		return &ValidationError{Message: fmt.Sprintf("unknown package type %q", draft.PackageType)}
	}
	if !validRoles[draft.Role] {
		return &ValidationError{Message: fmt.Sprintf("unknown role %q", draft.Role)}
	}
	if strings.TrimSpace(draft.FirstName) == "" || strings.TrimSpace(draft.LastName) == "" {
		return &ValidationError{Message: "first and last name are required"}
	}
	if strings.TrimSpace(draft.Email) == "" {
		return &ValidationError{Message: "email is required"}
	}
	return nil
}

// checkScheduleConflicts rejects drafts where two selected workshops share
// an identical (date, time) pair. The error names both titles.
func (s *RegistrationService) checkScheduleConflicts(ctx context.Context, workshopIDs []string) error {
	if len(workshopIDs) < 2 {
		return nil
	}
	workshops, err := s.DB.GetWorkshopsByIDs(ctx, workshopIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve selected workshops: %w", err)
	}

	seen := make(map[string]string, len(workshopIDs))
	for _, id := range workshopIDs {
		w, ok := workshops[id]
		if !ok {
			continue
		}
		slot := w.Date + "|" + w.StartTime
		if other, dup := seen[slot]; dup {
			return &ValidationError{
				Message: fmt.Sprintf("workshops %q and %q are scheduled at the same time", other, w.Title),
			}
		}
		seen[slot] = w.Title
	}
	return nil
}

// Quote prices a draft against the current event without any writes. It is
// the live preview used by the booking wizard.
func (s *RegistrationService) Quote(ctx context.Context, draft models.RegistrationDraft) (pricing.Breakdown, error) {
	ev, err := s.DB.GetCurrentEvent(ctx)
	if err != nil {
		return pricing.Breakdown{}, fmt.Errorf("failed to load current event: %w", err)
	}
	if ev == nil {
		// No current event is a soft failure: the quote is zero.
		return pricing.Breakdown{}, nil
	}

	cat, err := s.DB.LoadCatalog(ctx, ev.ID)
	if err != nil {
		return pricing.Breakdown{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	var cfg *models.PackageConfiguration
	if s.Config != nil {
		cfg, _ = s.Config.PackageConfig(ctx, ev.ID, draft.PackageType)
	}

	return s.calculator.ComputeTotal(draft, ev, cfg, cat, s.Clock()), nil
}

// Create runs the registration transaction: validate, check schedule
// conflicts, compute the total, then persist the registration and the
// table-occupancy adjustment as one atomic unit. A capacity failure leaves
// no orphaned registration.
func (s *RegistrationService) Create(ctx context.Context, draft models.RegistrationDraft) (*models.Registration, error) {
	if err := s.validateDraft(draft); err != nil {
		return nil, err
	}
	if err := s.checkScheduleConflicts(ctx, draft.WorkshopIDs); err != nil {
		return nil, err
	}

	ev, err := s.DB.GetCurrentEvent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load current event: %w", err)
	}

	breakdown := pricing.Breakdown{}
	if ev != nil {
		cat, err := s.DB.LoadCatalog(ctx, ev.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		var cfg *models.PackageConfiguration
		if s.Config != nil {
			cfg, _ = s.Config.PackageConfig(ctx, ev.ID, draft.PackageType)
		}
		breakdown = s.calculator.ComputeTotal(draft, ev, cfg, cat, s.Clock())
	}

	reg := models.Registration{
		ID:            uuid.NewString(),
		PackageType:   draft.PackageType,
		Role:          draft.Role,
		FirstName:     draft.FirstName,
		LastName:      draft.LastName,
		Email:         draft.Email,
		WorkshopIDs:   draft.WorkshopIDs,
		MilongaIDs:    draft.MilongaIDs,
		TableNumber:   draft.TableNumber,
		Addons:        draft.Addons,
		Nights:        draft.Nights,
		TotalAmount:   breakdown.Total,
		PaymentStatus: models.StatusPending,
		CreatedAt:     s.Clock(),
	}
	if ev != nil {
		reg.EventID = ev.ID
	}

	// Advisory cross-instance lease around the commit window. The stored
	// occupancy check inside the transaction stays authoritative.
	if reg.TableNumber != 0 && s.Redis != nil {
		ok, err := s.Redis.LockTable(reg.TableNumber, reg.ID)
		if err != nil {
			return nil, fmt.Errorf("table lock error: %w", err)
		}
		if !ok {
			return nil, ErrTableBusy
		}
		defer func() {
			if err := s.Redis.UnlockTable(reg.TableNumber, reg.ID); err != nil {
				s.logger.Warn("REGISTRATION", fmt.Sprintf("Failed to release table lease %d: %v", reg.TableNumber, err))
			}
		}()
	}

	if err := s.DB.CreateRegistration(ctx, reg); err != nil {
		return nil, err
	}

	s.logger.LogRegistration("CREATE", reg.ID, fmt.Sprintf("%s %s package, total %.2f", reg.Role, reg.PackageType, reg.TotalAmount))

	if s.Kafka != nil {
		if err := s.Kafka.PublishRegistrationCreated(reg); err != nil {
			s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish registration created: %v", err))
		}
	}

	return &reg, nil
}

// Get fetches one live registration.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.Registration, error) {
	reg, err := s.DB.GetRegistrationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRegistrationNotFound, id)
	}
	return reg, nil
}

// Delete is the mirror of Create: release the table seats and remove the
// registration in one transaction. Workshop and milonga enrollment needs no
// explicit release, the next read simply excludes the deleted row.
func (s *RegistrationService) Delete(ctx context.Context, id string) error {
	reg, err := s.DB.GetRegistrationByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRegistrationNotFound, id)
	}

	if reg.TableNumber != 0 {
		unlockNeeded := false
		if s.Redis != nil {
			if ok, err := s.Redis.LockTable(reg.TableNumber, reg.ID); err == nil && ok {
				unlockNeeded = true
			}
		}
		if unlockNeeded {
			defer func() {
				_ = s.Redis.UnlockTable(reg.TableNumber, reg.ID)
			}()
		}
	}

	if err := s.DB.DeleteRegistration(ctx, *reg); err != nil {
		return fmt.Errorf("failed to delete registration %s: %w", id, err)
	}

	s.logger.LogRegistration("DELETE", reg.ID, "registration removed, inventory released")

	if s.Kafka != nil {
		if err := s.Kafka.PublishRegistrationCancelled(*reg); err != nil {
			s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish registration cancelled: %v", err))
		}
	}
	return nil
}

// Availability reports occupancy for one resource. Tables enforce; the
// rest report informationally.
func (s *RegistrationService) Availability(ctx context.Context, kind, resourceID string) (*models.Availability, error) {
	switch kind {
	case "table":
		number := 0
		if _, err := fmt.Sscanf(resourceID, "%d", &number); err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid table number %q", resourceID)}
		}
		return s.Inventory.TableAvailability(ctx, number)
	case "workshop":
		w, err := s.DB.GetWorkshop(ctx, resourceID)
		if err != nil {
			return nil, fmt.Errorf("workshop %s: %w", resourceID, ErrResourceNotFound)
		}
		return s.Inventory.ResourceAvailability(ctx, kind, resourceID, w.LeaderCapacity+w.FollowerCapacity)
	case "milonga":
		m, err := s.DB.GetMilonga(ctx, resourceID)
		if err != nil {
			return nil, fmt.Errorf("milonga %s: %w", resourceID, ErrResourceNotFound)
		}
		return s.Inventory.ResourceAvailability(ctx, kind, resourceID, m.Capacity)
	default:
		return nil, &ValidationError{Message: fmt.Sprintf("unknown resource kind %q", kind)}
	}
}
