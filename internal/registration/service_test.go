package registration_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-registration/internal/inventory"
	"ms-registration/internal/logger"
	"ms-registration/internal/models"
	"ms-registration/internal/pricing"
	"ms-registration/internal/registration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateRegistration(ctx context.Context, reg models.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockDBLayer) GetRegistrationByID(ctx context.Context, id string) (*models.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *MockDBLayer) DeleteRegistration(ctx context.Context, reg models.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockDBLayer) ListRegistrations(ctx context.Context, eventID string) ([]models.Registration, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Registration), args.Error(1)
}

func (m *MockDBLayer) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, intentID string) error {
	args := m.Called(ctx, id, status, intentID)
	return args.Error(0)
}

func (m *MockDBLayer) GetCurrentEvent(ctx context.Context) (*models.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) GetWorkshopsByIDs(ctx context.Context, ids []string) (map[string]models.Workshop, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.Workshop), args.Error(1)
}

func (m *MockDBLayer) GetWorkshop(ctx context.Context, id string) (*models.Workshop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workshop), args.Error(1)
}

func (m *MockDBLayer) GetMilonga(ctx context.Context, id string) (*models.Milonga, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milonga), args.Error(1)
}

func (m *MockDBLayer) LoadCatalog(ctx context.Context, eventID string) (pricing.Catalog, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(pricing.Catalog), args.Error(1)
}

type MockRedisLock struct {
	mock.Mock
}

func (m *MockRedisLock) LockTable(number int, registrationID string) (bool, error) {
	args := m.Called(number, registrationID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRedisLock) UnlockTable(number int, registrationID string) error {
	args := m.Called(number, registrationID)
	return args.Error(0)
}

type MockKafkaPublisher struct {
	mock.Mock
}

func (m *MockKafkaPublisher) PublishRegistrationCreated(reg models.Registration) error {
	args := m.Called(reg)
	return args.Error(0)
}

func (m *MockKafkaPublisher) PublishRegistrationCancelled(reg models.Registration) error {
	args := m.Called(reg)
	return args.Error(0)
}

type MockInventoryReader struct {
	mock.Mock
}

func (m *MockInventoryReader) TableAvailability(ctx context.Context, number int) (*models.Availability, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Availability), args.Error(1)
}

func (m *MockInventoryReader) ResourceAvailability(ctx context.Context, kind, resourceID string, capacity int) (*models.Availability, error) {
	args := m.Called(ctx, kind, resourceID, capacity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Availability), args.Error(1)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func currentEvent() *models.Event {
	return &models.Event{
		ID:                 "event-2026",
		Year:               2026,
		IsCurrent:          true,
		FullStandardPrice:  1500,
		FullEarlyBirdPrice: 1200,
		FullEarlyBirdEnd:   time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
	}
}

func emptyCatalog() pricing.Catalog {
	return pricing.Catalog{
		Workshops: map[string]models.Workshop{},
		Milongas:  map[string]models.Milonga{},
		Tables:    map[int]models.Table{},
		Addons:    map[string]models.Addon{},
	}
}

func newService(db *MockDBLayer, redis *MockRedisLock, kafka *MockKafkaPublisher) *registration.RegistrationService {
	svc := registration.NewRegistrationService(db, redis, kafka, nil, nil, logger.NewLogger())
	svc.Clock = func() time.Time { return fixedNow }
	return svc
}

func validDraft() models.RegistrationDraft {
	return models.RegistrationDraft{
		PackageType: models.PackageFull,
		Role:        models.RoleLeader,
		FirstName:   "Ana",
		LastName:    "Gonzalez",
		Email:       "ana@example.com",
	}
}

func TestCreateRegistration(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockRedis := new(MockRedisLock)
	mockKafka := new(MockKafkaPublisher)
	svc := newService(mockDB, mockRedis, mockKafka)

	mockDB.On("GetCurrentEvent", mock.Anything).Return(currentEvent(), nil)
	mockDB.On("LoadCatalog", mock.Anything, "event-2026").Return(emptyCatalog(), nil)
	mockDB.On("CreateRegistration", mock.Anything, mock.MatchedBy(func(r models.Registration) bool {
		return r.EventID == "event-2026" && r.TotalAmount == 1200.0 && r.PaymentStatus == models.StatusPending
	})).Return(nil)
	mockKafka.On("PublishRegistrationCreated", mock.Anything).Return(nil)

	reg, err := svc.Create(context.Background(), validDraft())

	assert.NoError(t, err)
	require.NotNil(t, reg)
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, 1200.0, reg.TotalAmount)
	mockDB.AssertExpectations(t)
	mockKafka.AssertExpectations(t)
}

func TestCreateRegistrationValidation(t *testing.T) {
	svc := newService(new(MockDBLayer), new(MockRedisLock), new(MockKafkaPublisher))

	cases := []struct {
		name   string
		mutate func(*models.RegistrationDraft)
	}{
		{"unknown package", func(d *models.RegistrationDraft) { d.PackageType = "vip" }},
		{"unknown role", func(d *models.RegistrationDraft) { d.Role = "observer" }},
		{"missing name", func(d *models.RegistrationDraft) { d.FirstName = "  " }},
		{"missing email", func(d *models.RegistrationDraft) { d.Email = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(&draft)
			_, err := svc.Create(context.Background(), draft)
			assert.Error(t, err)
			assert.True(t, registration.IsValidationError(err))
		})
	}
}

func TestCreateRegistrationScheduleConflict(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB, new(MockRedisLock), new(MockKafkaPublisher))

	draft := validDraft()
	draft.WorkshopIDs = []string{"w1", "w2"}

	mockDB.On("GetWorkshopsByIDs", mock.Anything, draft.WorkshopIDs).Return(map[string]models.Workshop{
		"w1": {ID: "w1", Title: "Close Embrace Fundamentals", Date: "2026-06-12", StartTime: "10:00"},
		"w2": {ID: "w2", Title: "Advanced Sacadas", Date: "2026-06-12", StartTime: "10:00"},
	}, nil)

	_, err := svc.Create(context.Background(), draft)

	require.Error(t, err)
	assert.True(t, registration.IsValidationError(err))
	// The error names both colliding workshops.
	assert.Contains(t, err.Error(), "Close Embrace Fundamentals")
	assert.Contains(t, err.Error(), "Advanced Sacadas")
	mockDB.AssertNotCalled(t, "CreateRegistration", mock.Anything, mock.Anything)
}

func TestCreateRegistrationDistinctSlotsPass(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockKafka := new(MockKafkaPublisher)
	svc := newService(mockDB, new(MockRedisLock), mockKafka)

	draft := validDraft()
	draft.WorkshopIDs = []string{"w1", "w2"}

	// Same time on different days is not a conflict.
	mockDB.On("GetWorkshopsByIDs", mock.Anything, draft.WorkshopIDs).Return(map[string]models.Workshop{
		"w1": {ID: "w1", Title: "Close Embrace Fundamentals", Date: "2026-06-12", StartTime: "10:00"},
		"w2": {ID: "w2", Title: "Advanced Sacadas", Date: "2026-06-13", StartTime: "10:00"},
	}, nil)
	mockDB.On("GetCurrentEvent", mock.Anything).Return(currentEvent(), nil)
	mockDB.On("LoadCatalog", mock.Anything, "event-2026").Return(emptyCatalog(), nil)
	mockDB.On("CreateRegistration", mock.Anything, mock.Anything).Return(nil)
	mockKafka.On("PublishRegistrationCreated", mock.Anything).Return(nil)

	_, err := svc.Create(context.Background(), draft)
	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestCreateRegistrationTableLease(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockRedis := new(MockRedisLock)
	mockKafka := new(MockKafkaPublisher)
	svc := newService(mockDB, mockRedis, mockKafka)

	draft := validDraft()
	draft.TableNumber = 7

	mockDB.On("GetCurrentEvent", mock.Anything).Return(currentEvent(), nil)
	mockDB.On("LoadCatalog", mock.Anything, "event-2026").Return(emptyCatalog(), nil)
	mockRedis.On("LockTable", 7, mock.Anything).Return(true, nil)
	mockRedis.On("UnlockTable", 7, mock.Anything).Return(nil)
	mockDB.On("CreateRegistration", mock.Anything, mock.Anything).Return(nil)
	mockKafka.On("PublishRegistrationCreated", mock.Anything).Return(nil)

	_, err := svc.Create(context.Background(), draft)
	assert.NoError(t, err)
	mockRedis.AssertExpectations(t)
}

func TestCreateRegistrationTableBusy(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockRedis := new(MockRedisLock)
	svc := newService(mockDB, mockRedis, new(MockKafkaPublisher))

	draft := validDraft()
	draft.TableNumber = 7

	mockDB.On("GetCurrentEvent", mock.Anything).Return(currentEvent(), nil)
	mockDB.On("LoadCatalog", mock.Anything, "event-2026").Return(emptyCatalog(), nil)
	mockRedis.On("LockTable", 7, mock.Anything).Return(false, nil)

	_, err := svc.Create(context.Background(), draft)
	assert.ErrorIs(t, err, registration.ErrTableBusy)
	mockDB.AssertNotCalled(t, "CreateRegistration", mock.Anything, mock.Anything)
}

func TestCreateRegistrationCapacityFailure(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockRedis := new(MockRedisLock)
	mockKafka := new(MockKafkaPublisher)
	svc := newService(mockDB, mockRedis, mockKafka)

	draft := validDraft()
	draft.Role = models.RoleCouple
	draft.TableNumber = 7

	capErr := &inventory.CapacityError{TableNumber: 7, Requested: 2, Available: 1}

	mockDB.On("GetCurrentEvent", mock.Anything).Return(currentEvent(), nil)
	mockDB.On("LoadCatalog", mock.Anything, "event-2026").Return(emptyCatalog(), nil)
	mockRedis.On("LockTable", 7, mock.Anything).Return(true, nil)
	mockRedis.On("UnlockTable", 7, mock.Anything).Return(nil)
	mockDB.On("CreateRegistration", mock.Anything, mock.Anything).Return(capErr)

	_, err := svc.Create(context.Background(), draft)

	require.Error(t, err)
	assert.True(t, inventory.IsCapacityError(err))
	// The lease is released even on failure and nothing is published.
	mockRedis.AssertCalled(t, "UnlockTable", 7, mock.Anything)
	mockKafka.AssertNotCalled(t, "PublishRegistrationCreated", mock.Anything)
}

func TestCreateRegistrationNoCurrentEvent(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockKafka := new(MockKafkaPublisher)
	svc := newService(mockDB, new(MockRedisLock), mockKafka)

	mockDB.On("GetCurrentEvent", mock.Anything).Return(nil, nil)
	mockDB.On("CreateRegistration", mock.Anything, mock.MatchedBy(func(r models.Registration) bool {
		return r.TotalAmount == 0 && r.EventID == ""
	})).Return(nil)
	mockKafka.On("PublishRegistrationCreated", mock.Anything).Return(nil)

	reg, err := svc.Create(context.Background(), validDraft())
	assert.NoError(t, err)
	assert.Equal(t, 0.0, reg.TotalAmount)
}

func TestQuoteDoesNotPersist(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB, new(MockRedisLock), new(MockKafkaPublisher))

	mockDB.On("GetCurrentEvent", mock.Anything).Return(currentEvent(), nil)
	mockDB.On("LoadCatalog", mock.Anything, "event-2026").Return(emptyCatalog(), nil)

	b, err := svc.Quote(context.Background(), validDraft())
	assert.NoError(t, err)
	assert.Equal(t, 1200.0, b.Total)
	mockDB.AssertNotCalled(t, "CreateRegistration", mock.Anything, mock.Anything)
}

func TestDeleteRegistration(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockRedis := new(MockRedisLock)
	mockKafka := new(MockKafkaPublisher)
	svc := newService(mockDB, mockRedis, mockKafka)

	reg := &models.Registration{
		ID:          "reg-1",
		EventID:     "event-2026",
		PackageType: models.PackageFull,
		Role:        models.RoleCouple,
		TableNumber: 7,
	}

	mockDB.On("GetRegistrationByID", mock.Anything, "reg-1").Return(reg, nil)
	mockRedis.On("LockTable", 7, "reg-1").Return(true, nil)
	mockRedis.On("UnlockTable", 7, "reg-1").Return(nil)
	mockDB.On("DeleteRegistration", mock.Anything, *reg).Return(nil)
	mockKafka.On("PublishRegistrationCancelled", *reg).Return(nil)

	err := svc.Delete(context.Background(), "reg-1")
	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
	mockKafka.AssertExpectations(t)
}

func TestDeleteRegistrationNotFound(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB, new(MockRedisLock), new(MockKafkaPublisher))

	mockDB.On("GetRegistrationByID", mock.Anything, "missing").Return(nil, errors.New("sql: no rows in result set"))

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, registration.ErrRegistrationNotFound)
}

func TestAvailability(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockInv := new(MockInventoryReader)
	svc := registration.NewRegistrationService(mockDB, new(MockRedisLock), new(MockKafkaPublisher), nil, mockInv, logger.NewLogger())

	mockInv.On("TableAvailability", mock.Anything, 7).Return(&models.Availability{
		ResourceID: "7", Kind: "table", Occupied: 4, Capacity: 8, Enforced: true,
	}, nil)

	availability, err := svc.Availability(context.Background(), "table", "7")
	assert.NoError(t, err)
	assert.Equal(t, 4, availability.Occupied)

	workshop := &models.Workshop{ID: "w1", LeaderCapacity: 20, FollowerCapacity: 20}
	mockDB.On("GetWorkshop", mock.Anything, "w1").Return(workshop, nil)
	mockInv.On("ResourceAvailability", mock.Anything, "workshop", "w1", 40).Return(&models.Availability{
		ResourceID: "w1", Kind: "workshop", Occupied: 12, Capacity: 40,
	}, nil)

	availability, err = svc.Availability(context.Background(), "workshop", "w1")
	assert.NoError(t, err)
	assert.Equal(t, 12, availability.Occupied)

	_, err = svc.Availability(context.Background(), "table", "not-a-number")
	assert.True(t, registration.IsValidationError(err))

	_, err = svc.Availability(context.Background(), "banquet", "x")
	assert.True(t, registration.IsValidationError(err))
}

func TestCreateSurvivesKafkaFailure(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockKafka := new(MockKafkaPublisher)
	svc := newService(mockDB, new(MockRedisLock), mockKafka)

	mockDB.On("GetCurrentEvent", mock.Anything).Return(currentEvent(), nil)
	mockDB.On("LoadCatalog", mock.Anything, "event-2026").Return(emptyCatalog(), nil)
	mockDB.On("CreateRegistration", mock.Anything, mock.Anything).Return(nil)
	mockKafka.On("PublishRegistrationCreated", mock.Anything).Return(errors.New("broker down"))

	reg, err := svc.Create(context.Background(), validDraft())
	assert.NoError(t, err)
	assert.NotNil(t, reg)
}
