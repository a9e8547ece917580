package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"guardpost/config"
	"guardpost/internal/database"
	"guardpost/internal/events"
	"guardpost/internal/models"
	"guardpost/internal/repositories"
	"guardpost/internal/scheduling"
	"guardpost/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Mock repositories

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByStatus(ctx context.Context, statuses []models.OrderStatus) ([]models.Order, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListSweepable(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.OrderStatus) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

type MockShiftRepository struct {
	mock.Mock
}

func (m *MockShiftRepository) CreateBatch(ctx context.Context, tx *gorm.DB, shifts []*models.Shift) error {
	args := m.Called(ctx, tx, shifts)
	return args.Error(0)
}

func (m *MockShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shift), args.Error(1)
}

func (m *MockShiftRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Shift, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shift), args.Error(1)
}

func (m *MockShiftRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Shift, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Shift), args.Error(1)
}

func (m *MockShiftRepository) ListByGuard(ctx context.Context, guardID uuid.UUID) ([]models.Shift, error) {
	args := m.Called(ctx, guardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Shift), args.Error(1)
}

func (m *MockShiftRepository) ListTimeDerived(ctx context.Context) ([]models.Shift, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Shift), args.Error(1)
}

func (m *MockShiftRepository) ListEndedBefore(ctx context.Context, cutoff time.Time) ([]models.Shift, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Shift), args.Error(1)
}

func (m *MockShiftRepository) Update(ctx context.Context, tx *gorm.DB, shift *models.Shift) error {
	args := m.Called(ctx, tx, shift)
	return args.Error(0)
}

func (m *MockShiftRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.ShiftStatus) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

// stubPublisher records published events instead of pushing them to valkey.
type stubPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *stubPublisher) Publish(channel events.Channel, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newSweepJob(
	t *testing.T,
	orderRepo *MockOrderRepository,
	shiftRepo *MockShiftRepository,
	now time.Time,
) (*LifecycleSweepJob, *stubPublisher) {
	t.Helper()

	clock, err := scheduling.NewClockAt("UTC", now)
	require.NoError(t, err)

	publisher := &stubPublisher{}
	notification := services.NewNotificationService(repositories.Repository{}, database.DB{}, publisher)

	repos := repositories.Repository{
		Order: orderRepo,
		Shift: shiftRepo,
	}
	cfg := config.Config{MissedEventGraceMinutes: 60}

	return NewLifecycleSweepJob(repos, notification, clock, cfg, database.DB{}, DailyMaintenance), publisher
}

func shiftAt(status models.ShiftStatus, startsAt, endsAt time.Time) models.Shift {
	shift := models.Shift{
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Status:   status,
	}
	shift.ID = uuid.New()
	return shift
}

func TestLifecycleSweep_Execute(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	started := "2026-03-10"
	future := "2026-03-12"
	ongoingOrder := models.Order{StartDate: "2026-03-09", EndDate: &future, Status: models.OrderOngoing}
	ongoingOrder.ID = uuid.New()
	startedOrder := models.Order{StartDate: started, Status: models.OrderUpcoming}
	startedOrder.ID = uuid.New()

	// Window already over but the guard never responded. Stays pending on
	// the response axis yet completes on the time axis.
	elapsedPending := shiftAt(models.ShiftPending,
		time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC))
	// Window not open yet. Pending must not be promoted to upcoming.
	futurePending := shiftAt(models.ShiftPending,
		time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC))
	startedUpcoming := shiftAt(models.ShiftUpcoming,
		time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC))
	currentOngoing := shiftAt(models.ShiftOngoing,
		time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))

	ended := shiftAt(models.ShiftCompleted,
		time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC))
	clockIn := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	overtimeStart := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)

	unresponded := ended
	unresponded.ID = uuid.New()
	unresponded.Assignments = []models.Assignment{{Response: models.ResponsePending}}

	noShow := ended
	noShow.ID = uuid.New()
	noShow.Assignments = []models.Assignment{{Response: models.ResponseAccepted}}

	openOvertime := ended
	openOvertime.ID = uuid.New()
	openOvertime.Status = models.ShiftOvertimeStarted
	openOvertime.Assignments = []models.Assignment{{
		Response:        models.ResponseAccepted,
		ClockInAt:       &clockIn,
		OvertimeStartAt: &overtimeStart,
	}}

	stillWorking := ended
	stillWorking.ID = uuid.New()
	stillWorking.Assignments = []models.Assignment{{
		Response:  models.ResponseAccepted,
		ClockInAt: &clockIn,
	}}

	orderRepo := &MockOrderRepository{}
	orderRepo.On("ListSweepable", mock.Anything).Return([]models.Order{ongoingOrder, startedOrder}, nil)
	orderRepo.On("UpdateStatus", mock.Anything, mock.Anything, startedOrder.ID, models.OrderOngoing).Return(nil)

	shiftRepo := &MockShiftRepository{}
	shiftRepo.On("ListTimeDerived", mock.Anything).
		Return([]models.Shift{elapsedPending, futurePending, startedUpcoming, currentOngoing}, nil)
	shiftRepo.On("ListEndedBefore", mock.Anything, now.Add(-60*time.Minute)).
		Return([]models.Shift{unresponded, noShow, openOvertime, stillWorking}, nil)
	shiftRepo.On("UpdateStatus", mock.Anything, mock.Anything, elapsedPending.ID, models.ShiftCompleted).Return(nil)
	shiftRepo.On("UpdateStatus", mock.Anything, mock.Anything, startedUpcoming.ID, models.ShiftOngoing).Return(nil)
	shiftRepo.On("UpdateStatus", mock.Anything, mock.Anything, unresponded.ID, models.ShiftMissedRespond).Return(nil)
	shiftRepo.On("UpdateStatus", mock.Anything, mock.Anything, noShow.ID, models.ShiftAbsent).Return(nil)
	shiftRepo.On("UpdateStatus", mock.Anything, mock.Anything, openOvertime.ID, models.ShiftMissedEndOvertime).Return(nil)

	job, publisher := newSweepJob(t, orderRepo, shiftRepo, now)

	err := job.Execute(context.Background())
	require.NoError(t, err)

	orderRepo.AssertExpectations(t)
	shiftRepo.AssertExpectations(t)
	shiftRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, futurePending.ID, mock.Anything)
	shiftRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, currentOngoing.ID, mock.Anything)
	shiftRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, stillWorking.ID, mock.Anything)

	assert.Equal(t, 6, publisher.count())
}

func TestLifecycleSweep_SecondRunWritesNothing(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	future := "2026-03-12"
	order := models.Order{StartDate: "2026-03-09", EndDate: &future, Status: models.OrderOngoing}
	order.ID = uuid.New()

	shift := shiftAt(models.ShiftOngoing,
		time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))

	clockIn := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	clockOut := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
	settled := shiftAt(models.ShiftCompleted,
		time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC))
	settled.Assignments = []models.Assignment{{
		Response:   models.ResponseAccepted,
		ClockInAt:  &clockIn,
		ClockOutAt: &clockOut,
	}}

	orderRepo := &MockOrderRepository{}
	orderRepo.On("ListSweepable", mock.Anything).Return([]models.Order{order}, nil)

	shiftRepo := &MockShiftRepository{}
	shiftRepo.On("ListTimeDerived", mock.Anything).Return([]models.Shift{shift}, nil)
	shiftRepo.On("ListEndedBefore", mock.Anything, mock.Anything).Return([]models.Shift{settled}, nil)

	job, publisher := newSweepJob(t, orderRepo, shiftRepo, now)

	err := job.Execute(context.Background())
	require.NoError(t, err)

	orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	shiftRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, publisher.count())
}

func TestPromoteMissedStatus(t *testing.T) {
	clockIn := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	clockOut := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
	overtimeStart := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		status     models.ShiftStatus
		assignment *models.Assignment
		want       *models.ShiftStatus
	}{
		{
			name:   "unassigned shift is left alone",
			status: models.ShiftCompleted,
		},
		{
			name:       "never responded",
			status:     models.ShiftCompleted,
			assignment: &models.Assignment{Response: models.ResponsePending},
			want:       statusPtr(models.ShiftMissedRespond),
		},
		{
			name:       "accepted but never clocked in",
			status:     models.ShiftCompleted,
			assignment: &models.Assignment{Response: models.ResponseAccepted},
			want:       statusPtr(models.ShiftAbsent),
		},
		{
			name:   "open overtime interval",
			status: models.ShiftOvertimeStarted,
			assignment: &models.Assignment{
				Response:        models.ResponseAccepted,
				ClockInAt:       &clockIn,
				OvertimeStartAt: &overtimeStart,
			},
			want: statusPtr(models.ShiftMissedEndOvertime),
		},
		{
			name:   "open clocked-in interval is left alone",
			status: models.ShiftCompleted,
			assignment: &models.Assignment{
				Response:  models.ResponseAccepted,
				ClockInAt: &clockIn,
			},
		},
		{
			name:   "fully settled assignment",
			status: models.ShiftCompleted,
			assignment: &models.Assignment{
				Response:   models.ResponseAccepted,
				ClockInAt:  &clockIn,
				ClockOutAt: &clockOut,
			},
		},
		{
			name:       "already promoted",
			status:     models.ShiftMissedRespond,
			assignment: &models.Assignment{Response: models.ResponsePending},
		},
		{
			name:       "rejected shift needs no clock events",
			status:     models.ShiftCancelled,
			assignment: &models.Assignment{Response: models.ResponseRejected},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shift := &models.Shift{Status: tt.status}
			if tt.assignment != nil {
				shift.Assignments = []models.Assignment{*tt.assignment}
			}

			got := promoteMissedStatus(shift)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func statusPtr(s models.ShiftStatus) *models.ShiftStatus {
	return &s
}
