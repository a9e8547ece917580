package orderController

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

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

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

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetActiveGuards(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) ListOperators(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) CreateBatch(ctx context.Context, tx *gorm.DB, notifications []*models.Notification) error {
	args := m.Called(ctx, tx, notifications)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, recipientID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}

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

type testFixture struct {
	controller *OrderController
	orderRepo  *MockOrderRepository
	sqlMock    sqlmock.Sqlmock
	publisher  *stubPublisher
}

func newFixture(t *testing.T, now time.Time) *testFixture {
	t.Helper()

	conn, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	require.NoError(t, err)
	db := database.DB{SQL: gormDB}

	clock, err := scheduling.NewClockAt("UTC", now)
	require.NoError(t, err)

	orderRepo := &MockOrderRepository{}
	userRepo := &MockUserRepository{}
	userRepo.On("ListOperators", mock.Anything).Return([]models.User{}, nil).Maybe()
	notificationRepo := &MockNotificationRepository{}
	notificationRepo.On("CreateBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	repos := repositories.Repository{
		Order:        orderRepo,
		User:         userRepo,
		Notification: notificationRepo,
	}

	publisher := &stubPublisher{}
	svc := services.Service{
		Transaction:  services.NewTransactionService(db),
		Notification: services.NewNotificationService(repos, db, publisher),
		Clock:        clock,
	}

	controller := New(repos, svc, config.Config{}, db).(*OrderController)

	return &testFixture{
		controller: controller,
		orderRepo:  orderRepo,
		sqlMock:    sqlMock,
		publisher:  publisher,
	}
}

func testClient() *models.User {
	client := &models.User{Role: models.RoleClient, IsActive: true}
	client.ID = uuid.New()
	return client
}

func testOperator() *models.User {
	operator := &models.User{Role: models.RoleOperator, IsActive: true}
	operator.ID = uuid.New()
	return operator
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestCreateOrder_Validation(t *testing.T) {
	endBeforeStart := "2026-03-08"
	dailyStart := "08:00"

	tests := []struct {
		name    string
		request CreateOrderRequest
	}{
		{
			name: "missing service type",
			request: CreateOrderRequest{
				LocationName:   "Warehouse 4",
				GuardsRequired: 1,
				StartDate:      "2026-03-11",
			},
		},
		{
			name: "unknown service type",
			request: CreateOrderRequest{
				ServiceType:    "retail",
				LocationName:   "Warehouse 4",
				GuardsRequired: 1,
				StartDate:      "2026-03-11",
			},
		},
		{
			name: "zero guards",
			request: CreateOrderRequest{
				ServiceType:  models.ServiceStatic,
				LocationName: "Warehouse 4",
				StartDate:    "2026-03-11",
			},
		},
		{
			name: "malformed start date",
			request: CreateOrderRequest{
				ServiceType:    models.ServiceStatic,
				LocationName:   "Warehouse 4",
				GuardsRequired: 1,
				StartDate:      "11-03-2026",
			},
		},
		{
			name: "end date before start date",
			request: CreateOrderRequest{
				ServiceType:    models.ServiceStatic,
				LocationName:   "Warehouse 4",
				GuardsRequired: 1,
				StartDate:      "2026-03-11",
				EndDate:        &endBeforeStart,
			},
		},
		{
			name: "daily start without daily end",
			request: CreateOrderRequest{
				ServiceType:    models.ServiceStatic,
				LocationName:   "Warehouse 4",
				GuardsRequired: 1,
				StartDate:      "2026-03-11",
				DailyStartTime: &dailyStart,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newFixture(t, testNow)

			order, err := fixture.controller.CreateOrder(context.Background(), testClient(), &tt.request)

			assert.Nil(t, order)
			assert.ErrorIs(t, err, ErrValidation)
			fixture.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateOrder_StartsPending(t *testing.T) {
	fixture := newFixture(t, testNow)
	client := testClient()

	fixture.orderRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	end := "2026-03-14"
	start := "08:00"
	endTime := "20:00"
	order, err := fixture.controller.CreateOrder(context.Background(), client, &CreateOrderRequest{
		ServiceType:    models.ServicePatrol,
		LocationName:   "Harbor Terminal",
		GuardsRequired: 2,
		StartDate:      "2026-03-11",
		EndDate:        &end,
		DailyStartTime: &start,
		DailyEndTime:   &endTime,
	})

	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, client.ID, order.ClientID)
	fixture.orderRepo.AssertExpectations(t)
}

func TestAcceptOrder(t *testing.T) {
	pastDay := "2026-03-09"
	today := "2026-03-10"
	tomorrow := "2026-03-11"
	eveningStart := "18:00"
	eveningEnd := "02:00"

	tests := []struct {
		name  string
		order models.Order
		want  models.OrderStatus
	}{
		{
			name:  "future order becomes upcoming",
			order: models.Order{StartDate: tomorrow, Status: models.OrderPending},
			want:  models.OrderUpcoming,
		},
		{
			name:  "elapsed start becomes missed",
			order: models.Order{StartDate: pastDay, Status: models.OrderPending},
			want:  models.OrderMissed,
		},
		{
			name: "today with a window still ahead stays upcoming",
			order: models.Order{
				StartDate:      today,
				DailyStartTime: &eveningStart,
				DailyEndTime:   &eveningEnd,
				Status:         models.OrderPending,
			},
			want: models.OrderUpcoming,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newFixture(t, testNow)
			order := tt.order
			order.ID = uuid.New()
			order.ClientID = uuid.New()

			fixture.sqlMock.ExpectBegin()
			fixture.sqlMock.ExpectCommit()
			fixture.orderRepo.On("GetByIDForUpdate", mock.Anything, mock.Anything, order.ID).Return(&order, nil)
			fixture.orderRepo.On("UpdateStatus", mock.Anything, mock.Anything, order.ID, tt.want).Return(nil)

			accepted, err := fixture.controller.AcceptOrder(context.Background(), testOperator(), order.ID)

			require.NoError(t, err)
			assert.Equal(t, tt.want, accepted.Status)
			fixture.orderRepo.AssertExpectations(t)
			assert.NoError(t, fixture.sqlMock.ExpectationsWereMet())
		})
	}
}

func TestAcceptOrder_OnlyPending(t *testing.T) {
	fixture := newFixture(t, testNow)

	order := models.Order{StartDate: "2026-03-11", Status: models.OrderUpcoming}
	order.ID = uuid.New()

	fixture.sqlMock.ExpectBegin()
	fixture.sqlMock.ExpectRollback()
	fixture.orderRepo.On("GetByIDForUpdate", mock.Anything, mock.Anything, order.ID).Return(&order, nil)

	accepted, err := fixture.controller.AcceptOrder(context.Background(), testOperator(), order.ID)

	assert.Nil(t, accepted)
	assert.ErrorIs(t, err, ErrConflict)
	fixture.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptOrder_OperatorOnly(t *testing.T) {
	fixture := newFixture(t, testNow)

	accepted, err := fixture.controller.AcceptOrder(context.Background(), testClient(), uuid.New())

	assert.Nil(t, accepted)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelOrder(t *testing.T) {
	owner := testClient()
	stranger := testClient()

	tests := []struct {
		name    string
		actor   *models.User
		status  models.OrderStatus
		wantErr error
	}{
		{name: "owner cancels pending order", actor: owner, status: models.OrderPending},
		{name: "operator cancels any pending order", actor: testOperator(), status: models.OrderPending},
		{name: "other client is refused", actor: stranger, status: models.OrderPending, wantErr: ErrForbidden},
		{name: "scheduled order cannot be cancelled", actor: owner, status: models.OrderUpcoming, wantErr: ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newFixture(t, testNow)

			order := models.Order{StartDate: "2026-03-11", Status: tt.status, ClientID: owner.ID}
			order.ID = uuid.New()

			fixture.sqlMock.ExpectBegin()
			fixture.orderRepo.On("GetByIDForUpdate", mock.Anything, mock.Anything, order.ID).Return(&order, nil)
			if tt.wantErr == nil {
				fixture.sqlMock.ExpectCommit()
				fixture.orderRepo.On("UpdateStatus", mock.Anything, mock.Anything, order.ID, models.OrderCancelled).Return(nil)
			} else {
				fixture.sqlMock.ExpectRollback()
			}

			cancelled, err := fixture.controller.CancelOrder(context.Background(), tt.actor, order.ID)

			if tt.wantErr != nil {
				assert.Nil(t, cancelled)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.OrderCancelled, cancelled.Status)
			fixture.orderRepo.AssertExpectations(t)
		})
	}
}

func TestGetOrder_ReconcilesElapsedOrder(t *testing.T) {
	fixture := newFixture(t, testNow)

	order := models.Order{StartDate: "2026-03-09", Status: models.OrderUpcoming}
	order.ID = uuid.New()

	fixture.orderRepo.On("GetByID", mock.Anything, order.ID).Return(&order, nil)
	fixture.orderRepo.On("UpdateStatus", mock.Anything, mock.Anything, order.ID, models.OrderCompleted).Return(nil)

	got, err := fixture.controller.GetOrder(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, got.Status)
	fixture.orderRepo.AssertExpectations(t)
}

func TestGetOrder_PendingNeverReconciled(t *testing.T) {
	fixture := newFixture(t, testNow)

	order := models.Order{StartDate: "2026-03-09", Status: models.OrderPending}
	order.ID = uuid.New()

	fixture.orderRepo.On("GetByID", mock.Anything, order.ID).Return(&order, nil)

	got, err := fixture.controller.GetOrder(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status)
	fixture.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// An order diverted to missed by a late accept stays missed, even once its
// scheduled window has fully elapsed.
func TestGetOrder_MissedNeverReconciled(t *testing.T) {
	fixture := newFixture(t, testNow)

	end := "2026-03-02"
	order := models.Order{StartDate: "2026-03-01", EndDate: &end, Status: models.OrderMissed}
	order.ID = uuid.New()

	fixture.orderRepo.On("GetByID", mock.Anything, order.ID).Return(&order, nil)

	got, err := fixture.controller.GetOrder(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, models.OrderMissed, got.Status)
	fixture.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
