package shiftController

import (
	"context"
	"errors"
	"fmt"

	"guardpost/config"
	"guardpost/internal/database"
	"guardpost/internal/events"
	"guardpost/internal/logger"
	. "guardpost/internal/models"
	"guardpost/internal/repositories"
	"guardpost/internal/scheduling"
	"guardpost/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

type ShiftController struct {
	orderRepo      repositories.OrderRepository
	shiftRepo      repositories.ShiftRepository
	assignmentRepo repositories.AssignmentRepository
	userRepo       repositories.UserRepository
	transaction    *services.TransactionService
	notification   *services.NotificationService
	clock          *scheduling.Clock
	validate       *validator.Validate
	db             database.DB
	Config         config.Config
	log            logger.Logger
}

// ExpandOrderRequest schedules guards onto an order. Empty date and window
// fields fall back to the order's own values, so an operator can expand an
// order as placed or override the window ad hoc.
type ExpandOrderRequest struct {
	OrderID        uuid.UUID   `json:"orderId"        validate:"required"`
	GuardIDs       []uuid.UUID `json:"guardIds"       validate:"required,min=1"`
	StartDate      string      `json:"startDate,omitempty"`
	EndDate        string      `json:"endDate,omitempty"`
	DailyStartTime string      `json:"dailyStartTime,omitempty"`
	DailyEndTime   string      `json:"dailyEndTime,omitempty"`
}

type ExpandOrderResponse struct {
	Shifts      []*Shift      `json:"shifts"`
	Assignments []*Assignment `json:"assignments"`
}

type ShiftControllerInterface interface {
	ExpandOrder(ctx context.Context, operator *User, request *ExpandOrderRequest) (*ExpandOrderResponse, error)
	GetShift(ctx context.Context, shiftID uuid.UUID) (*Shift, error)
	ListOrderShifts(ctx context.Context, orderID uuid.UUID) ([]Shift, error)
	ListGuardShifts(ctx context.Context, guardID uuid.UUID) ([]Shift, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) ShiftControllerInterface {
	return &ShiftController{
		orderRepo:      repos.Order,
		shiftRepo:      repos.Shift,
		assignmentRepo: repos.Assignment,
		userRepo:       repos.User,
		transaction:    services.Transaction,
		notification:   services.Notification,
		clock:          services.Clock,
		validate:       validator.New(),
		db:             db,
		Config:         config,
		log:            logger.New("shiftController"),
	}
}

// ExpandOrder runs the expansion: one shift and one assignment per
// (day, guard) pair across the inclusive date range, committed as a single
// batch. Any invalid guard rejects the whole request before anything is
// written.
func (c *ShiftController) ExpandOrder(
	ctx context.Context,
	operator *User,
	request *ExpandOrderRequest,
) (*ExpandOrderResponse, error) {
	log := c.log.Function("ExpandOrder")

	if !operator.IsOperator() {
		return nil, log.ErrorWithType(ErrForbidden, "only operators may schedule shifts")
	}
	if err := c.validate.Struct(request); err != nil {
		return nil, log.ErrorWithType(ErrValidation, err.Error())
	}

	order, err := c.orderRepo.GetByID(ctx, request.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, log.ErrorWithType(ErrNotFound, "order not found", "orderID", request.OrderID)
	}
	if order.Status.IsTerminal() {
		return nil, log.ErrorWithType(
			ErrConflict,
			"cannot schedule shifts on a closed order",
			"orderID", order.ID,
			"status", order.Status,
		)
	}

	guards, err := c.userRepo.GetActiveGuards(ctx, request.GuardIDs)
	if err != nil {
		return nil, err
	}
	if len(guards) != len(uniqueIDs(request.GuardIDs)) {
		return nil, log.ErrorWithType(
			ErrValidation,
			"one or more guardIds do not resolve to an active guard",
			"requested", len(request.GuardIDs),
			"resolved", len(guards),
		)
	}

	expansion, err := c.buildExpansionRequest(order, request)
	if err != nil {
		return nil, log.ErrorWithType(ErrValidation, err.Error())
	}

	intents, err := scheduling.Expand(c.clock, expansion)
	if err != nil {
		return nil, log.ErrorWithType(ErrValidation, err.Error())
	}

	shifts := make([]*Shift, 0, len(intents))
	assignments := make([]*Assignment, 0, len(intents))

	err = c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		for _, intent := range intents {
			shift := &Shift{
				OrderID:    intent.OrderID,
				Date:       intent.Date,
				EndDate:    intent.EndDate,
				StartsAt:   intent.StartsAt,
				EndsAt:     intent.EndsAt,
				Status:     intent.Status,
				TotalHours: intent.TotalHours,
			}
			shifts = append(shifts, shift)
		}
		if err := c.shiftRepo.CreateBatch(ctx, tx, shifts); err != nil {
			return err
		}

		for i, intent := range intents {
			assignments = append(assignments, &Assignment{
				ShiftID:  shifts[i].ID,
				GuardID:  intent.GuardID,
				Response: ResponsePending,
			})
		}
		return c.assignmentRepo.CreateBatch(ctx, tx, assignments)
	})
	if err != nil {
		return nil, err
	}

	c.fanOutAssignmentNotifications(ctx, order, shifts, assignments)

	log.Info(
		"Order expanded into shifts",
		"orderID", order.ID,
		"shiftCount", len(shifts),
		"guardCount", len(guards),
	)

	return &ExpandOrderResponse{Shifts: shifts, Assignments: assignments}, nil
}

// GetShift returns the shift with its time-derived status reconciled.
func (c *ShiftController) GetShift(ctx context.Context, shiftID uuid.UUID) (*Shift, error) {
	log := c.log.Function("GetShift")

	shift, err := c.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, log.ErrorWithType(ErrNotFound, "shift not found", "shiftID", shiftID)
	}

	if err := c.Reconcile(ctx, c.db.SQL, shift); err != nil {
		log.Warn("failed to reconcile shift status", "shiftID", shift.ID, "error", err)
	}

	return shift, nil
}

func (c *ShiftController) ListOrderShifts(ctx context.Context, orderID uuid.UUID) ([]Shift, error) {
	shifts, err := c.shiftRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	c.reconcileAll(ctx, shifts)
	return shifts, nil
}

func (c *ShiftController) ListGuardShifts(ctx context.Context, guardID uuid.UUID) ([]Shift, error) {
	shifts, err := c.shiftRepo.ListByGuard(ctx, guardID)
	if err != nil {
		return nil, err
	}
	c.reconcileAll(ctx, shifts)
	return shifts, nil
}

// Reconcile applies the time derivation to a shift and writes the status
// only when it changed. A pending shift stays pending until its window
// actually starts: the guard still owes a response, so only the
// ongoing/completed outcomes may override pending.
func (c *ShiftController) Reconcile(ctx context.Context, tx *gorm.DB, shift *Shift) error {
	if !shift.Status.TimeDerived() {
		return nil
	}

	derived := scheduling.DeriveShiftStatus(c.clock.Now(), shift.StartsAt, shift.EndsAt)
	if shift.Status == ShiftPending && derived == ShiftUpcoming {
		return nil
	}
	if derived == shift.Status {
		return nil
	}

	if err := c.shiftRepo.UpdateStatus(ctx, tx, shift.ID, derived); err != nil {
		return err
	}
	shift.Status = derived

	c.notification.PublishLifecycle(events.SHIFT_STATUS, map[string]any{
		"shiftId": shift.ID.String(),
		"status":  string(derived),
	})
	return nil
}

// reconcileAll reconciles a batch on the read path. One bad record is
// logged and skipped, the rest of the batch still goes out.
func (c *ShiftController) reconcileAll(ctx context.Context, shifts []Shift) {
	log := c.log.Function("reconcileAll")
	for i := range shifts {
		if err := c.Reconcile(ctx, c.db.SQL, &shifts[i]); err != nil {
			log.Warn("failed to reconcile shift status", "shiftID", shifts[i].ID, "error", err)
		}
	}
}

func (c *ShiftController) buildExpansionRequest(
	order *Order,
	request *ExpandOrderRequest,
) (scheduling.ExpansionRequest, error) {
	expansion := scheduling.ExpansionRequest{
		OrderID:        order.ID,
		StartDate:      request.StartDate,
		EndDate:        request.EndDate,
		DailyStartTime: request.DailyStartTime,
		DailyEndTime:   request.DailyEndTime,
		GuardIDs:       uniqueIDs(request.GuardIDs),
	}

	if expansion.StartDate == "" {
		expansion.StartDate = order.StartDate
	}
	if expansion.EndDate == "" && order.EndDate != nil {
		expansion.EndDate = *order.EndDate
	}
	if expansion.DailyStartTime == "" && order.DailyStartTime != nil {
		expansion.DailyStartTime = *order.DailyStartTime
	}
	if expansion.DailyEndTime == "" && order.DailyEndTime != nil {
		expansion.DailyEndTime = *order.DailyEndTime
	}

	if expansion.DailyStartTime == "" || expansion.DailyEndTime == "" {
		return expansion, fmt.Errorf("order %s has no daily time window and none was provided", order.ID)
	}

	return expansion, nil
}

func (c *ShiftController) fanOutAssignmentNotifications(
	ctx context.Context,
	order *Order,
	shifts []*Shift,
	assignments []*Assignment,
) {
	log := c.log.Function("fanOutAssignmentNotifications")

	for i, assignment := range assignments {
		shift := shifts[i]
		err := c.notification.Notify(
			ctx, nil,
			[]uuid.UUID{assignment.GuardID},
			NotifyShiftAssigned, events.SHIFT_ASSIGNED,
			"New shift assigned",
			fmt.Sprintf("You have been assigned a shift on %s at %s.", shift.Date, order.LocationName),
			map[string]any{
				"shiftId": shift.ID.String(),
				"orderId": order.ID.String(),
				"date":    shift.Date,
			},
		)
		if err != nil {
			log.Warn("failed to notify guard of assignment", "guardID", assignment.GuardID, "error", err)
		}
	}

	err := c.notification.NotifyOperators(
		ctx, nil,
		NotifyShiftAssigned, events.SHIFT_ASSIGNED,
		"Shifts scheduled",
		fmt.Sprintf("%d shifts were scheduled for order at %s.", len(shifts), order.LocationName),
		map[string]any{"orderId": order.ID.String(), "shiftCount": len(shifts)},
	)
	if err != nil {
		log.Warn("failed to notify operators of expansion", "orderID", order.ID, "error", err)
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
