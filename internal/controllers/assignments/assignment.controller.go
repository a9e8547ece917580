package assignmentController

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guardpost/config"
	"guardpost/internal/database"
	"guardpost/internal/events"
	"guardpost/internal/logger"
	. "guardpost/internal/models"
	"guardpost/internal/repositories"
	"guardpost/internal/scheduling"
	"guardpost/internal/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

type AssignmentController struct {
	shiftRepo      repositories.ShiftRepository
	assignmentRepo repositories.AssignmentRepository
	transaction    *services.TransactionService
	notification   *services.NotificationService
	clock          *scheduling.Clock
	db             database.DB
	Config         config.Config
	log            logger.Logger
}

type AssignmentControllerInterface interface {
	Respond(ctx context.Context, guard *User, shiftID uuid.UUID, response ResponseStatus) (*Assignment, error)
	ClockIn(ctx context.Context, guard *User, shiftID uuid.UUID) (*Assignment, error)
	ClockOut(ctx context.Context, guard *User, shiftID uuid.UUID) (*Assignment, error)
	StartOvertime(ctx context.Context, guard *User, shiftID uuid.UUID) (*Assignment, error)
	EndOvertime(ctx context.Context, guard *User, shiftID uuid.UUID) (*Assignment, error)
	ListBillableFacts(ctx context.Context, operator *User) ([]BillableFact, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) AssignmentControllerInterface {
	return &AssignmentController{
		shiftRepo:      repos.Shift,
		assignmentRepo: repos.Assignment,
		transaction:    services.Transaction,
		notification:   services.Notification,
		clock:          services.Clock,
		db:             db,
		Config:         config,
		log:            logger.New("assignmentController"),
	}
}

// Respond records the guard's accept/reject. A guard responds exactly once;
// assignment and shift change together in one transaction. Accepting only
// moves a pending shift forward, rejecting cancels the shift regardless of
// its prior state.
func (c *AssignmentController) Respond(
	ctx context.Context,
	guard *User,
	shiftID uuid.UUID,
	response ResponseStatus,
) (*Assignment, error) {
	log := c.log.Function("Respond")

	if response != ResponseAccepted && response != ResponseRejected {
		return nil, log.ErrorWithType(ErrValidation, "response must be accepted or rejected", "response", response)
	}

	var assignment *Assignment
	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		shift, err := c.shiftRepo.GetByIDForUpdate(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		if shift == nil {
			return log.ErrorWithType(ErrNotFound, "shift not found", "shiftID", shiftID)
		}

		assignment, err = c.assignmentRepo.GetByShiftAndGuardForUpdate(ctx, tx, shiftID, guard.ID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return log.ErrorWithType(
				ErrForbidden,
				"shift is not assigned to this guard",
				"shiftID", shiftID,
				"guardID", guard.ID,
			)
		}
		if assignment.Responded() {
			return log.ErrorWithType(
				ErrConflict,
				"assignment already responded",
				"shiftID", shiftID,
				"response", assignment.Response,
			)
		}

		assignment.Response = response
		if err := c.assignmentRepo.Update(ctx, tx, assignment); err != nil {
			return err
		}

		switch response {
		case ResponseAccepted:
			if shift.Status == ShiftPending {
				derived := scheduling.DeriveShiftStatus(c.clock.Now(), shift.StartsAt, shift.EndsAt)
				if err := c.shiftRepo.UpdateStatus(ctx, tx, shift.ID, derived); err != nil {
					return err
				}
			}
		case ResponseRejected:
			if err := c.shiftRepo.UpdateStatus(ctx, tx, shift.ID, ShiftCancelled); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.notification.NotifyOperators(
		ctx, nil,
		NotifyShiftResponse, events.SHIFT_RESPONSE,
		"Shift response",
		fmt.Sprintf("Guard %s the shift.", response),
		map[string]any{
			"shiftId":  shiftID.String(),
			"guardId":  guard.ID.String(),
			"response": string(response),
		},
	); err != nil {
		log.Warn("failed to notify operators of response", "shiftID", shiftID, "error", err)
	}

	log.Info("Assignment response recorded", "shiftID", shiftID, "guardID", guard.ID, "response", response)
	return assignment, nil
}

// ClockIn records the actual start of work. Valid only for accepted,
// not-yet-clocked-in assignments within the configured grace window around
// the scheduled start. Late guards are refused here and flagged absent by
// the nightly sweep.
func (c *AssignmentController) ClockIn(
	ctx context.Context,
	guard *User,
	shiftID uuid.UUID,
) (*Assignment, error) {
	log := c.log.Function("ClockIn")

	var assignment *Assignment
	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		shift, err := c.shiftRepo.GetByIDForUpdate(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		if shift == nil {
			return log.ErrorWithType(ErrNotFound, "shift not found", "shiftID", shiftID)
		}

		assignment, err = c.assignmentRepo.GetByShiftAndGuardForUpdate(ctx, tx, shiftID, guard.ID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return log.ErrorWithType(ErrForbidden, "shift is not assigned to this guard", "shiftID", shiftID)
		}
		if assignment.Response != ResponseAccepted {
			return log.ErrorWithType(ErrConflict, "assignment is not accepted", "response", assignment.Response)
		}
		if assignment.ClockInAt != nil {
			return log.ErrorWithType(ErrConflict, "already clocked in", "clockInAt", *assignment.ClockInAt)
		}

		now := c.clock.Now()
		grace := time.Duration(c.Config.ClockInGraceMinutes) * time.Minute
		if now.Before(shift.StartsAt.Add(-grace)) {
			return log.ErrorWithType(
				ErrConflict,
				"too early to clock in",
				"startsAt", shift.StartsAt,
				"graceMinutes", c.Config.ClockInGraceMinutes,
			)
		}
		if now.After(shift.StartsAt.Add(grace)) {
			return log.ErrorWithType(
				ErrConflict,
				"clock-in window has closed",
				"startsAt", shift.StartsAt,
				"graceMinutes", c.Config.ClockInGraceMinutes,
			)
		}

		clockIn := now.UTC()
		assignment.ClockInAt = &clockIn
		if err := c.assignmentRepo.Update(ctx, tx, assignment); err != nil {
			return err
		}

		// An early clock-in inside the grace window leaves the shift
		// upcoming until its window actually opens.
		if shift.Status.TimeDerived() && shift.Status != ShiftOngoing && !now.Before(shift.StartsAt) {
			if err := c.shiftRepo.UpdateStatus(ctx, tx, shift.ID, ShiftOngoing); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.notification.PublishLifecycle(events.SHIFT_STATUS, map[string]any{
		"shiftId": shiftID.String(),
		"guardId": guard.ID.String(),
		"event":   "clock_in",
	})

	log.Info("Guard clocked in", "shiftID", shiftID, "guardID", guard.ID)
	return assignment, nil
}

// ClockOut closes the worked interval and computes total hours over the
// full clocked span. Leaving after the scheduled end without an explicit
// overtime declaration still counts as overtime and is recorded, never
// truncated.
func (c *AssignmentController) ClockOut(
	ctx context.Context,
	guard *User,
	shiftID uuid.UUID,
) (*Assignment, error) {
	log := c.log.Function("ClockOut")

	var assignment *Assignment
	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		shift, err := c.shiftRepo.GetByIDForUpdate(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		if shift == nil {
			return log.ErrorWithType(ErrNotFound, "shift not found", "shiftID", shiftID)
		}

		assignment, err = c.assignmentRepo.GetByShiftAndGuardForUpdate(ctx, tx, shiftID, guard.ID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return log.ErrorWithType(ErrForbidden, "shift is not assigned to this guard", "shiftID", shiftID)
		}
		if assignment.ClockInAt == nil {
			return log.ErrorWithType(ErrConflict, "cannot clock out before clocking in", "shiftID", shiftID)
		}
		if assignment.ClockOutAt != nil {
			return log.ErrorWithType(ErrConflict, "already clocked out", "clockOutAt", *assignment.ClockOutAt)
		}

		now := c.clock.Now()
		clockOut := now.UTC()
		assignment.ClockOutAt = &clockOut
		assignment.TotalHours = scheduling.HoursBetween(*assignment.ClockInAt, clockOut)

		status := ShiftCompleted
		switch {
		case assignment.OvertimeStartAt != nil && assignment.OvertimeEndAt == nil:
			assignment.OvertimeEndAt = &clockOut
			assignment.OvertimeHours = scheduling.HoursBetween(*assignment.OvertimeStartAt, clockOut)
			status = ShiftOvertimeEnded
		case now.After(shift.EndsAt):
			overtimeStart := shift.EndsAt.UTC()
			assignment.OvertimeStartAt = &overtimeStart
			assignment.OvertimeEndAt = &clockOut
			assignment.OvertimeHours = scheduling.HoursBetween(overtimeStart, clockOut)
			status = ShiftOvertimeEnded
		case now.Before(shift.EndsAt):
			status = ShiftEndedEarly
		}

		if err := c.assignmentRepo.Update(ctx, tx, assignment); err != nil {
			return err
		}
		return c.shiftRepo.UpdateStatus(ctx, tx, shift.ID, status)
	})
	if err != nil {
		return nil, err
	}

	c.notification.PublishLifecycle(events.SHIFT_STATUS, map[string]any{
		"shiftId": shiftID.String(),
		"guardId": guard.ID.String(),
		"event":   "clock_out",
	})

	log.Info("Guard clocked out", "shiftID", shiftID, "guardID", guard.ID, "totalHours", assignment.TotalHours)
	return assignment, nil
}

// StartOvertime declares the guard is staying past the scheduled end.
func (c *AssignmentController) StartOvertime(
	ctx context.Context,
	guard *User,
	shiftID uuid.UUID,
) (*Assignment, error) {
	log := c.log.Function("StartOvertime")

	var assignment *Assignment
	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		shift, err := c.shiftRepo.GetByIDForUpdate(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		if shift == nil {
			return log.ErrorWithType(ErrNotFound, "shift not found", "shiftID", shiftID)
		}

		assignment, err = c.assignmentRepo.GetByShiftAndGuardForUpdate(ctx, tx, shiftID, guard.ID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return log.ErrorWithType(ErrForbidden, "shift is not assigned to this guard", "shiftID", shiftID)
		}
		if assignment.ClockInAt == nil || assignment.ClockOutAt != nil {
			return log.ErrorWithType(ErrConflict, "overtime requires an open clocked-in interval", "shiftID", shiftID)
		}
		if assignment.OvertimeStartAt != nil {
			return log.ErrorWithType(ErrConflict, "overtime already started", "overtimeStartAt", *assignment.OvertimeStartAt)
		}

		now := c.clock.Now()
		if now.Before(shift.EndsAt) {
			return log.ErrorWithType(ErrConflict, "overtime cannot start before the scheduled end", "endsAt", shift.EndsAt)
		}

		overtimeStart := now.UTC()
		assignment.OvertimeStartAt = &overtimeStart
		if err := c.assignmentRepo.Update(ctx, tx, assignment); err != nil {
			return err
		}
		return c.shiftRepo.UpdateStatus(ctx, tx, shift.ID, ShiftOvertimeStarted)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Overtime started", "shiftID", shiftID, "guardID", guard.ID)
	return assignment, nil
}

// EndOvertime closes an open overtime interval. The guard is implicitly
// clocked out at the same instant when no clock-out was recorded yet.
func (c *AssignmentController) EndOvertime(
	ctx context.Context,
	guard *User,
	shiftID uuid.UUID,
) (*Assignment, error) {
	log := c.log.Function("EndOvertime")

	var assignment *Assignment
	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		shift, err := c.shiftRepo.GetByIDForUpdate(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		if shift == nil {
			return log.ErrorWithType(ErrNotFound, "shift not found", "shiftID", shiftID)
		}

		assignment, err = c.assignmentRepo.GetByShiftAndGuardForUpdate(ctx, tx, shiftID, guard.ID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return log.ErrorWithType(ErrForbidden, "shift is not assigned to this guard", "shiftID", shiftID)
		}
		if assignment.OvertimeStartAt == nil {
			return log.ErrorWithType(ErrConflict, "overtime was never started", "shiftID", shiftID)
		}
		if assignment.OvertimeEndAt != nil {
			return log.ErrorWithType(ErrConflict, "overtime already ended", "overtimeEndAt", *assignment.OvertimeEndAt)
		}

		now := c.clock.Now().UTC()
		assignment.OvertimeEndAt = &now
		assignment.OvertimeHours = scheduling.HoursBetween(*assignment.OvertimeStartAt, now)
		if assignment.ClockOutAt == nil {
			assignment.ClockOutAt = &now
			assignment.TotalHours = scheduling.HoursBetween(*assignment.ClockInAt, now)
		}

		if err := c.assignmentRepo.Update(ctx, tx, assignment); err != nil {
			return err
		}
		return c.shiftRepo.UpdateStatus(ctx, tx, shift.ID, ShiftOvertimeEnded)
	})
	if err != nil {
		return nil, err
	}

	c.notification.PublishLifecycle(events.SHIFT_STATUS, map[string]any{
		"shiftId": shiftID.String(),
		"guardId": guard.ID.String(),
		"event":   "overtime_ended",
	})

	log.Info("Overtime ended", "shiftID", shiftID, "guardID", guard.ID, "overtimeHours", assignment.OvertimeHours)
	return assignment, nil
}

// ListBillableFacts exposes completed worked-hour records for billing.
func (c *AssignmentController) ListBillableFacts(ctx context.Context, operator *User) ([]BillableFact, error) {
	log := c.log.Function("ListBillableFacts")

	if !operator.IsOperator() {
		return nil, log.ErrorWithType(ErrForbidden, "only operators may read billable facts")
	}

	return c.assignmentRepo.ListBillableFacts(ctx)
}
