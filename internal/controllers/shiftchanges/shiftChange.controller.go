package shiftChangeController

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

type ShiftChangeController struct {
	shiftRepo      repositories.ShiftRepository
	assignmentRepo repositories.AssignmentRepository
	changeRepo     repositories.ShiftChangeRequestRepository
	transaction    *services.TransactionService
	notification   *services.NotificationService
	clock          *scheduling.Clock
	validate       *validator.Validate
	db             database.DB
	Config         config.Config
	log            logger.Logger
}

// SubmitChangeRequest carries the proposed replacement window as a local
// calendar date plus daily times; the controller resolves them to UTC
// instants under the operational timezone.
type SubmitChangeRequest struct {
	ShiftID   uuid.UUID `json:"shiftId"   validate:"required"`
	Date      string    `json:"date"      validate:"required"`
	StartTime string    `json:"startTime" validate:"required"`
	EndTime   string    `json:"endTime"   validate:"required"`
	Reason    string    `json:"reason"    validate:"required,max=1000"`
}

type ResolveChangeRequest struct {
	Approve      bool   `json:"approve"`
	AdminComment string `json:"adminComment,omitempty" validate:"max=1000"`
}

type ShiftChangeControllerInterface interface {
	Submit(ctx context.Context, guard *User, request *SubmitChangeRequest) (*ShiftChangeRequest, error)
	Resolve(ctx context.Context, operator *User, requestID uuid.UUID, request *ResolveChangeRequest) (*ShiftChangeRequest, error)
	ListPending(ctx context.Context, operator *User) ([]ShiftChangeRequest, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) ShiftChangeControllerInterface {
	return &ShiftChangeController{
		shiftRepo:      repos.Shift,
		assignmentRepo: repos.Assignment,
		changeRepo:     repos.ShiftChangeRequest,
		transaction:    services.Transaction,
		notification:   services.Notification,
		clock:          services.Clock,
		validate:       validator.New(),
		db:             db,
		Config:         config,
		log:            logger.New("shiftChangeController"),
	}
}

// Submit files a guard's proposal to move a shift's window. At most one
// pending request per (shift, guard) may exist; a partial unique index
// backs the check against concurrent submissions.
func (c *ShiftChangeController) Submit(
	ctx context.Context,
	guard *User,
	request *SubmitChangeRequest,
) (*ShiftChangeRequest, error) {
	log := c.log.Function("Submit")

	if err := c.validate.Struct(request); err != nil {
		return nil, log.ErrorWithType(ErrValidation, err.Error())
	}

	shift, err := c.shiftRepo.GetByID(ctx, request.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, log.ErrorWithType(ErrNotFound, "shift not found", "shiftID", request.ShiftID)
	}

	assignment, err := c.assignmentRepo.GetByShiftAndGuard(ctx, request.ShiftID, guard.ID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, log.ErrorWithType(ErrForbidden, "shift is not assigned to this guard", "shiftID", request.ShiftID)
	}

	pending, err := c.changeRepo.HasPending(ctx, request.ShiftID, guard.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, log.ErrorWithType(
			ErrConflict,
			"a pending change request already exists for this shift",
			"shiftID", request.ShiftID,
			"guardID", guard.ID,
		)
	}

	window, err := scheduling.ResolveWindow(c.clock, request.Date, request.StartTime, request.EndTime)
	if err != nil {
		return nil, log.ErrorWithType(ErrValidation, "invalid requested window", "error", err)
	}

	changeRequest := &ShiftChangeRequest{
		ShiftID:           request.ShiftID,
		RequestedByID:     guard.ID,
		RequestedDate:     window.Date,
		RequestedEndDate:  window.EndDate,
		RequestedStartsAt: window.Start.UTC(),
		RequestedEndsAt:   window.End.UTC(),
		Reason:            request.Reason,
		Status:            ChangeRequestPending,
	}

	err = c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return c.changeRepo.Create(ctx, tx, changeRequest)
	})
	if err != nil {
		return nil, err
	}

	if err := c.notification.NotifyOperators(
		ctx, nil,
		NotifyShiftChangeRequest, events.SHIFT_CHANGE_REQUEST,
		"Shift change requested",
		fmt.Sprintf("A guard requested to move a shift to %s %s.", window.Date, request.StartTime),
		map[string]any{
			"requestId": changeRequest.ID.String(),
			"shiftId":   request.ShiftID.String(),
			"guardId":   guard.ID.String(),
		},
	); err != nil {
		log.Warn("failed to notify operators of change request", "requestID", changeRequest.ID, "error", err)
	}

	log.Info("Shift change request submitted", "requestID", changeRequest.ID, "shiftID", request.ShiftID)
	return changeRequest, nil
}

// Resolve approves or rejects a pending request. Approval rewrites the
// target shift's window in the same transaction as the status change so a
// failed write can never leave an approved request pointing at the old
// times.
func (c *ShiftChangeController) Resolve(
	ctx context.Context,
	operator *User,
	requestID uuid.UUID,
	request *ResolveChangeRequest,
) (*ShiftChangeRequest, error) {
	log := c.log.Function("Resolve")

	if !operator.IsOperator() {
		return nil, log.ErrorWithType(ErrForbidden, "only operators may resolve change requests")
	}
	if err := c.validate.Struct(request); err != nil {
		return nil, log.ErrorWithType(ErrValidation, err.Error())
	}

	var changeRequest *ShiftChangeRequest
	err := c.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		changeRequest, err = c.changeRepo.GetByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if changeRequest == nil {
			return log.ErrorWithType(ErrNotFound, "change request not found", "requestID", requestID)
		}
		if changeRequest.Status != ChangeRequestPending {
			return log.ErrorWithType(
				ErrConflict,
				"change request already resolved",
				"requestID", requestID,
				"status", changeRequest.Status,
			)
		}

		changeRequest.AdminComment = request.AdminComment
		if !request.Approve {
			changeRequest.Status = ChangeRequestRejected
			return c.changeRepo.Update(ctx, tx, changeRequest)
		}

		shift, err := c.shiftRepo.GetByIDForUpdate(ctx, tx, changeRequest.ShiftID)
		if err != nil {
			return err
		}
		if shift == nil {
			return log.ErrorWithType(ErrNotFound, "shift not found", "shiftID", changeRequest.ShiftID)
		}

		shift.Date = changeRequest.RequestedDate
		shift.EndDate = changeRequest.RequestedEndDate
		shift.StartsAt = changeRequest.RequestedStartsAt
		shift.EndsAt = changeRequest.RequestedEndsAt
		shift.TotalHours = scheduling.HoursBetween(shift.StartsAt, shift.EndsAt)
		if shift.Status.TimeDerived() && shift.Status != ShiftPending {
			shift.Status = scheduling.DeriveShiftStatus(c.clock.Now(), shift.StartsAt, shift.EndsAt)
		}
		if err := c.shiftRepo.Update(ctx, tx, shift); err != nil {
			return err
		}

		changeRequest.Status = ChangeRequestApproved
		return c.changeRepo.Update(ctx, tx, changeRequest)
	})
	if err != nil {
		return nil, err
	}

	if err := c.notification.Notify(
		ctx, nil,
		[]uuid.UUID{changeRequest.RequestedByID},
		NotifyShiftChangeResolved, events.SHIFT_CHANGE_RESOLVED,
		"Shift change "+string(changeRequest.Status),
		fmt.Sprintf("Your shift change request was %s.", changeRequest.Status),
		map[string]any{
			"requestId": changeRequest.ID.String(),
			"shiftId":   changeRequest.ShiftID.String(),
			"status":    string(changeRequest.Status),
		},
	); err != nil {
		log.Warn("failed to notify guard of resolution", "requestID", changeRequest.ID, "error", err)
	}

	log.Info("Shift change request resolved", "requestID", changeRequest.ID, "status", changeRequest.Status)
	return changeRequest, nil
}

func (c *ShiftChangeController) ListPending(ctx context.Context, operator *User) ([]ShiftChangeRequest, error) {
	log := c.log.Function("ListPending")

	if !operator.IsOperator() {
		return nil, log.ErrorWithType(ErrForbidden, "only operators may list change requests")
	}

	return c.changeRepo.ListPending(ctx)
}
