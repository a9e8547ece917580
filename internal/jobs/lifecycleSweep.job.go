package jobs

import (
	"context"
	"time"

	"guardpost/config"
	"guardpost/internal/database"
	"guardpost/internal/events"
	"guardpost/internal/logger"
	. "guardpost/internal/models"
	"guardpost/internal/repositories"
	"guardpost/internal/scheduling"
	"guardpost/internal/services"
)

// LifecycleSweepJob re-derives order and shift status once per operational
// day. Every derivation is a pure function of the clock, so re-running the
// sweep with no elapsed time writes nothing. One bad record is logged and
// skipped; the rest of the batch continues.
type LifecycleSweepJob struct {
	orderRepo    repositories.OrderRepository
	shiftRepo    repositories.ShiftRepository
	notification *services.NotificationService
	clock        *scheduling.Clock
	config       config.Config
	db           database.DB
	log          logger.Logger
	schedule     services.Schedule
}

func NewLifecycleSweepJob(
	repos repositories.Repository,
	notification *services.NotificationService,
	clock *scheduling.Clock,
	config config.Config,
	db database.DB,
	schedule services.Schedule,
) *LifecycleSweepJob {
	log := logger.New("lifecycleSweepJob")
	log.Info("Creating new lifecycle sweep job", "schedule", schedule)

	return &LifecycleSweepJob{
		orderRepo:    repos.Order,
		shiftRepo:    repos.Shift,
		notification: notification,
		clock:        clock,
		config:       config,
		db:           db,
		log:          log,
		schedule:     schedule,
	}
}

func (j *LifecycleSweepJob) Name() string {
	return "DailyLifecycleSweep"
}

func (j *LifecycleSweepJob) Schedule() services.Schedule {
	return j.schedule
}

func (j *LifecycleSweepJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")
	log.Info("Starting lifecycle sweep")

	now := j.clock.Now()

	orderWrites := j.sweepOrders(ctx, now)
	shiftWrites := j.sweepShifts(ctx, now)
	missedWrites := j.sweepMissedEvents(ctx, now)

	log.Info(
		"Lifecycle sweep completed",
		"orderWrites", orderWrites,
		"shiftWrites", shiftWrites,
		"missedWrites", missedWrites,
	)
	return nil
}

// sweepOrders recomputes every upcoming and ongoing order against the
// calendar and writes only on change. Pending and missed orders are never
// listed, their status is not clock-derived.
func (j *LifecycleSweepJob) sweepOrders(ctx context.Context, now time.Time) int {
	log := j.log.Function("sweepOrders")

	orders, err := j.orderRepo.ListSweepable(ctx)
	if err != nil {
		_ = log.Err("failed to list sweepable orders", err)
		return 0
	}

	writes := 0
	for i := range orders {
		order := &orders[i]

		derived, err := scheduling.DeriveOrderStatus(j.clock, now, order.StartDate, order.EndDate)
		if err != nil {
			_ = log.Err("failed to derive order status", err, "orderID", order.ID)
			continue
		}
		if derived == order.Status {
			continue
		}

		if err := j.orderRepo.UpdateStatus(ctx, j.db.SQL, order.ID, derived); err != nil {
			_ = log.Err("failed to update order status", err, "orderID", order.ID)
			continue
		}
		writes++

		j.notification.PublishLifecycle(events.ORDER_STATUS, map[string]any{
			"orderId": order.ID.String(),
			"status":  string(derived),
		})
	}

	return writes
}

// sweepShifts applies the time derivation to every time-derived shift.
// Pending shifts are promoted only once their window has started; until
// then the guard still owes a response.
func (j *LifecycleSweepJob) sweepShifts(ctx context.Context, now time.Time) int {
	log := j.log.Function("sweepShifts")

	shifts, err := j.shiftRepo.ListTimeDerived(ctx)
	if err != nil {
		_ = log.Err("failed to list time-derived shifts", err)
		return 0
	}

	writes := 0
	for i := range shifts {
		shift := &shifts[i]

		derived := scheduling.DeriveShiftStatus(now, shift.StartsAt, shift.EndsAt)
		if shift.Status == ShiftPending && derived == ShiftUpcoming {
			continue
		}
		if derived == shift.Status {
			continue
		}

		if err := j.shiftRepo.UpdateStatus(ctx, j.db.SQL, shift.ID, derived); err != nil {
			_ = log.Err("failed to update shift status", err, "shiftID", shift.ID)
			continue
		}
		writes++

		j.notification.PublishLifecycle(events.SHIFT_STATUS, map[string]any{
			"shiftId": shift.ID.String(),
			"status":  string(derived),
		})
	}

	return writes
}

// sweepMissedEvents promotes shifts whose scheduled end plus the grace
// period elapsed without the expected clock events: never responded becomes
// missed_respond, accepted-but-never-clocked-in becomes absent, and an open
// overtime interval becomes missed_endovertime. A shift with an open
// clocked-in interval is left alone, the guard can still clock out.
func (j *LifecycleSweepJob) sweepMissedEvents(ctx context.Context, now time.Time) int {
	log := j.log.Function("sweepMissedEvents")

	grace := time.Duration(j.config.MissedEventGraceMinutes) * time.Minute
	cutoff := now.Add(-grace)

	shifts, err := j.shiftRepo.ListEndedBefore(ctx, cutoff)
	if err != nil {
		_ = log.Err("failed to list elapsed shifts", err)
		return 0
	}

	writes := 0
	for i := range shifts {
		shift := &shifts[i]

		promoted := promoteMissedStatus(shift)
		if promoted == nil {
			continue
		}

		if err := j.shiftRepo.UpdateStatus(ctx, j.db.SQL, shift.ID, *promoted); err != nil {
			_ = log.Err("failed to promote shift to missed state", err, "shiftID", shift.ID)
			continue
		}
		writes++

		j.notification.PublishLifecycle(events.SHIFT_STATUS, map[string]any{
			"shiftId": shift.ID.String(),
			"status":  string(*promoted),
		})
	}

	return writes
}

// promoteMissedStatus decides the missed-* state for an elapsed shift, or
// nil when the recorded events are consistent with the stored status.
func promoteMissedStatus(shift *Shift) *ShiftStatus {
	if len(shift.Assignments) == 0 {
		return nil
	}
	assignment := &shift.Assignments[0]

	var promoted ShiftStatus
	switch {
	case !assignment.Responded():
		promoted = ShiftMissedRespond
	case assignment.Response == ResponseAccepted && assignment.ClockInAt == nil:
		promoted = ShiftAbsent
	case assignment.OvertimeStartAt != nil && assignment.OvertimeEndAt == nil:
		promoted = ShiftMissedEndOvertime
	default:
		return nil
	}

	if promoted == shift.Status {
		return nil
	}
	return &promoted
}
