package repositories

import (
	"context"
	"time"

	"guardpost/internal/database"
	"guardpost/internal/logger"
	. "guardpost/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShiftRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, shifts []*Shift) error
	GetByID(ctx context.Context, id uuid.UUID) (*Shift, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Shift, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Shift, error)
	ListByGuard(ctx context.Context, guardID uuid.UUID) ([]Shift, error)
	ListTimeDerived(ctx context.Context) ([]Shift, error)
	ListEndedBefore(ctx context.Context, cutoff time.Time) ([]Shift, error)
	Update(ctx context.Context, tx *gorm.DB, shift *Shift) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status ShiftStatus) error
}

type shiftRepository struct {
	db  database.DB
	log logger.Logger
}

func NewShiftRepository(db database.DB) ShiftRepository {
	return &shiftRepository{
		db:  db,
		log: logger.New("shiftRepository"),
	}
}

// CreateBatch persists a full expansion in one call. Callers run it inside
// a transaction so the batch lands all-or-nothing.
func (r *shiftRepository) CreateBatch(ctx context.Context, tx *gorm.DB, shifts []*Shift) error {
	log := r.log.Function("CreateBatch")

	if err := tx.WithContext(ctx).Create(shifts).Error; err != nil {
		return log.Err("failed to create shifts", err, "count", len(shifts))
	}

	return nil
}

func (r *shiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*Shift, error) {
	log := r.log.Function("GetByID")

	var shift Shift
	err := r.db.SQLWithContext(ctx).
		Preload("Assignments").
		First(&shift, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get shift", err, "shiftID", id)
	}

	return &shift, nil
}

// GetByIDForUpdate locks the shift row, serializing read-derive-write
// cycles on the same shift.
func (r *shiftRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Shift, error) {
	log := r.log.Function("GetByIDForUpdate")

	var shift Shift
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&shift, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get shift for update", err, "shiftID", id)
	}

	return &shift, nil
}

func (r *shiftRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Shift, error) {
	log := r.log.Function("ListByOrder")

	var shifts []Shift
	err := r.db.SQLWithContext(ctx).
		Preload("Assignments").
		Where("order_id = ?", orderID).
		Order("date, starts_at").
		Find(&shifts).Error
	if err != nil {
		return nil, log.Err("failed to list shifts by order", err, "orderID", orderID)
	}

	return shifts, nil
}

func (r *shiftRepository) ListByGuard(ctx context.Context, guardID uuid.UUID) ([]Shift, error) {
	log := r.log.Function("ListByGuard")

	var shifts []Shift
	err := r.db.SQLWithContext(ctx).
		Joins("JOIN assignments ON assignments.shift_id = shifts.id AND assignments.deleted_at IS NULL").
		Where("assignments.guard_id = ?", guardID).
		Order("shifts.date, shifts.starts_at").
		Find(&shifts).Error
	if err != nil {
		return nil, log.Err("failed to list shifts by guard", err, "guardID", guardID)
	}

	return shifts, nil
}

// ListTimeDerived returns shifts whose status is still owned by the pure
// time derivation (pending/upcoming/ongoing).
func (r *shiftRepository) ListTimeDerived(ctx context.Context) ([]Shift, error) {
	log := r.log.Function("ListTimeDerived")

	var shifts []Shift
	err := r.db.SQLWithContext(ctx).
		Where("status IN ?", []ShiftStatus{ShiftPending, ShiftUpcoming, ShiftOngoing}).
		Find(&shifts).Error
	if err != nil {
		return nil, log.Err("failed to list time-derived shifts", err)
	}

	return shifts, nil
}

// ListEndedBefore returns non-terminal shifts whose scheduled end is older
// than the cutoff, candidates for missed-* promotion by the sweep.
func (r *shiftRepository) ListEndedBefore(ctx context.Context, cutoff time.Time) ([]Shift, error) {
	log := r.log.Function("ListEndedBefore")

	var shifts []Shift
	err := r.db.SQLWithContext(ctx).
		Preload("Assignments").
		Where("ends_at <= ? AND status IN ?", cutoff, []ShiftStatus{
			ShiftPending, ShiftUpcoming, ShiftOngoing, ShiftCompleted, ShiftOvertimeStarted,
		}).
		Find(&shifts).Error
	if err != nil {
		return nil, log.Err("failed to list ended shifts", err, "cutoff", cutoff)
	}

	return shifts, nil
}

func (r *shiftRepository) Update(ctx context.Context, tx *gorm.DB, shift *Shift) error {
	log := r.log.Function("Update")

	if err := tx.WithContext(ctx).Save(shift).Error; err != nil {
		return log.Err("failed to update shift", err, "shiftID", shift.ID)
	}

	return nil
}

func (r *shiftRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status ShiftStatus) error {
	log := r.log.Function("UpdateStatus")

	err := tx.WithContext(ctx).
		Model(&Shift{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return log.Err("failed to update shift status", err, "shiftID", id, "status", status)
	}

	return nil
}
