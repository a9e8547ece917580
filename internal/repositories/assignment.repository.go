package repositories

import (
	"context"

	"guardpost/internal/database"
	"guardpost/internal/logger"
	. "guardpost/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, assignments []*Assignment) error
	GetByShiftAndGuard(ctx context.Context, shiftID, guardID uuid.UUID) (*Assignment, error)
	GetByShiftAndGuardForUpdate(ctx context.Context, tx *gorm.DB, shiftID, guardID uuid.UUID) (*Assignment, error)
	ListByShift(ctx context.Context, shiftID uuid.UUID) ([]Assignment, error)
	Update(ctx context.Context, tx *gorm.DB, assignment *Assignment) error
	ListBillableFacts(ctx context.Context) ([]BillableFact, error)
}

type assignmentRepository struct {
	db  database.DB
	log logger.Logger
}

func NewAssignmentRepository(db database.DB) AssignmentRepository {
	return &assignmentRepository{
		db:  db,
		log: logger.New("assignmentRepository"),
	}
}

func (r *assignmentRepository) CreateBatch(ctx context.Context, tx *gorm.DB, assignments []*Assignment) error {
	log := r.log.Function("CreateBatch")

	if err := tx.WithContext(ctx).Create(assignments).Error; err != nil {
		return log.Err("failed to create assignments", err, "count", len(assignments))
	}

	return nil
}

func (r *assignmentRepository) GetByShiftAndGuard(ctx context.Context, shiftID, guardID uuid.UUID) (*Assignment, error) {
	log := r.log.Function("GetByShiftAndGuard")

	var assignment Assignment
	err := r.db.SQLWithContext(ctx).
		First(&assignment, "shift_id = ? AND guard_id = ?", shiftID, guardID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get assignment", err, "shiftID", shiftID, "guardID", guardID)
	}

	return &assignment, nil
}

// GetByShiftAndGuardForUpdate locks the assignment row so response and
// clock updates on the same (shift, guard) pair serialize.
func (r *assignmentRepository) GetByShiftAndGuardForUpdate(ctx context.Context, tx *gorm.DB, shiftID, guardID uuid.UUID) (*Assignment, error) {
	log := r.log.Function("GetByShiftAndGuardForUpdate")

	var assignment Assignment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&assignment, "shift_id = ? AND guard_id = ?", shiftID, guardID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get assignment for update", err, "shiftID", shiftID, "guardID", guardID)
	}

	return &assignment, nil
}

func (r *assignmentRepository) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]Assignment, error) {
	log := r.log.Function("ListByShift")

	var assignments []Assignment
	err := r.db.SQLWithContext(ctx).
		Where("shift_id = ?", shiftID).
		Find(&assignments).Error
	if err != nil {
		return nil, log.Err("failed to list assignments by shift", err, "shiftID", shiftID)
	}

	return assignments, nil
}

func (r *assignmentRepository) Update(ctx context.Context, tx *gorm.DB, assignment *Assignment) error {
	log := r.log.Function("Update")

	if err := tx.WithContext(ctx).Save(assignment).Error; err != nil {
		return log.Err("failed to update assignment", err, "assignmentID", assignment.ID)
	}

	return nil
}

// ListBillableFacts exposes worked hours for every clocked-out assignment
// as billing input.
func (r *assignmentRepository) ListBillableFacts(ctx context.Context) ([]BillableFact, error) {
	log := r.log.Function("ListBillableFacts")

	var assignments []Assignment
	err := r.db.SQLWithContext(ctx).
		Where("clock_out_at IS NOT NULL").
		Find(&assignments).Error
	if err != nil {
		return nil, log.Err("failed to list billable assignments", err)
	}

	facts := make([]BillableFact, 0, len(assignments))
	for i := range assignments {
		facts = append(facts, assignments[i].ToBillableFact())
	}

	return facts, nil
}
