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

type ShiftChangeRequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, request *ShiftChangeRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*ShiftChangeRequest, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ShiftChangeRequest, error)
	HasPending(ctx context.Context, shiftID, guardID uuid.UUID) (bool, error)
	ListPending(ctx context.Context) ([]ShiftChangeRequest, error)
	Update(ctx context.Context, tx *gorm.DB, request *ShiftChangeRequest) error
}

type shiftChangeRequestRepository struct {
	db  database.DB
	log logger.Logger
}

func NewShiftChangeRequestRepository(db database.DB) ShiftChangeRequestRepository {
	return &shiftChangeRequestRepository{
		db:  db,
		log: logger.New("shiftChangeRequestRepository"),
	}
}

func (r *shiftChangeRequestRepository) Create(ctx context.Context, tx *gorm.DB, request *ShiftChangeRequest) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(request).Error; err != nil {
		return log.Err("failed to create shift change request", err,
			"shiftID", request.ShiftID,
			"guardID", request.RequestedByID,
		)
	}

	return nil
}

func (r *shiftChangeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*ShiftChangeRequest, error) {
	log := r.log.Function("GetByID")

	var request ShiftChangeRequest
	err := r.db.SQLWithContext(ctx).First(&request, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get shift change request", err, "requestID", id)
	}

	return &request, nil
}

func (r *shiftChangeRequestRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ShiftChangeRequest, error) {
	log := r.log.Function("GetByIDForUpdate")

	var request ShiftChangeRequest
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&request, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get shift change request for update", err, "requestID", id)
	}

	return &request, nil
}

// HasPending reports whether the guard already has an outstanding request
// for the shift. The partial unique index backs this check against races.
func (r *shiftChangeRequestRepository) HasPending(ctx context.Context, shiftID, guardID uuid.UUID) (bool, error) {
	log := r.log.Function("HasPending")

	var count int64
	err := r.db.SQLWithContext(ctx).
		Model(&ShiftChangeRequest{}).
		Where("shift_id = ? AND requested_by_id = ? AND status = ?", shiftID, guardID, ChangeRequestPending).
		Count(&count).Error
	if err != nil {
		return false, log.Err("failed to count pending requests", err, "shiftID", shiftID, "guardID", guardID)
	}

	return count > 0, nil
}

func (r *shiftChangeRequestRepository) ListPending(ctx context.Context) ([]ShiftChangeRequest, error) {
	log := r.log.Function("ListPending")

	var requests []ShiftChangeRequest
	err := r.db.SQLWithContext(ctx).
		Preload("Shift").
		Preload("RequestedBy").
		Where("status = ?", ChangeRequestPending).
		Order("created_at").
		Find(&requests).Error
	if err != nil {
		return nil, log.Err("failed to list pending requests", err)
	}

	return requests, nil
}

func (r *shiftChangeRequestRepository) Update(ctx context.Context, tx *gorm.DB, request *ShiftChangeRequest) error {
	log := r.log.Function("Update")

	if err := tx.WithContext(ctx).Save(request).Error; err != nil {
		return log.Err("failed to update shift change request", err, "requestID", request.ID)
	}

	return nil
}
