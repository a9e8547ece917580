package repositories

import (
	"context"
	"time"

	"guardpost/internal/database"
	"guardpost/internal/logger"
	. "guardpost/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, notifications []*Notification) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
}

type notificationRepository struct {
	db  database.DB
	log logger.Logger
}

func NewNotificationRepository(db database.DB) NotificationRepository {
	return &notificationRepository{
		db:  db,
		log: logger.New("notificationRepository"),
	}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, tx *gorm.DB, notifications []*Notification) error {
	log := r.log.Function("CreateBatch")

	if len(notifications) == 0 {
		return nil
	}

	if err := tx.WithContext(ctx).Create(notifications).Error; err != nil {
		return log.Err("failed to create notifications", err, "count", len(notifications))
	}

	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]Notification, error) {
	log := r.log.Function("ListByRecipient")

	query := r.db.SQLWithContext(ctx).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var notifications []Notification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, log.Err("failed to list notifications", err, "recipientID", recipientID)
	}

	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	log := r.log.Function("MarkRead")

	err := r.db.SQLWithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, recipientID).
		Update("read_at", time.Now().UTC()).Error
	if err != nil {
		return log.Err("failed to mark notification read", err, "notificationID", id)
	}

	return nil
}
