package services

import (
	"context"
	"encoding/json"
	"time"

	txContext "guardpost/internal/context"
	"guardpost/internal/database"
	"guardpost/internal/events"
	"guardpost/internal/logger"
	"guardpost/internal/models"
	"guardpost/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventPublisher is the publishing half of the event bus.
type EventPublisher interface {
	Publish(channel events.Channel, event events.Event) error
}

// NotificationService persists notifications and pushes them onto the event
// bus in one step. Delivery failures on the bus never fail the triggering
// operation, the persisted row is the source of truth.
type NotificationService struct {
	repos    repositories.Repository
	eventBus EventPublisher
	db       database.DB
	log      logger.Logger
}

func NewNotificationService(
	repos repositories.Repository,
	db database.DB,
	eventBus EventPublisher,
) *NotificationService {
	return &NotificationService{
		repos:    repos,
		eventBus: eventBus,
		db:       db,
		log:      logger.New("NotificationService"),
	}
}

// Notify stores one notification per recipient and publishes a matching
// event on the notification channel. When tx is nil the transaction is taken
// from the context if one is active, otherwise the rows are written directly.
func (s *NotificationService) Notify(
	ctx context.Context,
	tx *gorm.DB,
	recipientIDs []uuid.UUID,
	notificationType models.NotificationType,
	messageType events.MessageType,
	title, message string,
	data map[string]any,
) error {
	log := s.log.Function("Notify")

	if len(recipientIDs) == 0 {
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return log.Err("failed to encode notification data", err)
	}

	notifications := make([]*models.Notification, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		notifications = append(notifications, &models.Notification{
			RecipientID: recipientID,
			Title:       title,
			Message:     message,
			Type:        notificationType,
			Data:        payload,
		})
	}

	if tx == nil {
		if ctxTx, ok := txContext.GetTransaction(ctx); ok {
			tx = ctxTx
		} else {
			tx = s.db.SQLWithContext(ctx)
		}
	}
	if err := s.repos.Notification.CreateBatch(ctx, tx, notifications); err != nil {
		return err
	}

	for _, notification := range notifications {
		recipientID := notification.RecipientID
		event := events.Event{
			ID:          uuid.New().String(),
			Type:        messageType,
			Channel:     events.NOTIFICATION_CHANNEL,
			RecipientID: &recipientID,
			Data:        data,
			Timestamp:   time.Now().UTC(),
		}
		if err := s.eventBus.Publish(events.NOTIFICATION_CHANNEL, event); err != nil {
			_ = log.Err("failed to publish notification event", err, "recipientID", recipientID)
		}
	}

	return nil
}

// NotifyOperators resolves the current operator list at send time and
// notifies all of them.
func (s *NotificationService) NotifyOperators(
	ctx context.Context,
	tx *gorm.DB,
	notificationType models.NotificationType,
	messageType events.MessageType,
	title, message string,
	data map[string]any,
) error {
	operators, err := s.repos.User.ListOperators(ctx)
	if err != nil {
		return err
	}

	recipientIDs := make([]uuid.UUID, 0, len(operators))
	for _, operator := range operators {
		recipientIDs = append(recipientIDs, operator.ID)
	}

	return s.Notify(ctx, tx, recipientIDs, notificationType, messageType, title, message, data)
}

// PublishLifecycle emits a status transition event on the lifecycle channel.
// These are fire-and-forget, consumers that need history read the entity rows.
func (s *NotificationService) PublishLifecycle(
	messageType events.MessageType,
	data map[string]any,
) {
	log := s.log.Function("PublishLifecycle")

	event := events.Event{
		ID:        uuid.New().String(),
		Type:      messageType,
		Channel:   events.LIFECYCLE_CHANNEL,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	if err := s.eventBus.Publish(events.LIFECYCLE_CHANNEL, event); err != nil {
		_ = log.Err("failed to publish lifecycle event", err, "type", messageType)
	}
}
