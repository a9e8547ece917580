package services

import (
	"guardpost/config"
	"guardpost/internal/database"
	"guardpost/internal/events"
	"guardpost/internal/repositories"
	"guardpost/internal/scheduling"
)

type Service struct {
	Transaction  *TransactionService
	Scheduler    *SchedulerService
	Notification *NotificationService
	Clock        *scheduling.Clock
}

func New(db database.DB, config config.Config, eventBus *events.EventBus) (Service, error) {
	clock, err := scheduling.NewClock(config.OperationalTimezone)
	if err != nil {
		return Service{}, err
	}

	transactionService := NewTransactionService(db)
	repos := repositories.New(db)

	schedulerService := NewSchedulerService(clock.Location())
	notificationService := NewNotificationService(repos, db, eventBus)

	return Service{
		Transaction:  transactionService,
		Scheduler:    schedulerService,
		Notification: notificationService,
		Clock:        clock,
	}, nil
}
