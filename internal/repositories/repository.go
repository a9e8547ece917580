package repositories

import (
	"guardpost/internal/database"
)

type Repository struct {
	User               UserRepository
	Order              OrderRepository
	Shift              ShiftRepository
	Assignment         AssignmentRepository
	ShiftChangeRequest ShiftChangeRequestRepository
	Notification       NotificationRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:               NewUserRepository(db), // user repo caches authenticated lookups
		Order:              NewOrderRepository(db),
		Shift:              NewShiftRepository(db),
		Assignment:         NewAssignmentRepository(db),
		ShiftChangeRequest: NewShiftChangeRequestRepository(db),
		Notification:       NewNotificationRepository(db),
	}
}
