package controllers

import (
	"guardpost/config"
	"guardpost/internal/database"
	"guardpost/internal/events"
	"guardpost/internal/repositories"
	"guardpost/internal/services"

	assignmentController "guardpost/internal/controllers/assignments"
	orderController "guardpost/internal/controllers/orders"
	shiftchangeController "guardpost/internal/controllers/shiftchanges"
	shiftController "guardpost/internal/controllers/shifts"
)

type Controllers struct {
	Order       orderController.OrderControllerInterface
	Shift       shiftController.ShiftControllerInterface
	Assignment  assignmentController.AssignmentControllerInterface
	ShiftChange shiftchangeController.ShiftChangeControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Order:       orderController.New(repos, services, config, db),
		Shift:       shiftController.New(repos, services, config, db),
		Assignment:  assignmentController.New(repos, services, config, db),
		ShiftChange: shiftchangeController.New(repos, services, config, db),
	}
}
