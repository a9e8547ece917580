package jobs

import (
	"guardpost/config"
	"guardpost/internal/database"
	"guardpost/internal/logger"
	"guardpost/internal/repositories"
	"guardpost/internal/services"
)

const (
	Hourly           = services.Hourly
	DailyMaintenance = services.DailyMaintenance
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	services services.Service,
	repos repositories.Repository,
	db database.DB,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")
	log.Info("Registering jobs")

	lifecycleSweepJob := NewLifecycleSweepJob(
		repos,
		services.Notification,
		services.Clock,
		config,
		db,
		DailyMaintenance,
	)
	if err := schedulerService.AddJob(lifecycleSweepJob); err != nil {
		return log.Err("failed to register lifecycle sweep job", err)
	}
	log.Info("Registered lifecycle sweep job", "schedule", "daily at 00:01")

	return nil
}
