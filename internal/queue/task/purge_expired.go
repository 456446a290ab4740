package task

import (
	"github.com/hibiken/asynq"
)

const (
	PurgeExpiredTaskName  = "purgeExpiredVerificationsTask"
	PurgeExpiredQueueName = "maintenanceQueue"

	// PurgeExpiredSchedule drives the scheduler; records past their
	// expires_at are unusable immediately, this only reclaims the rows.
	PurgeExpiredSchedule = "@every 10m"
)

func NewPurgeExpiredTask() *asynq.Task {
	return asynq.NewTask(
		PurgeExpiredTaskName,
		nil,
		asynq.MaxRetry(3),
		asynq.Queue(PurgeExpiredQueueName),
	)
}
