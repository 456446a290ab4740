package asynqserver

import (
	"github.com/hibiken/asynq"

	"github.com/inknote/backend/internal/cache"
	"github.com/inknote/backend/internal/config"
	"github.com/inknote/backend/internal/queue/processor"
	"github.com/inknote/backend/internal/queue/task"
	"github.com/inknote/backend/internal/worker"
)

func New(cfg config.Cache, workers *worker.Workers) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(workers)
	srv := asynq.NewServer(
		RedisOptions(cfg),
		asynq.Config{
			Concurrency: 10,
			LogLevel:    asynq.ErrorLevel,
			Queues:      queues,
		},
	)

	return srv, mux
}

// NewScheduler registers the periodic maintenance tasks, currently only the
// expired pending-verification purge.
func NewScheduler(cfg config.Cache) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOptions(cfg), &asynq.SchedulerOpts{
		LogLevel: asynq.ErrorLevel,
	})

	if _, err := scheduler.Register(task.PurgeExpiredSchedule, task.NewPurgeExpiredTask()); err != nil {
		return nil, err
	}

	return scheduler, nil
}

func RedisOptions(cfg config.Cache) asynq.RedisConnOpt {
	var opts asynq.RedisConnOpt
	if cfg.Type == cache.RedisTypeCluster {
		opts = asynq.RedisClusterClientOpt{Addrs: cfg.RedisCluster.Addresses, Password: cfg.RedisCluster.Password}
	} else {
		opts = asynq.RedisClientOpt{Addr: cfg.Redis.Address, Password: cfg.Redis.Password}
	}
	return opts
}

func getQueues(workers *worker.Workers) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.SendEmailTaskName, processor.NewSendEmailProcessor(workers))
	mux.Handle(task.PurgeExpiredTaskName, processor.NewPurgeExpiredProcessor(workers))
	queues := map[string]int{
		task.SendEmailQueueName:    2,
		task.PurgeExpiredQueueName: 1,
	}
	return mux, queues
}
