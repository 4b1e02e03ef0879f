package cron

import (
	"Ripple/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine           *cron.Cron
	counterFlushJob  *job.CounterFlushJob
	scheduledPostJob *job.ScheduledPostJob
	resyncJob        *job.ResyncJob
}

func NewCronManager(
	counterFlushJob *job.CounterFlushJob,
	scheduledPostJob *job.ScheduledPostJob,
	resyncJob *job.ResyncJob,
) *Manager {
	return &Manager{
		engine:           cron.New(cron.WithSeconds()),
		counterFlushJob:  counterFlushJob,
		scheduledPostJob: scheduledPostJob,
		resyncJob:        resyncJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob("0 * * * * *", s.counterFlushJob); err != nil {
		return err
	}
	if _, err := s.engine.AddJob("30 * * * * *", s.scheduledPostJob); err != nil {
		return err
	}
	if _, err := s.engine.AddJob("@daily", s.resyncJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
