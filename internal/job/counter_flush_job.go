package job

import (
	"Ripple/internal/pkg/logger"
	"Ripple/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// CounterFlushJob 周期性把缓存中的脏互动计数刷回关系库
type CounterFlushJob struct {
	resyncSvc service.ResyncService
}

func NewCounterFlushJob(resyncSvc service.ResyncService) *CounterFlushJob {
	return &CounterFlushJob{
		resyncSvc: resyncSvc,
	}
}

func (s *CounterFlushJob) Run() {
	traceID := "job-counter-flush-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	if err := s.resyncSvc.FlushCounters(ctx); err != nil {
		log.ErrorContext(ctx, "counter flush job failed", "err", err)
	}
}
