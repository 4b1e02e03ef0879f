package job

import (
	"Ripple/internal/pkg/logger"
	"Ripple/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// ResyncJob 全量对账：以关系库为准重建帖子缓存、全局榜和用户侧结构
type ResyncJob struct {
	resyncSvc service.ResyncService
}

func NewResyncJob(resyncSvc service.ResyncService) *ResyncJob {
	return &ResyncJob{
		resyncSvc: resyncSvc,
	}
}

func (s *ResyncJob) Run() {
	traceID := "job-resync-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	if err := s.resyncSvc.ResyncAll(ctx); err != nil {
		log.ErrorContext(ctx, "full resync job failed", "err", err)
	}
}
