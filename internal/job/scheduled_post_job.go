package job

import (
	"Ripple/internal/pkg/logger"
	"Ripple/internal/repository"
	"Ripple/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const scheduledBatchSize = 100

// ScheduledPostJob 到期定时帖发布：标记已发布并做缓存扇出
type ScheduledPostJob struct {
	postRepo repository.PostRepo
	feedSvc  service.FeedService
}

func NewScheduledPostJob(postRepo repository.PostRepo, feedSvc service.FeedService) *ScheduledPostJob {
	return &ScheduledPostJob{
		postRepo: postRepo,
		feedSvc:  feedSvc,
	}
}

func (s *ScheduledPostJob) Run() {
	traceID := "job-scheduled-post-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	due, err := s.postRepo.ListDueScheduled(ctx, time.Now(), scheduledBatchSize)
	if err != nil {
		log.ErrorContext(ctx, "list due scheduled posts failed", "err", err)
		return
	}
	if len(due) == 0 {
		return
	}

	published := 0
	for _, post := range due {
		if err = s.feedSvc.PublishScheduled(ctx, post.ID); err != nil {
			log.ErrorContext(ctx, "publish scheduled post failed", "post_id", post.ID, "err", err)
			continue
		}
		published++
	}
	log.InfoContext(ctx, "scheduled post job finished", "due", len(due), "published", published)
}
