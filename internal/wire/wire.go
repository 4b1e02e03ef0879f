package wire

import (
	"Ripple/internal/api"
	"Ripple/internal/api/config"
	"Ripple/internal/api/handler"
	"Ripple/internal/cache"
	"Ripple/internal/job"
	"Ripple/internal/pkg/cron"
	"Ripple/internal/pkg/kafka"
	"Ripple/internal/pkg/redis"
	"Ripple/internal/pkg/ws"
	"Ripple/internal/repository"
	"Ripple/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	Hub          *ws.Hub
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	postRepo := repository.NewPostRepository(db)
	userFollowRepo := repository.NewUserFollowRepo(db)

	store := cache.NewRedisStore(redis.Rdb)
	timelines := cache.NewTimelines(store, cache.TimelineCaps{
		Global: cfg.Feed.GlobalCap,
		Home:   cfg.Feed.HomeCap,
		Author: cfg.Feed.AuthorCap,
	})
	follows := cache.NewFollowGraph(store)
	posts := cache.NewPostCache(store, timelines, follows)
	profiles := cache.NewProfiles(store, follows, posts)

	hub := ws.NewHub()

	feedService := service.NewFeedService(postRepo, userFollowRepo, posts, follows, profiles, hub)
	profileService := service.NewProfileService(userRepo, postRepo, userFollowRepo, profiles)
	resyncService := service.NewResyncService(
		userRepo, postRepo, userFollowRepo, store, posts, timelines, follows, profiles)

	handlers := &api.HandlersGroup{
		ProfileHandler:  handler.NewProfileHandler(profileService),
		PostHandler:     handler.NewPostHandler(feedService),
		TimelineHandler: handler.NewTimelineHandler(feedService),
		FollowHandler:   handler.NewFollowHandler(feedService),
		WsHandler:       handler.NewWsHandler(hub),
	}

	router := api.SetupRouter(handlers)

	cronMgr := cron.NewCronManager(
		job.NewCounterFlushJob(resyncService),
		job.NewScheduledPostJob(postRepo, feedService),
		job.NewResyncJob(resyncService),
	)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, posts)
	if err != nil {
		return nil, err
	}

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		Hub:          hub,
		CronMgr:      cronMgr,
		KafkaManager: kafkaMgr,
	}, nil
}
