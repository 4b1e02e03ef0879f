package api

import (
	"Ripple/internal/api/middleware"
	"Ripple/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		apiGroup.GET("/ws", group.WsHandler.Connect)

		userGroup := apiGroup.Group("/user")
		{
			// 无需登录即可访问的接口
			userGroup.POST("/register", group.ProfileHandler.Register)
			userGroup.POST("/login", group.ProfileHandler.Login)
			userGroup.GET("/search", group.ProfileHandler.SearchUsernames)
			userGroup.GET("/:user_id", group.ProfileHandler.GetProfile)
			userGroup.GET("/by-username/:username", group.ProfileHandler.GetProfileByUsername)
			userGroup.GET("/:user_id/followers", group.FollowHandler.GetFollowers)
			userGroup.GET("/:user_id/followings", group.FollowHandler.GetFollowings)

			authGroup := userGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.DELETE("/me", group.ProfileHandler.DeleteProfile)
				authGroup.POST("/:user_id/follow", group.FollowHandler.Follow)
				authGroup.DELETE("/:user_id/follow", group.FollowHandler.Unfollow)
				authGroup.GET("/:user_id/is-following", group.FollowHandler.IsFollowing)
			}
		}

		postGroup := apiGroup.Group("/posts")
		{
			postGroup.GET("/detail/:post_id", group.PostHandler.GetPost)

			authGroup := postGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("", group.PostHandler.CreatePost)
				authGroup.PUT("/:post_id", group.PostHandler.UpdatePost)
				authGroup.DELETE("/:post_id", group.PostHandler.DeletePost)
				authGroup.POST("/:post_id/engagement", group.PostHandler.RecordEngagement)
			}
		}

		timelineGroup := apiGroup.Group("/timeline")
		{
			timelineGroup.GET("/global", group.TimelineHandler.GetGlobal)
			timelineGroup.GET("/author/:user_id", group.TimelineHandler.GetAuthor)

			authGroup := timelineGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.GET("/home", group.TimelineHandler.GetHome)
			}
		}
	}

	return r
}
