package api

import "Ripple/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	ProfileHandler  *handler.ProfileHandler
	PostHandler     *handler.PostHandler
	TimelineHandler *handler.TimelineHandler
	FollowHandler   *handler.FollowHandler
	WsHandler       *handler.WsHandler
}
