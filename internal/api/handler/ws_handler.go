package handler

import (
	"Ripple/internal/pkg/response"
	"Ripple/internal/pkg/security"
	"Ripple/internal/pkg/ws"
	"Ripple/internal/service"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	hub *ws.Hub
}

func NewWsHandler(hub *ws.Hub) *WsHandler {
	return &WsHandler{hub: hub}
}

// Connect 建立通知长连接，用 query 里的 token 鉴权
func (s *WsHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}

	s.hub.Register(userID, conn)
	log.Info("用户 WS 连接已建立", "user_id", userID)

	// 读循环只为感知断开，客户端消息一律忽略
	go func() {
		defer func() {
			s.hub.Unregister(userID, conn)
			_ = conn.Close()
			log.Info("用户 WS 连接已断开", "user_id", userID)
		}()
		for {
			if _, _, rErr := conn.ReadMessage(); rErr != nil {
				return
			}
		}
	}()
}
