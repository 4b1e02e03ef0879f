package ws

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	intentQueueSize = 1024
	writeTimeout    = 10 * time.Second
)

// intent 一次待投递的通知：一批收件人加一份载荷
type intent struct {
	recipientIDs []string
	payload      []byte
}

// Hub 在线连接表与通知投递队列。
// Notify 只入队不等待，队列满或收件人离线都直接丢弃，通知是尽力而为的。
type Hub struct {
	mu      sync.RWMutex
	conns   map[string][]*websocket.Conn
	intents chan intent
}

func NewHub() *Hub {
	return &Hub{
		conns:   make(map[string][]*websocket.Conn),
		intents: make(chan intent, intentQueueSize),
	}
}

// Register 登记用户的一条在线连接，同一用户允许多端
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[userID] = append(h.conns[userID], conn)
	log.Info("ws connection registered", "user_id", userID, "conns", len(h.conns[userID]))
}

// Unregister 摘除一条连接，最后一条摘除后清掉用户表项
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.conns[userID]
	for i, c := range conns {
		if c == conn {
			h.conns[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
	log.Info("ws connection unregistered", "user_id", userID)
}

// Notify 把通知放进投递队列后立即返回。
// 队列满时丢弃并记日志，不反压调用方。
func (h *Hub) Notify(recipientIDs []string, payload map[string]interface{}) {
	if len(recipientIDs) == 0 {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error("marshal ws payload failed", "err", err)
		return
	}
	select {
	case h.intents <- intent{recipientIDs: recipientIDs, payload: raw}:
	default:
		log.Warn("ws intent queue full, notification dropped", "recipients", len(recipientIDs))
	}
}

// Run 消费投递队列直到 ctx 结束
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case it := <-h.intents:
			h.deliver(it)
		case <-ctx.Done():
			h.closeAll()
			return nil
		}
	}
}

func (h *Hub) deliver(it intent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range it.recipientIDs {
		for _, conn := range h.conns[userID] {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, it.payload); err != nil {
				// 写失败的连接由读循环负责摘除，这里只丢弃本条
				log.Warn("ws push failed", "user_id", userID, "err", err)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.conns {
		for _, conn := range conns {
			_ = conn.Close()
		}
		delete(h.conns, userID)
	}
	log.Info("ws hub stopped, all connections closed")
}
