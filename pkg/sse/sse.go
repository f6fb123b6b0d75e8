package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Client 一个 SSE 会话
type Client struct {
	id     string
	userID string
	ch     chan string
	done   chan struct{}
}

// Hub SSE 会话管理，userID 即房间
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	rooms    map[string]map[string]bool // userID -> clientID set
	interval time.Duration
	retryMs  int
	buffer   int
}

func NewHub(interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{
		clients:  make(map[string]*Client),
		rooms:    make(map[string]map[string]bool),
		interval: interval,
		retryMs:  5000,
		buffer:   64,
	}
}

// AddClient 注册会话并加入 userID 房间
func (h *Hub) AddClient(userID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &Client{id: uuid.NewString(), userID: userID, ch: make(chan string, h.buffer), done: make(chan struct{})}
	h.clients[c.id] = c
	if userID != "" {
		if h.rooms[userID] == nil {
			h.rooms[userID] = make(map[string]bool)
		}
		h.rooms[userID][c.id] = true
	}
	return c
}

func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	close(c.done)
	if room := h.rooms[c.userID]; room != nil {
		delete(room, id)
		if len(room) == 0 {
			delete(h.rooms, c.userID)
		}
	}
	delete(h.clients, id)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Broadcast 推送给所有会话
func (h *Hub) Broadcast(event string, payload interface{}) {
	msg, ok := formatEvent(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.offer(c, msg)
	}
}

// Notify 推送给 userID 房间内的会话
func (h *Hub) Notify(userID, event string, payload interface{}) {
	if userID == "" {
		return
	}
	msg, ok := formatEvent(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.rooms[userID] {
		if c := h.clients[id]; c != nil {
			h.offer(c, msg)
		}
	}
}

// offer 缓冲区满即丢弃
func (h *Hub) offer(c *Client, msg string) {
	select {
	case c.ch <- msg:
	default:
		logrus.Warnf("SSE 会话 %s 缓冲区已满，事件被丢弃", c.id)
	}
}

type envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func formatEvent(event string, payload interface{}) (string, bool) {
	b, err := json.Marshal(envelope{Type: event, Data: payload, Timestamp: time.Now().Unix()})
	if err != nil {
		logrus.Errorf("SSE 事件序列化失败: %v", err)
		return "", false
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, b), true
}

// Serve 以 text/event-stream 持续输出 userID 的事件
func (h *Hub) Serve(c *gin.Context, userID string) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)
	flusher.Flush()

	client := h.AddClient(userID)
	defer h.RemoveClient(client.id)

	ping := time.NewTicker(h.interval)
	defer ping.Stop()

	for {
		select {
		case <-client.done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprintf(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-client.ch:
			if _, err := c.Writer.Write([]byte(msg)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
