package websocket

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Message 定义WebSocket消息结构，Type 即事件名
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
	To        string      `json:"-"`
}

// Connection 表示一个WebSocket连接（会话）
type Connection struct {
	ID       string
	UserID   string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
	LastPing time.Time
	mu       sync.RWMutex
	closed   atomic.Bool
}

// Hub 管理所有WebSocket连接，并维护 userId -> 会话集合 的房间订阅表
type Hub struct {
	// 注册的连接
	connections map[string]*Connection
	// 房间（userId）到连接ID的映射
	rooms map[string]map[string]bool
	// 待投递消息通道
	broadcast chan *Message
	// 注册连接通道
	register chan *Connection
	// 注销连接通道
	unregister chan *Connection
	// 连接计数
	connectionCount int64
	// 丢弃计数
	dropped int64
	// 配置
	config *Config
	// 互斥锁
	mu sync.RWMutex
	// 上下文
	ctx    context.Context
	cancel context.CancelFunc

	// 分片：每个连接固定落在一个分片上，由该分片唯一的worker写入，保证会话内顺序
	shardCount int
	shardConns []map[string]*Connection
	shardLocks []sync.RWMutex
	shardJobs  []chan shardJob
}

// shardJob connID 为空时投递给分片内全部连接
type shardJob struct {
	connID string
	data   []byte
}

// Config WebSocket配置
type Config struct {
	// 最大连接数
	MaxConnections int64
	// 心跳间隔
	HeartbeatInterval time.Duration
	// 连接超时时间
	ConnectionTimeout time.Duration
	// 每个会话的发送缓冲区大小
	MessageBufferSize int
	// 读缓冲区大小
	ReadBufferSize int
	// 写缓冲区大小
	WriteBufferSize int
	// 最大消息大小
	MaxMessageSize int
	// 是否启用压缩
	EnableCompression bool
	// 消息队列大小（Hub 入口及每个分片）
	MessageQueueSize int
	// 分片数量
	ShardCount int
	// 发送缓冲区满时是否丢弃
	DropOnFull bool
	// 压缩等级（-2..9）
	CompressionLevel int
	// 慢消费者策略：背压触发时直接断开
	CloseOnBackpressure bool
	// 发送阻塞超时（用于非 DropOnFull 模式）
	SendTimeout time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxConnections:      DefaultMaxConnections,
		HeartbeatInterval:   DefaultHeartbeatInterval * time.Second,
		ConnectionTimeout:   DefaultConnectionTimeout * time.Second,
		MessageBufferSize:   DefaultMessageBufferSize,
		ReadBufferSize:      DefaultReadBufferSize,
		WriteBufferSize:     DefaultWriteBufferSize,
		MaxMessageSize:      DefaultMaxMessageSize,
		EnableCompression:   true,
		MessageQueueSize:    DefaultMessageQueueSize,
		ShardCount:          16,
		DropOnFull:          true,
		CompressionLevel:    -2,
		CloseOnBackpressure: false,
		SendTimeout:         50 * time.Millisecond,
	}
}

// NewHub 创建新的Hub实例
func NewHub(config *Config) *Hub {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MessageQueueSize <= 0 {
		config.MessageQueueSize = DefaultMessageQueueSize
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = DefaultHeartbeatInterval * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	hub := &Hub{
		connections: make(map[string]*Connection),
		rooms:       make(map[string]map[string]bool),
		broadcast:   make(chan *Message, config.MessageQueueSize),
		register:    make(chan *Connection, 1000),
		unregister:  make(chan *Connection, 1000),
		config:      config,
		ctx:         ctx,
		cancel:      cancel,
	}

	// init shards
	if hub.config.ShardCount <= 0 {
		hub.config.ShardCount = 1
	}
	hub.shardCount = hub.config.ShardCount
	hub.shardConns = make([]map[string]*Connection, hub.shardCount)
	hub.shardLocks = make([]sync.RWMutex, hub.shardCount)
	hub.shardJobs = make([]chan shardJob, hub.shardCount)
	for i := 0; i < hub.shardCount; i++ {
		hub.shardConns[i] = make(map[string]*Connection)
		hub.shardJobs[i] = make(chan shardJob, hub.config.MessageQueueSize)
		go hub.shardWorker(i)
	}

	go hub.run()
	return hub
}

// Broadcast 投递给所有在线会话，队列满时丢弃
func (h *Hub) Broadcast(event string, payload interface{}) {
	h.enqueue(&Message{Type: event, Data: payload, Timestamp: time.Now().Unix()})
}

// Notify 仅投递给 userID 房间内的会话
func (h *Hub) Notify(userID, event string, payload interface{}) {
	if userID == "" {
		return
	}
	h.enqueue(&Message{Type: event, Data: payload, Timestamp: time.Now().Unix(), To: userID})
}

func (h *Hub) enqueue(message *Message) {
	if h.ctx.Err() != nil {
		return
	}
	select {
	case h.broadcast <- message:
	default:
		atomic.AddInt64(&h.dropped, 1)
		logrus.Warnf("消息队列已满，事件 %s 被丢弃", message.Type)
	}
}

// run Hub主循环
func (h *Hub) run() {
	ticker := time.NewTicker(h.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case conn := <-h.register:
			h.registerConnection(conn)
		case conn := <-h.unregister:
			h.unregisterConnection(conn)
		case message := <-h.broadcast:
			// 单次序列化减少重复开销
			data, err := json.Marshal(message)
			if err != nil {
				logrus.Errorf("消息序列化失败: %v", err)
				continue
			}
			if message.To != "" {
				h.sendToRoom(message.To, data)
			} else {
				h.sendToAll(data)
			}
		case <-ticker.C:
			h.checkHeartbeats()
		}
	}
}

// registerConnection 注册连接并加入自身房间
func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 检查最大连接数
	if atomic.LoadInt64(&h.connectionCount) >= h.config.MaxConnections {
		conn.close()
		logrus.Warnf("达到最大连接数限制: %d", h.config.MaxConnections)
		return
	}

	h.connections[conn.ID] = conn
	atomic.AddInt64(&h.connectionCount, 1)

	// 放入分片
	sh := h.shardIndex(conn.ID)
	h.shardLocks[sh].Lock()
	h.shardConns[sh][conn.ID] = conn
	h.shardLocks[sh].Unlock()

	h.joinRoomLocked(conn.UserID, conn.ID)

	logrus.Infof("WebSocket连接已注册: %s, 用户: %s, 当前连接数: %d",
		conn.ID, conn.UserID, atomic.LoadInt64(&h.connectionCount))
}

// unregisterConnection 注销连接
func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.connections[conn.ID]; !exists {
		return
	}
	delete(h.connections, conn.ID)
	atomic.AddInt64(&h.connectionCount, -1)

	// 先从分片移除，之后分片worker不会再写入该连接
	sh := h.shardIndex(conn.ID)
	h.shardLocks[sh].Lock()
	delete(h.shardConns[sh], conn.ID)
	h.shardLocks[sh].Unlock()

	if conn.UserID != "" && h.rooms[conn.UserID] != nil {
		delete(h.rooms[conn.UserID], conn.ID)
		if len(h.rooms[conn.UserID]) == 0 {
			delete(h.rooms, conn.UserID)
		}
	}

	conn.closed.Store(true)
	close(conn.Send)
	logrus.Infof("WebSocket连接已注销: %s, 当前连接数: %d",
		conn.ID, atomic.LoadInt64(&h.connectionCount))
}

// joinRoom 会话加入 userId 房间，重复加入无副作用
func (h *Hub) joinRoom(userID, connID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[connID]; !ok {
		return false
	}
	h.joinRoomLocked(userID, connID)
	return true
}

func (h *Hub) joinRoomLocked(userID, connID string) {
	if userID == "" {
		return
	}
	if h.rooms[userID] == nil {
		h.rooms[userID] = make(map[string]bool)
	}
	h.rooms[userID][connID] = true
}

// sendToRoom 发送消息给房间内的全部会话
func (h *Hub) sendToRoom(userID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID := range h.rooms[userID] {
		h.enqueueShard(h.shardIndex(connID), shardJob{connID: connID, data: data})
	}
}

// sendToAll 将广播任务按分片入队
func (h *Hub) sendToAll(data []byte) {
	for i := 0; i < h.shardCount; i++ {
		h.enqueueShard(i, shardJob{data: data})
	}
}

func (h *Hub) enqueueShard(shard int, job shardJob) {
	select {
	case h.shardJobs[shard] <- job:
	default:
		atomic.AddInt64(&h.dropped, 1)
		logrus.Warnf("分片 %d 作业队列已满，消息被丢弃", shard)
	}
}

// shardWorker 分片worker，同一分片内按入队顺序写入
func (h *Hub) shardWorker(shard int) {
	for {
		select {
		case <-h.ctx.Done():
			return
		case job := <-h.shardJobs[shard]:
			h.shardLocks[shard].RLock()
			if job.connID != "" {
				if conn, ok := h.shardConns[shard][job.connID]; ok {
					h.trySend(conn, job.data)
				}
			} else {
				for _, conn := range h.shardConns[shard] {
					h.trySend(conn, job.data)
				}
			}
			h.shardLocks[shard].RUnlock()
		}
	}
}

// trySend 背压策略
func (h *Hub) trySend(conn *Connection, data []byte) {
	if conn.closed.Load() {
		return
	}
	if h.config.DropOnFull {
		select {
		case conn.Send <- data:
		default:
			h.onDrop(conn)
		}
		return
	}
	// 非丢弃模式：限定等待时长
	timeout := h.config.SendTimeout
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case conn.Send <- data:
	case <-timer.C:
		h.onDrop(conn)
	}
}

func (h *Hub) onDrop(conn *Connection) {
	atomic.AddInt64(&h.dropped, 1)
	logrus.Debugf("连接 %s 发送缓冲区满，已按策略处理", conn.ID)
	if h.config.CloseOnBackpressure {
		conn.close()
	}
}

// checkHeartbeats 检查心跳
func (h *Hub) checkHeartbeats() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	for _, conn := range h.connections {
		conn.mu.RLock()
		last := conn.LastPing
		conn.mu.RUnlock()
		if !last.IsZero() && now.Sub(last) > h.config.ConnectionTimeout {
			logrus.Warnf("连接 %s 心跳超时，准备关闭", conn.ID)
			conn.close()
		}
	}
}

// GetConnectionCount 获取当前连接数
func (h *Hub) GetConnectionCount() int64 {
	return atomic.LoadInt64(&h.connectionCount)
}

// GetDroppedCount 获取被丢弃的投递次数
func (h *Hub) GetDroppedCount() int64 {
	return atomic.LoadInt64(&h.dropped)
}

// GetRoomConnections 获取用户房间内的会话数
func (h *Hub) GetRoomConnections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// GetRoomCount 获取房间数
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Close 关闭Hub
func (h *Hub) Close() {
	h.cancel()

	// 关闭所有连接
	h.mu.Lock()
	for _, conn := range h.connections {
		conn.close()
	}
	h.mu.Unlock()

	logrus.Info("WebSocket Hub已关闭")
}

// shardIndex 计算分片索引
func (h *Hub) shardIndex(id string) int {
	if h.shardCount <= 1 {
		return 0
	}
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(id))
	return int(hasher.Sum32() % uint32(h.shardCount))
}
