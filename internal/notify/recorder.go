package notify

import "sync"

// Delivery 一次记录下来的投递，To 为空表示广播
type Delivery struct {
	To      string
	Event   string
	Payload interface{}
}

// Recorder 记录投递的内存总线，供测试断言
type Recorder struct {
	mu         sync.Mutex
	deliveries []Delivery
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Broadcast(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, Delivery{Event: event, Payload: payload})
}

func (r *Recorder) Notify(userID, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, Delivery{To: userID, Event: event, Payload: payload})
}

// All 返回全部投递的副本
func (r *Recorder) All() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Delivery, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

// Events 按事件名过滤
func (r *Recorder) Events(event string) []Delivery {
	var out []Delivery
	for _, d := range r.All() {
		if d.Event == event {
			out = append(out, d)
		}
	}
	return out
}

// Reset 清空记录
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = nil
}
