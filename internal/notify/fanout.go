package notify

// Observer 每次投递调用后回调，用于计数
type Observer func(event string, targeted bool)

// Fanout 把一次投递分发到多个传输（websocket、SSE）
type Fanout struct {
	transports []Bus
	observe    Observer
}

// NewFanout 组合传输，nil 项会被忽略
func NewFanout(observe Observer, transports ...Bus) *Fanout {
	f := &Fanout{observe: observe}
	for _, t := range transports {
		if t != nil {
			f.transports = append(f.transports, t)
		}
	}
	return f
}

func (f *Fanout) Broadcast(event string, payload interface{}) {
	for _, t := range f.transports {
		t.Broadcast(event, payload)
	}
	if f.observe != nil {
		f.observe(event, false)
	}
}

func (f *Fanout) Notify(userID, event string, payload interface{}) {
	if userID == "" {
		return
	}
	for _, t := range f.transports {
		t.Notify(userID, event, payload)
	}
	if f.observe != nil {
		f.observe(event, true)
	}
}

// Discard 丢弃所有事件
type Discard struct{}

func (Discard) Broadcast(string, interface{})      {}
func (Discard) Notify(string, string, interface{}) {}
