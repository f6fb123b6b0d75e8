// Package match 根据地理索引为新建的警报/求助挑选附近的志愿者
package match

import (
	"context"
	"sync"

	"AidLink/internal/geo"
	"AidLink/internal/models"
	"AidLink/internal/notify"

	"go.uber.org/zap"
)

const (
	DefaultRadiusMeters = 10000
	DefaultLimit        = 20

	KindAlert   = "alert"
	KindRequest = "request"
)

// Finder 邻近查询，由 geo.Index 实现
type Finder interface {
	QueryNearbyWithDistance(lat, lng, radiusMeters float64, requiredSkills []string) []geo.Candidate
}

// Sink 消费 MatchesFound 事件
type Sink interface {
	Publish(ctx context.Context, m notify.MatchesFound) error
}

// Options 匹配参数
type Options struct {
	RadiusMeters float64
	Limit        int
	// Async 为 true 时 Sink 在独立 goroutine 中执行，不占用请求协程
	Async bool
}

// Engine 匹配引擎，本身不做通知，只把结果交给 Sink
//
// sinks 只接收非空匹配；observers 接收每一次匹配（包括空匹配），且总是同步执行
type Engine struct {
	finder    Finder
	opts      Options
	sinks     []Sink
	observers []Sink
	logger    *zap.Logger
	inflight  sync.WaitGroup
}

// NewEngine 创建匹配引擎，零值参数取默认
func NewEngine(finder Finder, opts Options, logger *zap.Logger, sinks ...Sink) *Engine {
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = DefaultRadiusMeters
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{finder: finder, opts: opts, logger: logger}
	for _, s := range sinks {
		if s != nil {
			e.sinks = append(e.sinks, s)
		}
	}
	return e
}

// Observe 注册观察者，须在引擎开始处理事件前调用
func (e *Engine) Observe(observers ...Sink) *Engine {
	for _, o := range observers {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
	return e
}

// Wait 等待异步投递完成，用于优雅退出
func (e *Engine) Wait() { e.inflight.Wait() }

// Radius 默认匹配半径
func (e *Engine) Radius() float64 { return e.opts.RadiusMeters }

// Rank 返回半径内按距离排序的候选人，截断到 limit
func (e *Engine) Rank(loc models.Location, radiusMeters float64, skills []string) []notify.Candidate {
	found := e.finder.QueryNearbyWithDistance(loc.Latitude, loc.Longitude, radiusMeters, skills)
	if len(found) > e.opts.Limit {
		found = found[:e.opts.Limit]
	}
	out := make([]notify.Candidate, len(found))
	for i, c := range found {
		out[i] = notify.Candidate{UserID: c.UserID, DistanceMeters: c.DistanceMeters}
	}
	return out
}

// OnAlertCreated 为新警报匹配志愿者
func (e *Engine) OnAlertCreated(ctx context.Context, a *models.Alert) notify.MatchesFound {
	m := notify.MatchesFound{
		EntityID:   a.ID,
		EntityKind: KindAlert,
		Title:      a.Title,
		Radius:     e.opts.RadiusMeters,
		Candidates: e.Rank(a.Location, e.opts.RadiusMeters, nil),
	}
	e.emit(ctx, m)
	return m
}

// OnRequestCreated 为新求助匹配志愿者，按 skillsRequired 过滤
func (e *Engine) OnRequestCreated(ctx context.Context, r *models.AssistanceRequest) notify.MatchesFound {
	return e.matchRequest(ctx, r, e.opts.RadiusMeters)
}

// Escalate 以 factor 倍半径重新匹配仍未被接单的求助
func (e *Engine) Escalate(ctx context.Context, r *models.AssistanceRequest, factor float64) notify.MatchesFound {
	if factor < 1 {
		factor = 1
	}
	return e.matchRequest(ctx, r, e.opts.RadiusMeters*factor)
}

func (e *Engine) matchRequest(ctx context.Context, r *models.AssistanceRequest, radius float64) notify.MatchesFound {
	m := notify.MatchesFound{
		EntityID:   r.ID,
		EntityKind: KindRequest,
		Title:      r.Title,
		Radius:     radius,
		Candidates: e.Rank(r.Location, radius, r.Requirements.SkillsRequired),
	}
	e.emit(ctx, m)
	return m
}

// emit 先通知观察者，没有候选人时不再投递给 Sink
func (e *Engine) emit(ctx context.Context, m notify.MatchesFound) {
	for _, o := range e.observers {
		e.publish(ctx, o, m)
	}
	if len(m.Candidates) == 0 {
		e.logger.Debug("no candidates", zap.String("kind", m.EntityKind), zap.String("id", m.EntityID))
		return
	}
	if !e.opts.Async {
		e.deliver(ctx, m)
		return
	}
	// 请求结束后 ctx 会被取消，投递不能跟着失败
	ctx = context.WithoutCancel(ctx)
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		e.deliver(ctx, m)
	}()
}

func (e *Engine) deliver(ctx context.Context, m notify.MatchesFound) {
	for _, s := range e.sinks {
		e.publish(ctx, s, m)
	}
}

func (e *Engine) publish(ctx context.Context, s Sink, m notify.MatchesFound) {
	if err := s.Publish(ctx, m); err != nil {
		e.logger.Warn("publish matches failed",
			zap.String("kind", m.EntityKind),
			zap.String("id", m.EntityID),
			zap.Error(err))
	}
}
