// Package lifecycle 负责警报与求助的状态机、权限校验与事件派发
package lifecycle

import (
	"context"
	"time"

	"AidLink/internal/geo"
	"AidLink/internal/match"
	"AidLink/internal/models"
	"AidLink/internal/notify"
	"AidLink/internal/responder"
	apperrors "AidLink/pkg/errors"
	stores "AidLink/pkg/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Observer 状态迁移与失败的观测回调
type Observer interface {
	Transition(entity, from, to string)
	Rejected(op, kind string)
}

// Actor 发起操作的已认证用户
type Actor struct {
	ID   string
	Role string
}

// ActorOf 从用户构造 Actor
func ActorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func (a Actor) elevated() bool {
	return a.Role == models.RoleNGO || a.Role == models.RoleAdmin
}

// Deps 引擎依赖，除 DB 外均可为空
type Deps struct {
	DB       *gorm.DB
	Index    *geo.Index
	Matcher  *match.Engine
	Bus      notify.Bus
	Images   stores.Store
	Observer Observer
	Logger   *zap.Logger
	Now      func() time.Time
}

// Engine 生命周期引擎，所有写操作以实体 ID 为粒度串行化（条件更新），无全局锁
type Engine struct {
	db         *gorm.DB
	index      *geo.Index
	matcher    *match.Engine
	bus        notify.Bus
	images     stores.Store
	responders *responder.Registry
	observer   Observer
	logger     *zap.Logger
	now        func() time.Time
}

// New 创建引擎
func New(d Deps) *Engine {
	e := &Engine{
		db:       d.DB,
		index:    d.Index,
		matcher:  d.Matcher,
		bus:      d.Bus,
		images:   d.Images,
		observer: d.Observer,
		logger:   d.Logger,
		now:      d.Now,
	}
	if e.bus == nil {
		e.bus = notify.Discard{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.index == nil {
		e.index = geo.NewIndex(e.logger)
	}
	e.responders = responder.NewRegistry(d.DB)
	return e
}

// Responders 响应者注册表，供读侧直接查询
func (e *Engine) Responders() *responder.Registry { return e.responders }

// Index 地理索引
func (e *Engine) Index() *geo.Index { return e.index }

func (e *Engine) timestamp() time.Time {
	return e.now().UTC().Truncate(time.Millisecond)
}

// track 统一记录失败类型，配合命名返回值使用
func (e *Engine) track(op string, err *error) {
	if *err == nil || e.observer == nil {
		return
	}
	kind := "Internal"
	if ae, ok := apperrors.Find(*err); ok {
		kind = ae.Kind()
	}
	e.observer.Rejected(op, kind)
}

func (e *Engine) transitioned(entity, from, to string) {
	if e.observer != nil {
		e.observer.Transition(entity, from, to)
	}
}

func (e *Engine) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return e.db.WithContext(ctx).Transaction(fn)
}
