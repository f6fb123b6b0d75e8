package handlers

import (
	"strings"

	"AidLink/internal/lifecycle"
	"AidLink/internal/models"
	"AidLink/internal/readmodel"
	apperrors "AidLink/pkg/errors"
	"AidLink/pkg/sse"
	"AidLink/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// Deps 处理器依赖，Hub/SSE/Gatherer 可为空
type Deps struct {
	DB          *gorm.DB
	Engine      *lifecycle.Engine
	Views       *readmodel.Assembler
	Hub         *websocket.Hub
	SSE         *sse.Hub
	Gatherer    prometheus.Gatherer
	APIPrefix   string
	Auth        gin.HandlerFunc
	Middlewares []gin.HandlerFunc
}

type Handlers struct {
	db        *gorm.DB
	engine    *lifecycle.Engine
	views     *readmodel.Assembler
	hub       *websocket.Hub
	sse       *sse.Hub
	gatherer  prometheus.Gatherer
	apiPrefix string
	auth      gin.HandlerFunc
	mws       []gin.HandlerFunc
}

func NewHandlers(d Deps) *Handlers {
	if d.APIPrefix == "" {
		d.APIPrefix = "/api"
	}
	return &Handlers{
		db:        d.DB,
		engine:    d.Engine,
		views:     d.Views,
		hub:       d.Hub,
		sse:       d.SSE,
		gatherer:  d.Gatherer,
		apiPrefix: d.APIPrefix,
		auth:      d.Auth,
		mws:       d.Middlewares,
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	h.registerSystemRoutes(engine)

	r := engine.Group(h.apiPrefix)
	if h.auth != nil {
		r.Use(h.auth)
	}
	r.Use(h.mws...)

	h.registerAlertRoutes(r)
	h.registerRequestRoutes(r)
	h.registerUserRoutes(r)
	h.registerRealtimeRoutes(r)
}

// Alert Module
func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	alerts := r.Group("/alerts")
	{
		alerts.POST("", h.handleCreateAlert)
		alerts.GET("", h.handleListAlerts)
		alerts.GET("/:id", h.handleGetAlert)
		alerts.PUT("/:id/status", h.handleUpdateAlertStatus)
		alerts.POST("/:id/respond", h.handleRespondToAlert)
		alerts.PUT("/:id/responders/me", h.handleUpdateResponderStatus)
		alerts.GET("/:id/responders", h.handleListResponders)
		alerts.POST("/:id/verify", h.handleVerifyAlert)
		alerts.POST("/:id/images", h.handleAttachAlertImage)
	}
}

// Request Module
func (h *Handlers) registerRequestRoutes(r *gin.RouterGroup) {
	requests := r.Group("/requests")
	{
		requests.POST("", h.handleCreateRequest)
		requests.GET("", h.handleListRequests)
		requests.GET("/user/my-requests", h.handleMyRequests)
		requests.GET("/volunteer/accepted", h.handleVolunteerAccepted)
		requests.GET("/:id", h.handleGetRequest)
		requests.POST("/:id/accept", h.handleAcceptRequest)
		requests.PUT("/:id/status", h.handleUpdateRequestStatus)
		requests.POST("/:id/feedback", h.handleSubmitFeedback)
	}
}

// User Module
func (h *Handlers) registerUserRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("/volunteers/nearby", h.handleNearbyVolunteers)
		users.PUT("/location", h.handleUpdateLocation)
		users.PUT("/availability", h.handleUpdateAvailability)
		users.PUT("/skills", h.handleUpdateSkills)
		users.GET("/stats", h.handleUserStats)
	}
}

func (h *Handlers) registerRealtimeRoutes(r *gin.RouterGroup) {
	if h.hub != nil {
		websocket.RegisterRoutes(r, websocket.NewHandler(h.hub))
	}
	if h.sse != nil {
		r.GET("/events", h.handleEvents)
	}
}

// actor 认证中间件保证当前用户存在
func actor(c *gin.Context) lifecycle.Actor {
	if u := models.CurrentUser(c); u != nil {
		return lifecycle.ActorOf(u)
	}
	return lifecycle.Actor{}
}

// queryFloat 缺省返回 nil，非法数值返回 ValidationError
func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil, apperrors.Validation("invalid %s %q", key, raw)
	}
	return &v, nil
}

// queryNumber 缺省为 0，交给引擎取默认值
func queryNumber(c *gin.Context, key string) (float64, error) {
	v, err := queryFloat(c, key)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return 0, apperrors.Validation("invalid %s %q", key, raw)
	}
	return v, nil
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func (h *Handlers) listQuery(c *gin.Context) (lifecycle.ListQuery, error) {
	q := lifecycle.ListQuery{
		Type:     c.Query("type"),
		Severity: c.Query("severity"),
		Priority: c.Query("priority"),
		Status:   c.Query("status"),
	}
	var err error
	if q.Radius, err = queryNumber(c, "radius"); err != nil {
		return q, err
	}
	if q.Page, err = queryInt(c, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		return q, err
	}
	if q.Lat, err = queryFloat(c, "lat"); err != nil {
		return q, err
	}
	if q.Lng, err = queryFloat(c, "lng"); err != nil {
		return q, err
	}
	return q, nil
}
