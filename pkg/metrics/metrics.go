package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aidlink"

// Metrics 指标管理器，所有指标注册到同一个 Registerer
type Metrics struct {
	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 数据库指标
	dbQueryDuration *prometheus.HistogramVec
	dbErrorsTotal   *prometheus.CounterVec

	// 业务指标
	transitionsTotal   *prometheus.CounterVec
	rejectionsTotal    *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	matchCandidates    *prometheus.HistogramVec

	reg prometheus.Registerer
}

// New 创建指标管理器，reg 为空时使用默认注册表
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		dbQueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database statement duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		dbErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_errors_total",
				Help:      "Database statements that returned an error",
			},
			[]string{"operation", "table"},
		),
		transitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lifecycle_transitions_total",
				Help:      "Committed alert/request status transitions",
			},
			[]string{"entity", "from", "to"},
		),
		rejectionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lifecycle_rejections_total",
				Help:      "Lifecycle operations rejected, by error kind",
			},
			[]string{"operation", "kind"},
		),
		notificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Events handed to the notification bus",
			},
			[]string{"event", "scope"},
		),
		matchCandidates: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "match_candidates",
				Help:      "Number of volunteers matched per alert/request",
				Buckets:   []float64{1, 2, 5, 10, 20, 50},
			},
			[]string{"kind"},
		),
	}
}

// RecordHTTPRequest 记录HTTP请求指标
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDBQuery 记录数据库语句耗时
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration, err error) {
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		m.dbErrorsTotal.WithLabelValues(operation, table).Inc()
	}
}

// Transition 记录一次状态迁移
func (m *Metrics) Transition(entity, from, to string) {
	if from == "" {
		from = "none"
	}
	m.transitionsTotal.WithLabelValues(entity, from, to).Inc()
}

// Rejected 记录一次被拒绝的操作
func (m *Metrics) Rejected(op, kind string) {
	m.rejectionsTotal.WithLabelValues(op, kind).Inc()
}

// Notification 记录一次事件派发
func (m *Metrics) Notification(event string, targeted bool) {
	scope := "broadcast"
	if targeted {
		scope = "user"
	}
	m.notificationsTotal.WithLabelValues(event, scope).Inc()
}

// Matched 记录一次匹配的候选人数
func (m *Metrics) Matched(kind string, candidates int) {
	m.matchCandidates.WithLabelValues(kind).Observe(float64(candidates))
}

// GaugeFunc 注册一个取值函数，例如在线连接数
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) {
	promauto.With(m.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)
}
