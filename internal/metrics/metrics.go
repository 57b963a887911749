package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "console"

// Metrics 控制台指标，nil 接收者上的方法均为空操作
type Metrics struct {
	registry *prometheus.Registry

	SearchTotal       *prometheus.CounterVec
	SearchDuration    prometheus.Histogram
	DeleteTotal       *prometheus.CounterVec
	DialogSubmitTotal *prometheus.CounterVec
}

// New 创建指标并注册到独立的 registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SearchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "List searches by outcome",
		}, []string{"outcome"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Latency of list searches",
			Buckets:   prometheus.DefBuckets,
		}),
		DeleteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delete_total",
			Help:      "Row deletions by kind and outcome",
		}, []string{"kind", "outcome"}),
		DialogSubmitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_submit_total",
			Help:      "Dialog submissions by mode and outcome",
		}, []string{"mode", "outcome"}),
	}
	m.registry.MustRegister(
		m.SearchTotal,
		m.SearchDuration,
		m.DeleteTotal,
		m.DialogSubmitTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch 记录一次查询
func (m *Metrics) ObserveSearch(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SearchTotal.WithLabelValues(outcome).Inc()
	m.SearchDuration.Observe(elapsed.Seconds())
}

// IncDelete 记录删除结果
func (m *Metrics) IncDelete(kind, outcome string) {
	if m == nil {
		return
	}
	m.DeleteTotal.WithLabelValues(kind, outcome).Inc()
}

// AddDelete 批量累加删除结果
func (m *Metrics) AddDelete(kind, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DeleteTotal.WithLabelValues(kind, outcome).Add(float64(n))
}

// IncDialogSubmit 记录弹窗提交结果
func (m *Metrics) IncDialogSubmit(mode, outcome string) {
	if m == nil {
		return
	}
	m.DialogSubmitTotal.WithLabelValues(mode, outcome).Inc()
}
