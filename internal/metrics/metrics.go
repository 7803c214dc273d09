package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 地図描画・操作・データ取得のPrometheusメトリクス
type Collector struct {
	gatherer prometheus.Gatherer

	Renders         *prometheus.CounterVec
	RenderDurations *prometheus.HistogramVec
	Interactions    *prometheus.CounterVec
	DatasetLoads    *prometheus.CounterVec
	Sessions        *prometheus.GaugeVec
}

// NewCollector regが nil ならデフォルトレジストリに登録する
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	renders, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "popmap_renders_total",
		Help: "Rendered map images, labeled by surface and result.",
	}, []string{"surface", "result"}), "popmap_renders_total")
	if err != nil {
		return nil, err
	}
	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "popmap_render_duration_seconds",
		Help:    "Map render and encode latency in seconds.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"surface"}), "popmap_render_duration_seconds")
	if err != nil {
		return nil, err
	}
	interactions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "popmap_interactions_total",
		Help: "Map interactions, labeled by surface and kind (focus, clear, hover, page).",
	}, []string{"surface", "kind"}), "popmap_interactions_total")
	if err != nil {
		return nil, err
	}
	loads, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "popmap_dataset_loads_total",
		Help: "Region dataset load attempts, labeled by result.",
	}, []string{"result"}), "popmap_dataset_loads_total")
	if err != nil {
		return nil, err
	}
	sessions, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "popmap_sessions",
		Help: "Live interactive map sessions per surface.",
	}, []string{"surface"}), "popmap_sessions")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		Renders:         renders,
		RenderDurations: durations,
		Interactions:    interactions,
		DatasetLoads:    loads,
		Sessions:        sessions,
	}, nil
}

// ObserveRender 描画1回を記録
func (c *Collector) ObserveRender(surface string, start time.Time, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Renders.WithLabelValues(surface, result).Inc()
	c.RenderDurations.WithLabelValues(surface).Observe(time.Since(start).Seconds())
}

func (c *Collector) Interaction(surface, kind string) {
	if c == nil {
		return
	}
	c.Interactions.WithLabelValues(surface, kind).Inc()
}

func (c *Collector) DatasetLoad(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.DatasetLoads.WithLabelValues(result).Inc()
}

func (c *Collector) SetSessions(surface string, n int) {
	if c == nil {
		return
	}
	c.Sessions.WithLabelValues(surface).Set(float64(n))
}

// Handler /metrics 用ハンドラー
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
