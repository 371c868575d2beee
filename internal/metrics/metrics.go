package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline holds the action pipeline's collectors. A nil *Pipeline is valid
// and records nothing.
type Pipeline struct {
	runs          *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	timeFallbacks prometheus.Counter
}

func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Action pipeline runs by result.",
		}, []string{"result"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_stage_failures_total",
			Help: "Terminal pipeline failures by stage and error kind.",
		}, []string{"stage", "kind"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Wall time spent in each pipeline stage.",
			Buckets: []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		timeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_time_fallbacks_total",
			Help: "Plans whose start time could not be parsed and fell back to now+1m.",
		}),
	}
	reg.MustRegister(p.runs, p.stageFailures, p.stageDuration, p.timeFallbacks)
	return p
}

func (p *Pipeline) ObserveStage(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *Pipeline) Failed(stage, kind string) {
	if p == nil {
		return
	}
	p.stageFailures.WithLabelValues(stage, kind).Inc()
	p.runs.WithLabelValues("error").Inc()
}

func (p *Pipeline) Succeeded() {
	if p == nil {
		return
	}
	p.runs.WithLabelValues("ok").Inc()
}

func (p *Pipeline) TimeFallback() {
	if p == nil {
		return
	}
	p.timeFallbacks.Inc()
}

// Handler serves the given gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
