package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	GenerateTime       prometheus.Histogram
	GenerateRequests   *prometheus.CounterVec
	GenerateErrors     *prometheus.CounterVec
	AlignQueryTime     prometheus.Histogram
	AlignErrors        *prometheus.CounterVec
	AlignmentCache     *prometheus.CounterVec
	UnresolvedPhonemes *prometheus.CounterVec
	TimelineFrames     prometheus.Histogram
}

var AppMetrics = &Metrics{
	GenerateTime: prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lipsync",
		Subsystem: "generate",
		Name:      "request_seconds",
	}),
	GenerateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lipsync",
		Subsystem: "generate",
		Name:      "request_total",
	}, []string{"language"}),
	GenerateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lipsync",
		Subsystem: "generate",
		Name:      "errors_total",
	}, []string{"err_code"}),
	AlignQueryTime: prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lipsync",
		Subsystem: "aligner",
		Name:      "request_seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
	}),
	AlignErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lipsync",
		Subsystem: "aligner",
		Name:      "errors_total",
	}, []string{"language"}),
	AlignmentCache: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lipsync",
		Subsystem: "aligner",
		Name:      "cache_total",
	}, []string{"result"}),
	UnresolvedPhonemes: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lipsync",
		Subsystem: "viseme",
		Name:      "unresolved_phonemes_total",
	}, []string{"language"}),
	TimelineFrames: prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lipsync",
		Subsystem: "viseme",
		Name:      "timeline_frames",
		Buckets:   prometheus.ExponentialBuckets(8, 2, 10),
	}),
}

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AppMetrics.GenerateTime)
	reg.MustRegister(AppMetrics.GenerateRequests)
	reg.MustRegister(AppMetrics.GenerateErrors)
	reg.MustRegister(AppMetrics.AlignQueryTime)
	reg.MustRegister(AppMetrics.AlignErrors)
	reg.MustRegister(AppMetrics.AlignmentCache)
	reg.MustRegister(AppMetrics.UnresolvedPhonemes)
	reg.MustRegister(AppMetrics.TimelineFrames)
}
