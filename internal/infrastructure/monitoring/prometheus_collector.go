package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Counters
	videosActiveTotal prometheus.Gauge
	uploadsTotal      prometheus.Counter
	deletesTotal      prometheus.Counter
	delegationsTotal  prometheus.Counter
	revocationsTotal  prometheus.Counter
	annotationsTotal  prometheus.Counter
	denialsTotal      *prometheus.CounterVec

	// Histograms
	requestDuration prometheus.Histogram
	lockWaitTime    prometheus.Histogram
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		videosActiveTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "clipcoach_videos_active_total",
			Help: "Number of active videos",
		}),

		uploadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clipcoach_video_uploads_total",
			Help: "Total number of videos uploaded",
		}),

		deletesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clipcoach_video_deletes_total",
			Help: "Total number of videos deleted",
		}),

		delegationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clipcoach_delegations_total",
			Help: "Total number of capability delegations",
		}),

		revocationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clipcoach_revocations_total",
			Help: "Total number of capability revocations",
		}),

		annotationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clipcoach_annotations_appended_total",
			Help: "Total number of annotations appended to videos",
		}),

		denialsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clipcoach_access_denials_total",
			Help: "Total number of denied operations by reason",
		}, []string{"reason"}),

		requestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clipcoach_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),

		lockWaitTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clipcoach_lock_wait_seconds",
			Help:    "Time spent waiting for per-video locks",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

func (p *PrometheusCollector) RecordUpload() {
	p.uploadsTotal.Inc()
	p.videosActiveTotal.Inc()
}

func (p *PrometheusCollector) RecordDelete() {
	p.deletesTotal.Inc()
	p.videosActiveTotal.Dec()
}

func (p *PrometheusCollector) RecordDelegation() {
	p.delegationsTotal.Inc()
}

func (p *PrometheusCollector) RecordRevocation() {
	p.revocationsTotal.Inc()
}

func (p *PrometheusCollector) RecordDenial(reason string) {
	p.denialsTotal.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) RecordAnnotations(count int) {
	p.annotationsTotal.Add(float64(count))
}

func (p *PrometheusCollector) RecordRequestDuration(d time.Duration) {
	p.requestDuration.Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordLockWait(d time.Duration) {
	p.lockWaitTime.Observe(d.Seconds())
}
