package vistrack

import (
	"github.com/prometheus/client_golang/prometheus"
)

// frame results recorded in vistrack_frames_total
const (
	frameOK    = "ok"
	frameEmpty = "empty"
	frameError = "error"
)

// Metrics are the Prometheus collectors updated by Pipelines.  A single
// Metrics may be shared by every Pipeline in the process
type Metrics struct {
	frames        *prometheus.CounterVec
	candidates    prometheus.Counter
	detections    prometheus.Counter
	dropped       prometheus.Counter
	tracksCreated prometheus.Counter
	tracksEvicted prometheus.Counter
	tracksActive  prometheus.Gauge
	frameDuration prometheus.Histogram
}

// NewMetrics creates the pipeline collectors and registers them with reg.
// A nil reg leaves them unregistered
func NewMetrics(reg prometheus.Registerer) *Metrics {

	m := &Metrics{
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vistrack_frames_total",
			Help: "Total number of frames processed by result",
		}, []string{"result"}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vistrack_candidates_total",
			Help: "Total number of candidates decoded before NMS",
		}),
		detections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vistrack_detections_total",
			Help: "Total number of stabilized detections returned",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vistrack_dropped_candidates_total",
			Help: "Total number of candidates dropped for an unknown class index",
		}),
		tracksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vistrack_tracks_created_total",
			Help: "Total number of tracks created",
		}),
		tracksEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vistrack_tracks_evicted_total",
			Help: "Total number of tracks evicted after missing too many frames",
		}),
		tracksActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vistrack_tracks_active",
			Help: "Number of tracks currently held across all pipelines",
		}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vistrack_frame_duration_seconds",
			Help:    "Time taken to post process and track a frame",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
	}

	// pre create the result series so they export as zero
	for _, r := range []string{frameOK, frameEmpty, frameError} {
		m.frames.WithLabelValues(r)
	}

	if reg != nil {
		reg.MustRegister(m.frames, m.candidates, m.detections, m.dropped,
			m.tracksCreated, m.tracksEvicted, m.tracksActive, m.frameDuration)
	}

	return m
}
