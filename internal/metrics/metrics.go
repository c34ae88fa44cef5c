// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TutorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "tutor",
		Name:      "requests_total",
		Help:      "Tutor chat exchanges by channel and outcome.",
	}, []string{"channel", "outcome"})

	TutorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coach",
		Subsystem: "tutor",
		Name:      "request_duration_seconds",
		Help:      "Time spent waiting on the language model.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"outcome"})

	PracticeAnswers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "practice",
		Name:      "answers_total",
		Help:      "Submitted practice answers by correctness.",
	}, []string{"correct"})

	PracticeCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "practice",
		Name:      "sessions_completed_total",
		Help:      "Completed practice sessions by verdict.",
	}, []string{"verdict"})

	SpeechSynthesis = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "speech",
		Name:      "synthesis_total",
		Help:      "Speech synthesis attempts by result (cached, synthesized, failed, canceled).",
	}, []string{"result"})

	OpenCaptures = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "coach",
		Subsystem: "speech",
		Name:      "open_captures",
		Help:      "Voice captures currently holding a recording handle.",
	})
)

// ObserveSockets exposes count as the number of learners holding a live
// tutor socket.
func ObserveSockets(reg prometheus.Registerer, count func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "coach",
		Subsystem: "ws",
		Name:      "connected_learners",
		Help:      "Learners with an open tutor WebSocket.",
	}, func() float64 { return float64(count()) }))
}
