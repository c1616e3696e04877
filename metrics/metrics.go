// Package metrics exports dictation counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dictator/dictation"
	"dictator/presence"
)

type Metrics struct {
	SessionsStarted  prometheus.Counter
	SessionsBusy     prometheus.Counter
	SessionsFinished *prometheus.CounterVec
	RecordedSeconds  prometheus.Histogram
	SpeechSeconds    prometheus.Histogram
	TranscribeTime   prometheus.Histogram
	CharactersTyped  prometheus.Counter
	State            prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers every metric on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "dictator_sessions_started_total",
			Help: "Recording sessions started",
		}),
		SessionsBusy: f.NewCounter(prometheus.CounterOpts{
			Name: "dictator_sessions_busy_total",
			Help: "Hotkey presses ignored because a transcription was running",
		}),
		SessionsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dictator_sessions_finished_total",
			Help: "Finished sessions by outcome",
		}, []string{"outcome"}),
		RecordedSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dictator_recorded_seconds",
			Help:    "Length of each recording",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s to ~2 minutes
		}),
		SpeechSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dictator_speech_seconds",
			Help:    "Speech left after voice activity filtering",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		TranscribeTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dictator_transcription_duration_seconds",
			Help:    "Time spent in the speech-to-text engine",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
		CharactersTyped: f.NewCounter(prometheus.CounterOpts{
			Name: "dictator_characters_typed_total",
			Help: "Characters sent to the focused window",
		}),
		State: f.NewGauge(prometheus.GaugeOpts{
			Name: "dictator_state",
			Help: "Indicator state: 0 idle, 1 listening, 2 transcribing",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) SessionStarted(string) { m.SessionsStarted.Inc() }

func (m *Metrics) SessionBusy() { m.SessionsBusy.Inc() }

func (m *Metrics) SessionFinished(s dictation.Summary) {
	outcome := "typed"
	switch {
	case s.Err != nil:
		outcome = "error"
	case !s.Typed:
		outcome = "empty"
	}
	m.SessionsFinished.WithLabelValues(outcome).Inc()
	m.RecordedSeconds.Observe(s.Recorded.Seconds())
	if s.Frames > 0 && s.Err == nil {
		m.SpeechSeconds.Observe(s.Result.SpeechDuration.Seconds())
		m.TranscribeTime.Observe(s.Result.Elapsed.Seconds())
	}
	if s.Typed {
		m.CharactersTyped.Add(float64(len([]rune(s.Result.Text))))
	}
}

func (m *Metrics) SetState(s presence.State) error {
	m.State.Set(float64(s))
	return nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
