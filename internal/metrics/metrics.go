package metrics

import (
	"context"

	"github.com/lshigami/bandwise/internal/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bandwise_submissions_total",
			Help: "Total number of accepted submissions",
		},
		[]string{"skill"},
	)

	duplicateSubmissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bandwise_duplicate_submissions_total",
			Help: "Submissions rejected because the user already submitted the test",
		},
	)

	gradingPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bandwise_grading_passes_total",
			Help: "Completed grading passes",
		},
		[]string{"origin"}, // origin: auto/human/ai
	)

	aiGradingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bandwise_ai_grading_failures_total",
			Help: "AI writing grading attempts that returned an error",
		},
	)

	bandScores = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bandwise_band_score",
			Help:    "Distribution of graded band scores",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		},
		[]string{"skill"},
	)
)

// ObserveAIFailure is called by the AI grading path, which has no event of
// its own for a failed pass.
func ObserveAIFailure() {
	aiGradingFailures.Inc()
}

// Listener turns change events into Prometheus samples.
type Listener struct{}

func NewListener() *Listener {
	return &Listener{}
}

func (l *Listener) OnChange(_ context.Context, change event.Change) {
	switch change.Kind {
	case event.SubmissionCreated:
		submissionsTotal.WithLabelValues(string(change.Skill)).Inc()
	case event.SubmissionRejected:
		duplicateSubmissions.Inc()
	case event.SubmissionGraded:
		gradingPasses.WithLabelValues(change.Origin).Inc()
		if change.Score != nil {
			bandScores.WithLabelValues(string(change.Skill)).Observe(*change.Score)
		}
	}
}
