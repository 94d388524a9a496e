package metrics

import (
	"context"
	"testing"

	"github.com/lshigami/bandwise/internal/event"
	"github.com/lshigami/bandwise/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestListenerCountsSubmissions(t *testing.T) {
	l := NewListener()
	ctx := context.Background()

	before := testutil.ToFloat64(submissionsTotal.WithLabelValues("reading"))
	l.OnChange(ctx, event.Change{Kind: event.SubmissionCreated, Skill: model.SkillReading})
	if got := testutil.ToFloat64(submissionsTotal.WithLabelValues("reading")); got != before+1 {
		t.Errorf("Expected reading submissions to increase by 1, got %v -> %v", before, got)
	}

	dupBefore := testutil.ToFloat64(duplicateSubmissions)
	l.OnChange(ctx, event.Change{Kind: event.SubmissionRejected, Skill: model.SkillReading})
	if got := testutil.ToFloat64(duplicateSubmissions); got != dupBefore+1 {
		t.Errorf("Expected duplicate counter to increase by 1, got %v -> %v", dupBefore, got)
	}
}

func TestListenerCountsGradingPasses(t *testing.T) {
	l := NewListener()
	score := 6.5

	before := testutil.ToFloat64(gradingPasses.WithLabelValues("human"))
	l.OnChange(context.Background(), event.Change{Kind: event.SubmissionGraded, Skill: model.SkillWriting, Origin: "human", Score: &score})
	if got := testutil.ToFloat64(gradingPasses.WithLabelValues("human")); got != before+1 {
		t.Errorf("Expected human grading passes to increase by 1, got %v -> %v", before, got)
	}
}

func TestListenerIgnoresTestEvents(t *testing.T) {
	l := NewListener()
	before := testutil.ToFloat64(duplicateSubmissions)
	l.OnChange(context.Background(), event.Change{Kind: event.TestUpdated, TestID: 1})
	if got := testutil.ToFloat64(duplicateSubmissions); got != before {
		t.Errorf("Test events must not touch submission metrics")
	}
}
