package event

import (
	"context"
	"fmt"
	"testing"
)

type recorder struct {
	name string
	log  *[]string
}

func (r recorder) OnChange(_ context.Context, change Change) {
	*r.log = append(*r.log, fmt.Sprintf("%s:%s:%d", r.name, change.Kind, change.TestID))
}

type listenerFunc func(ctx context.Context, change Change)

func (f listenerFunc) OnChange(ctx context.Context, change Change) { f(ctx, change) }

func TestPublishFansOutInSubscriptionOrder(t *testing.T) {
	var log []string
	bus := NewBus()
	bus.Subscribe(recorder{name: "cache", log: &log})
	bus.Subscribe(recorder{name: "metrics", log: &log})
	bus.Subscribe(recorder{name: "audit", log: &log})

	ctx := context.Background()
	bus.Publish(ctx, Change{Kind: TestUpdated, TestID: 4})
	bus.Publish(ctx, Change{Kind: TestDeleted, TestID: 5})

	want := []string{
		"cache:test.updated:4", "metrics:test.updated:4", "audit:test.updated:4",
		"cache:test.deleted:5", "metrics:test.deleted:5", "audit:test.deleted:5",
	}
	if len(log) != len(want) {
		t.Fatalf("Expected %d deliveries, got %v", len(want), log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("Delivery %d: expected %s, got %s", i, want[i], log[i])
		}
	}
}

func TestPublishWithoutListeners(t *testing.T) {
	NewBus().Publish(context.Background(), Change{Kind: SubmissionCreated, SubmissionID: 1})
}

func TestSubscribeDuringPublishWaitsForNextChange(t *testing.T) {
	var log []string
	bus := NewBus()
	late := recorder{name: "late", log: &log}
	bus.Subscribe(listenerFunc(func(ctx context.Context, change Change) {
		log = append(log, "first:"+string(change.Kind))
		if change.Kind == TestCreated {
			bus.Subscribe(late)
		}
	}))

	ctx := context.Background()
	bus.Publish(ctx, Change{Kind: TestCreated, TestID: 1})
	if len(log) != 1 {
		t.Fatalf("Listener added mid-publish must not see the current change, got %v", log)
	}

	bus.Publish(ctx, Change{Kind: TestUpdated, TestID: 1})
	want := []string{"first:test.created", "first:test.updated", "late:test.updated:1"}
	if len(log) != len(want) {
		t.Fatalf("Expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("Delivery %d: expected %s, got %s", i, want[i], log[i])
		}
	}
}
