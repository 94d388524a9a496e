package event

import (
	"context"
	"sync"

	"github.com/lshigami/bandwise/internal/model"
)

type Kind string

const (
	TestCreated        Kind = "test.created"
	TestUpdated        Kind = "test.updated"
	TestDeleted        Kind = "test.deleted"
	SubmissionCreated  Kind = "submission.created"
	SubmissionGraded   Kind = "submission.graded"
	SubmissionRejected Kind = "submission.rejected"
)

// Change describes a write that read-side views may depend on. Fields that
// do not apply to the Kind are zero.
type Change struct {
	Kind         Kind
	TestID       uint
	Skill        model.Skill
	SubmissionID uint
	UserID       uint
	// Origin is "human" or "ai" for SubmissionGraded.
	Origin string
	Score  *float64
}

type Listener interface {
	OnChange(ctx context.Context, change Change)
}

type Publisher interface {
	Publish(ctx context.Context, change Change)
}

// Bus delivers every change synchronously to all subscribed listeners, in
// subscription order.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

func (b *Bus) Publish(ctx context.Context, change Change) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		l.OnChange(ctx, change)
	}
}
