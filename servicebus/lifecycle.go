package servicebus

import (
	"context"
	"fmt"
)

// Stage is a step in the life of one dispatched event.
type Stage int

const (
	StageCreated Stage = iota + 1
	StageDispatched
	StageHandlerExecuting
	StageCompleted
	StageFailed
	StagePublishing
	StagePublishDone
)

func (s Stage) String() string {
	switch s {
	case StageCreated:
		return "created"
	case StageDispatched:
		return "dispatched"
	case StageHandlerExecuting:
		return "handler_executing"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	case StagePublishing:
		return "publishing"
	case StagePublishDone:
		return "publish_done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Observer is told about every lifecycle transition of a Send call.
// It runs inline on the caller's goroutine and must be cheap.
type Observer interface {
	Transition(ctx context.Context, event any, stage Stage)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event any, stage Stage)

func (f ObserverFunc) Transition(ctx context.Context, event any, stage Stage) { f(ctx, event, stage) }

func (b *Bus) transition(ctx context.Context, event any, stage Stage) {
	if b.observer != nil {
		b.observer.Transition(ctx, event, stage)
	}
}
