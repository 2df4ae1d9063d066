package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact that is already true. It is fanned out to zero or more subscribers
// and nothing the subscribers return reaches the caller.
type DomainEvent interface {
	AggregateID() string
	Metadata() EventMeta
}

// EventMeta is the standard metadata every domain event carries.
type EventMeta struct {
	EventID       string    `json:"event_id"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id"`
}

// Base is embedded by concrete domain events. Construct it with NewBase so that
// only the aggregate id has to be supplied; metadata is generated.
type Base struct {
	Aggregate string    `json:"aggregate_id"`
	Meta      EventMeta `json:"meta"`
}

// NewBase returns a Base with a fresh event id, a UTC timestamp and a fresh correlation id.
func NewBase(aggregateID string) Base {
	return Base{
		Aggregate: aggregateID,
		Meta: EventMeta{
			EventID:       uuid.NewString(),
			Timestamp:     time.Now().UTC(),
			CorrelationID: uuid.NewString(),
		},
	}
}

// NewBaseFromContext is NewBase, but reuses the correlation id carried by ctx when there is one.
func NewBaseFromContext(ctx context.Context, aggregateID string) Base {
	b := NewBase(aggregateID)
	if id, ok := CorrelationIDFrom(ctx); ok {
		b.Meta.CorrelationID = id
	}

	return b
}

// WithCorrelation returns a copy of b that carries the given correlation id.
func (b Base) WithCorrelation(id string) Base {
	b.Meta.CorrelationID = id
	return b
}

func (b Base) AggregateID() string { return b.Aggregate }

func (b Base) Metadata() EventMeta { return b.Meta }
