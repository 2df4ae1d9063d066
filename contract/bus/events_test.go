package bus_test

import (
	"context"
	"testing"
	"time"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
)

type mealLogged struct {
	cbus.Base
	Calories int
}

func TestNewBaseGeneratesMetadata(t *testing.T) {
	before := time.Now().UTC()
	e := mealLogged{Base: cbus.NewBase("user-1"), Calories: 420}

	var _ cbus.DomainEvent = e

	if e.AggregateID() != "user-1" {
		t.Fatalf("aggregate id: %s", e.AggregateID())
	}

	m := e.Metadata()
	if m.EventID == "" || m.CorrelationID == "" {
		t.Fatalf("metadata not generated: %+v", m)
	}

	if m.Timestamp.Before(before) || m.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp: %v", m.Timestamp)
	}

	other := cbus.NewBase("user-1")
	if other.Meta.EventID == m.EventID {
		t.Fatalf("event ids must be unique")
	}
}

func TestCorrelationPropagation(t *testing.T) {
	ctx := cbus.WithCorrelationID(context.Background(), "req-42")

	b := cbus.NewBaseFromContext(ctx, "user-1")
	if b.Metadata().CorrelationID != "req-42" {
		t.Fatalf("correlation: %s", b.Metadata().CorrelationID)
	}

	if _, ok := cbus.CorrelationIDFrom(context.Background()); ok {
		t.Fatalf("empty context must not carry a correlation id")
	}

	if got := cbus.NewBase("x").WithCorrelation("c").Metadata().CorrelationID; got != "c" {
		t.Fatalf("WithCorrelation: %s", got)
	}
}
