package inmemory_test

import (
	"context"
	"sync"
	"testing"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	"github.com/next-trace/scg-meal-bus/relay"
	"github.com/next-trace/scg-meal-bus/relay/inmemory"
)

type dom struct {
	cbus.Base
	Name string
}

func TestInmemory_PublishRecords(t *testing.T) {
	p := inmemory.New()

	if err := p.Publish(t.Context(), dom{Base: cbus.NewBase("a1"), Name: "n"}, relay.PublishOptions{}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msgs := p.Messages()
	if len(msgs) != 1 {
		t.Fatalf("want 1 message, got %d", len(msgs))
	}

	if msgs[0].Subject != "events.dom" || msgs[0].Key != "a1" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
}

func TestInmemory_CanceledContext(t *testing.T) {
	p := inmemory.New()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if err := p.Publish(ctx, dom{Base: cbus.NewBase("a1")}, relay.PublishOptions{}); err == nil {
		t.Fatalf("expected context error")
	}

	if n := len(p.Messages()); n != 0 {
		t.Fatalf("nothing should be recorded, got %d", n)
	}
}

func TestInmemory_ConcurrentSafety(t *testing.T) {
	p := inmemory.New()

	const n = 50

	var wg sync.WaitGroup
	wg.Add(n)

	for range n {
		go func() {
			defer wg.Done()

			_ = p.Publish(t.Context(), dom{Base: cbus.NewBase("a")}, relay.PublishOptions{})
		}()
	}

	wg.Wait()

	if got := len(p.Messages()); got != n {
		t.Fatalf("want %d messages, got %d", n, got)
	}
}
