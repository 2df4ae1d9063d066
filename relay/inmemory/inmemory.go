package inmemory

import (
	"context"
	"sync"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	"github.com/next-trace/scg-meal-bus/relay"
)

// Publisher is a thread-safe in-memory relay.Publisher.
// It records the built messages for tests and the demo command.
type Publisher struct {
	mu       sync.Mutex
	messages []relay.Message
}

var _ relay.Publisher = (*Publisher)(nil)

func New() *Publisher { return &Publisher{} }

func (p *Publisher) Publish(ctx context.Context, evt cbus.DomainEvent, opts relay.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := relay.Build(evt, opts)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()

	return nil
}

// Messages returns a snapshot of everything published so far.
func (p *Publisher) Messages() []relay.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]relay.Message, len(p.messages))
	copy(out, p.messages)

	return out
}
