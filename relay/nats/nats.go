package nats

import (
	"context"
	"fmt"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	berr "github.com/next-trace/scg-meal-bus/contract/errors"
	"github.com/next-trace/scg-meal-bus/relay"
)

// Client is the slice of a NATS connection the relay needs.
type Client interface {
	Publish(subject string, data []byte, headers map[string]string) error
}

// Publisher relays domain events to NATS subjects.
type Publisher struct {
	Client Client
}

var _ relay.Publisher = (*Publisher)(nil)

func New(c Client) *Publisher { return &Publisher{Client: c} }

func (p *Publisher) Publish(ctx context.Context, evt cbus.DomainEvent, opts relay.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.Client == nil {
		return fmt.Errorf("nats publish: no client: %w", berr.ErrPublishFailed)
	}

	msg, err := relay.Build(evt, opts)
	if err != nil {
		return err
	}

	// NATS has no partition key; keep it visible to consumers as a header.
	msg.Headers["key"] = msg.Key

	return relay.WrapErr("nats", p.Client.Publish(msg.Subject, msg.Body, msg.Headers))
}
