package kafka

import (
	"context"
	"fmt"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	berr "github.com/next-trace/scg-meal-bus/contract/errors"
	"github.com/next-trace/scg-meal-bus/relay"
)

// Writer is the slice of a Kafka producer the relay needs.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Publisher relays domain events to Kafka topics, keyed by aggregate id unless overridden.
type Publisher struct {
	Writer Writer
}

var _ relay.Publisher = (*Publisher)(nil)

func New(w Writer) *Publisher { return &Publisher{Writer: w} }

func (p *Publisher) Publish(ctx context.Context, evt cbus.DomainEvent, opts relay.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.Writer == nil {
		return fmt.Errorf("kafka publish: no writer: %w", berr.ErrPublishFailed)
	}

	msg, err := relay.Build(evt, opts)
	if err != nil {
		return err
	}

	return relay.WrapErr("kafka", p.Writer.Write(ctx, msg.Subject, []byte(msg.Key), msg.Body, msg.Headers))
}
