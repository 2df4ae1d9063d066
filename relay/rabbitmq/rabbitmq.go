package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	berr "github.com/next-trace/scg-meal-bus/contract/errors"
	"github.com/next-trace/scg-meal-bus/relay"
)

// Exchange is the topic exchange every event is published to.
const Exchange = "meal.events"

type PubMsg struct {
	Exchange   string
	RoutingKey string
	MessageID  string
	Body       []byte
	Headers    map[string]string
}

// Channel is the slice of an AMQP channel the relay needs.
type Channel interface {
	Publish(ctx context.Context, m PubMsg) error
}

// Publisher relays domain events over AMQP.
type Publisher struct {
	Channel Channel
}

var _ relay.Publisher = (*Publisher)(nil)

func New(ch Channel) *Publisher { return &Publisher{Channel: ch} }

func (p *Publisher) Publish(ctx context.Context, evt cbus.DomainEvent, opts relay.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.Channel == nil {
		return fmt.Errorf("rabbitmq publish: no channel: %w", berr.ErrPublishFailed)
	}

	msg, err := relay.Build(evt, opts)
	if err != nil {
		return err
	}

	return relay.WrapErr("rabbitmq", p.Channel.Publish(ctx, PubMsg{
		Exchange:   Exchange,
		RoutingKey: msg.Subject,
		MessageID:  msg.Headers[relay.HeaderEventID],
		Body:       msg.Body,
		Headers:    msg.Headers,
	}))
}

func publishing(m PubMsg) amqp.Publishing {
	var h amqp.Table
	if len(m.Headers) > 0 {
		h = amqp.Table{}
		for k, v := range m.Headers {
			h[k] = v
		}
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Headers:      h,
		ContentType:  "application/json",
		MessageId:    m.MessageID,
		Body:         m.Body,
	}
}

type amqpChannel struct{ ch *amqp.Channel }

func (c amqpChannel) Publish(ctx context.Context, m PubMsg) error {
	return c.ch.PublishWithContext(ctx, m.Exchange, m.RoutingKey, false, false, publishing(m))
}

// NewWithAMQPChannel publishes on an already open channel. The caller declares the exchange.
func NewWithAMQPChannel(ch *amqp.Channel) *Publisher {
	return New(amqpChannel{ch: ch})
}
