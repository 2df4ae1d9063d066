// Package relay forwards domain events to an external broker after the in-process bus has
// delivered them. Delivery is best effort: a failed forward is logged by the bus and dropped.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	berr "github.com/next-trace/scg-meal-bus/contract/errors"
)

const subjectPrefix = "events."

// Header names carried on every relayed message.
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderAggregateID   = "aggregate-id"
	HeaderCorrelationID = "correlation-id"
	HeaderTimestamp     = "timestamp"
)

// PublishOptions overrides the defaults derived from the event.
type PublishOptions struct {
	// Subject replaces "events.<TypeName>".
	Subject string
	// Key is the partition or routing key. Defaults to the aggregate id.
	Key     string
	Headers map[string]string
}

// Publisher sends one domain event to a broker.
type Publisher interface {
	Publish(ctx context.Context, evt cbus.DomainEvent, opts PublishOptions) error
}

// Message is the broker-neutral form of a relayed event.
type Message struct {
	Subject string
	Key     string
	Body    []byte
	Headers map[string]string
}

// Build encodes evt into a Message. Caller headers never override the metadata headers.
func Build(evt cbus.DomainEvent, opts PublishOptions) (Message, error) {
	if evt == nil {
		return Message{}, fmt.Errorf("relay: %w", berr.ErrNilEvent)
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return Message{}, fmt.Errorf("relay %s serialize: %w", TypeName(evt), errors.Join(berr.ErrSerializationFailed, err))
	}

	msg := Message{
		Subject: opts.Subject,
		Key:     opts.Key,
		Body:    body,
		Headers: make(map[string]string, len(opts.Headers)+5),
	}

	if msg.Subject == "" {
		msg.Subject = Subject(evt)
	}

	if msg.Key == "" {
		msg.Key = evt.AggregateID()
	}

	for k, v := range opts.Headers {
		msg.Headers[k] = v
	}

	meta := evt.Metadata()
	msg.Headers[HeaderEventID] = meta.EventID
	msg.Headers[HeaderEventType] = TypeName(evt)
	msg.Headers[HeaderAggregateID] = evt.AggregateID()
	msg.Headers[HeaderCorrelationID] = meta.CorrelationID
	msg.Headers[HeaderTimestamp] = meta.Timestamp.UTC().Format(time.RFC3339Nano)

	return msg, nil
}

// Subject is the default subject for evt: "events.<TypeName>".
func Subject(evt cbus.DomainEvent) string { return subjectPrefix + TypeName(evt) }

// TypeName is the name of v's concrete type with pointers removed.
func TypeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	name := t.Name()
	if name == "" {
		name = t.String()
	}

	return name
}

// WrapErr tags a broker failure with ErrPublishFailed. Context errors are returned as-is.
func WrapErr(broker string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%s publish: %w", broker, errors.Join(berr.ErrPublishFailed, err))
}

// Subscriber turns pub into a bus subscriber for events of type E.
func Subscriber[E cbus.DomainEvent](pub Publisher, opts PublishOptions) cbus.SubscriberFunc[E] {
	return func(ctx context.Context, e E) error {
		return pub.Publish(ctx, e, opts)
	}
}
