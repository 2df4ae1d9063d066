package nats_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	cbus "github.com/next-trace/scg-meal-bus/contract/bus"
	berr "github.com/next-trace/scg-meal-bus/contract/errors"
	"github.com/next-trace/scg-meal-bus/relay"
	"github.com/next-trace/scg-meal-bus/relay/nats"
)

type call struct {
	subject string
	data    []byte
	headers map[string]string
}

type fakeClient struct {
	calls []call
	err   error
}

func (f *fakeClient) Publish(subject string, data []byte, headers map[string]string) error {
	f.calls = append(f.calls, call{subject, data, headers})

	return f.err
}

type mealDeleted struct {
	cbus.Base
	UserID string `json:"user_id"`
}

func TestNATS_Publish(t *testing.T) {
	fc := &fakeClient{}
	p := nats.New(fc)

	evt := mealDeleted{Base: cbus.NewBase("m9"), UserID: "u1"}
	if err := p.Publish(t.Context(), evt, relay.PublishOptions{Headers: map[string]string{"h1": "v1"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(fc.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fc.calls))
	}

	c := fc.calls[0]
	if c.subject != "events.mealDeleted" {
		t.Fatalf("subject mismatch: %s", c.subject)
	}

	if c.headers["h1"] != "v1" || c.headers["key"] != "m9" || c.headers[relay.HeaderEventType] != "mealDeleted" {
		t.Fatalf("headers missing or wrong: %+v", c.headers)
	}

	var body map[string]any
	if err := json.Unmarshal(c.data, &body); err != nil {
		t.Fatalf("body: %v", err)
	}

	if body["user_id"] != "u1" || body["aggregate_id"] != "m9" {
		t.Fatalf("body: %+v", body)
	}
}

func TestNATS_SubjectOverride(t *testing.T) {
	fc := &fakeClient{}

	if err := nats.New(fc).Publish(t.Context(), mealDeleted{Base: cbus.NewBase("m")}, relay.PublishOptions{Subject: "meals.deleted"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if fc.calls[0].subject != "meals.deleted" {
		t.Fatalf("subject=%v", fc.calls[0].subject)
	}
}

func TestNATS_NilClientError(t *testing.T) {
	err := nats.New(nil).Publish(t.Context(), mealDeleted{Base: cbus.NewBase("m")}, relay.PublishOptions{})
	if !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want ErrPublishFailed, got %v", err)
	}
}

func TestNATS_ErrorWrapping_And_ContextCancel(t *testing.T) {
	p := nats.New(&fakeClient{err: errors.New("boom")})

	if err := p.Publish(t.Context(), mealDeleted{Base: cbus.NewBase("m")}, relay.PublishOptions{}); !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	p2 := nats.New(&fakeClient{err: context.Canceled})

	err := p2.Publish(t.Context(), mealDeleted{Base: cbus.NewBase("m")}, relay.PublishOptions{})
	if !errors.Is(err, context.Canceled) || errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want bare context.Canceled, got %v", err)
	}
}

func TestDial_EmptyURL(t *testing.T) {
	_, _, err := nats.Dial(nats.Config{})
	if !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want ErrPublishFailed, got %v", err)
	}
}
