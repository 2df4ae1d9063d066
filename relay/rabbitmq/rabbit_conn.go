package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	berr "github.com/next-trace/scg-meal-bus/contract/errors"
)

const maxBackoff = 30 * time.Second

type Config struct {
	URL         string
	ConnTimeout time.Duration
	Logger      *slog.Logger
}

// reconnectingChannel keeps one AMQP channel open, redialing with jittered backoff when the
// connection drops. Publish waits for a channel until ctx is done.
type reconnectingChannel struct {
	cfg    Config
	mu     sync.RWMutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	ready  chan struct{} // closed while a channel is available
	closed chan struct{}
	once   sync.Once
}

func newReconnectingChannel(cfg Config) *reconnectingChannel {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	rc := &reconnectingChannel{
		cfg:    cfg,
		ready:  make(chan struct{}),
		closed: make(chan struct{}),
	}
	go rc.run()

	return rc
}

func (rc *reconnectingChannel) Publish(ctx context.Context, m PubMsg) error {
	for {
		rc.mu.RLock()
		ch, ready := rc.ch, rc.ready
		rc.mu.RUnlock()

		if ch != nil {
			return ch.PublishWithContext(ctx, m.Exchange, m.RoutingKey, false, false, publishing(m))
		}

		select {
		case <-ready:
		case <-rc.closed:
			return fmt.Errorf("%w: rabbitmq publisher closed", berr.ErrPublishFailed)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (rc *reconnectingChannel) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(rc.cfg.URL, amqp.Config{
		Locale:     "en_US",
		Properties: amqp.Table{"product": "scg-meal-bus"},
		Dial:       amqp.DefaultDial(rc.cfg.ConnTimeout),
	})
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, nil, err
	}

	return conn, ch, nil
}

func (rc *reconnectingChannel) run() {
	backoff := time.Second
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // jitter only

	for {
		conn, ch, err := rc.dial()
		if err != nil {
			rc.cfg.Logger.Warn("rabbitmq dial failed", "err", err, "retry_in", backoff)

			sleep := min(backoff+time.Duration(rng.Int63n(int64(backoff/2))), maxBackoff)

			t := time.NewTimer(sleep)
			select {
			case <-rc.closed:
				t.Stop()
				return
			case <-t.C:
			}

			backoff = min(backoff*2, maxBackoff)

			continue
		}

		backoff = time.Second
		notify := conn.NotifyClose(make(chan *amqp.Error, 1))

		rc.mu.Lock()
		rc.conn, rc.ch = conn, ch
		close(rc.ready)
		rc.mu.Unlock()

		select {
		case <-rc.closed:
			return
		case <-notify:
		}

		rc.mu.Lock()
		rc.conn, rc.ch = nil, nil
		rc.ready = make(chan struct{})
		rc.mu.Unlock()

		_ = ch.Close()
		_ = conn.Close()
	}
}

func (rc *reconnectingChannel) close() {
	rc.once.Do(func() {
		close(rc.closed)

		rc.mu.Lock()
		defer rc.mu.Unlock()

		if rc.ch != nil {
			_ = rc.ch.Close()
			rc.ch = nil
		}

		if rc.conn != nil {
			_ = rc.conn.Close()
			rc.conn = nil
		}
	})
}

// Dial starts an auto-reconnecting AMQP publisher that declares Exchange on every connect.
// It returns immediately; Publish blocks until the first connection is up or ctx ends.
func Dial(cfg Config) (*Publisher, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url required", berr.ErrPublishFailed)
	}

	rc := newReconnectingChannel(cfg)

	return New(rc), rc.close, nil
}
