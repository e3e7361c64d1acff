package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxAttempts = 5
	DefaultBackoff     = 2 * time.Second
)

// ErrMalformed marks a queued body that can never be delivered.
var ErrMalformed = errors.New("malformed mail")

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p) || errors.Is(err, ErrMalformed)
}

// Worker drains queued messages and delivers them with a Sender. A failed
// send is retried in place up to MaxAttempts times, waiting Backoff times the
// attempt number in between.
type Worker struct {
	MaxAttempts int
	Backoff     time.Duration

	sender Sender
	log    zerolog.Logger
}

func NewWorker(sender Sender, log zerolog.Logger) *Worker {
	return &Worker{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff,
		sender:      sender,
		log:         log.With().Str("component", "mailer").Logger(),
	}
}

func decode(body []byte) (Message, error) {
	var msg Message

	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if msg.To == "" {
		return Message{}, fmt.Errorf("%w: missing recipient", ErrMalformed)
	}

	return msg, nil
}

// Handle decodes and delivers one queued message.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	msg, err := decode(body)

	if err != nil {
		return err
	}

	return w.sender.Send(ctx, msg)
}

// Run settles every delivery: ack on success, drop on permanent failure or
// once attempts run out, requeue only when ctx ends mid-retry. It returns
// when ctx is done or the channel closes.
func (w *Worker) Run(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}

			w.process(ctx, d)
		}
	}
}

func (w *Worker) process(ctx context.Context, d amqp.Delivery) {
	log := w.log.With().Str("message_id", d.MessageId).Str("key", d.RoutingKey).Logger()

	limit := w.MaxAttempts
	if limit <= 0 {
		limit = 1
	}

	// Quorum queues count earlier deliveries, e.g. before a worker crash.
	prior := deliveryCount(d.Headers)
	if prior >= limit {
		log.Error().Int("attempts", prior).Msg("attempts exhausted, dropping mail")
		_ = d.Nack(false, false)
		return
	}

	for attempt := prior + 1; ; attempt++ {
		err := w.Handle(ctx, d.Body)

		switch {
		case err == nil:
			_ = d.Ack(false)
			return
		case IsPermanent(err):
			log.Error().Err(err).Int("attempt", attempt).Msg("undeliverable mail, dropping")
			_ = d.Nack(false, false)
			return
		case attempt >= limit:
			log.Error().Err(err).Int("attempts", attempt).Msg("attempts exhausted, dropping mail")
			_ = d.Nack(false, false)
			return
		}

		log.Warn().Err(err).Int("attempt", attempt).Msg("deliver failed, retrying")

		if !wait(ctx, w.Backoff*time.Duration(attempt)) {
			_ = d.Nack(false, true)
			return
		}
	}
}

func deliveryCount(h amqp.Table) int {
	switch v := h["x-delivery-count"].(type) {
	case int64:
		return int(v)
	case int32:
		return int(v)
	case int:
		return v
	}

	return 0
}

// wait sleeps for d and reports false if ctx ended first.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
