// Package notification delivers email and SMS messages. Delivery happens
// after the unit of work commits and never fails the command that
// triggered it.
package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Channel is the delivery medium of a message
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Message is one outgoing notification
type Message struct {
	Channel Channel
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers messages on one channel
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender
type SenderFunc func(ctx context.Context, msg Message) error

// Send implements Sender
func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// LogSender writes messages to the log instead of a provider. Used in
// development and when no provider is configured.
type LogSender struct {
	channel Channel
	from    string
	logger  *zap.Logger
}

// NewLogSender creates a LogSender for channel with a default sender address
func NewLogSender(channel Channel, from string, logger *zap.Logger) *LogSender {
	return &LogSender{channel: channel, from: from, logger: logger.Named("notification")}
}

// Send implements Sender
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.From == "" {
		msg.From = s.from
	}
	if msg.Channel == "" {
		msg.Channel = s.channel
	}
	s.logger.Info("notification sent",
		zap.String("channel", string(msg.Channel)),
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_length", len(msg.Body)),
	)
	return nil
}

// Recorder keeps every message it is given
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent sends return err after recording the message
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Send implements Sender
func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.err
}

// Messages returns a copy of the recorded messages
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Dispatcher sends messages in the background. Failures are logged.
type Dispatcher struct {
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher; timeout bounds each delivery
func NewDispatcher(logger *zap.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{logger: logger.Named("notification"), timeout: timeout}
}

// Async delivers msgs through sender on a separate goroutine. The caller's
// cancellation does not abort delivery; its values (trace, logger) are kept.
func (d *Dispatcher) Async(ctx context.Context, sender Sender, msgs ...Message) {
	if sender == nil || len(msgs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		var g errgroup.Group
		for _, msg := range msgs {
			g.Go(func() error {
				if err := sender.Send(ctx, msg); err != nil {
					d.logger.Warn("notification delivery failed",
						zap.String("channel", string(msg.Channel)),
						zap.String("to", msg.To),
						zap.Error(err),
					)
					return err
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Wait blocks until every pending delivery finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
