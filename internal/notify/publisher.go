package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Publisher fans notifications out to one or more sinks, either synchronously
// or through a buffered channel drained by a background goroutine. Sink
// failures are logged and swallowed: notification delivery is best-effort by
// contract.
type Publisher struct {
	sinks  []Notifier
	logger *slog.Logger

	inbox chan Notification
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Option configures a Publisher.
type Option func(p *Publisher)

// WithAsyncBuffer switches the publisher to asynchronous delivery with the
// given channel capacity. When the buffer is full, Send falls back to
// synchronous delivery rather than dropping the notification.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Notification, size)
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher constructs a Publisher over the given sinks.
func NewPublisher(sinks []Notifier, opts ...Option) *Publisher {
	p := &Publisher{sinks: sinks, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Send delivers the notification to every sink. It never returns a sink
// error; the Notifier signature keeps the error return so fakes can assert
// call ordering in tests.
func (p *Publisher) Send(ctx context.Context, n Notification) error {
	if p.inbox != nil {
		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if !closed {
			select {
			case p.inbox <- n:
				return nil
			default:
				// Buffer full: deliver inline instead of dropping.
			}
		}
	}
	p.deliver(ctx, n)
	return nil
}

// Close stops the background goroutine after draining buffered notifications.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if p.inbox != nil {
		close(p.inbox)
		p.wg.Wait()
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for n := range p.inbox {
		p.deliver(context.Background(), n)
	}
}

func (p *Publisher) deliver(ctx context.Context, n Notification) {
	for _, sink := range p.sinks {
		if err := sink.Send(ctx, n); err != nil {
			p.logger.WarnContext(ctx, "notification delivery failed",
				"template", n.Template,
				"user_id", n.UserID,
				"error", err,
			)
		}
	}
}
