// Package live turns a one-shot query plus a change feed into a standing
// subscription that re-delivers the full current result set on every change.
package live

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ChangeStream is the cursor shape of a backing store change feed.
// *mongo.ChangeStream satisfies it.
type ChangeStream interface {
	Next(ctx context.Context) bool
	Err() error
	Close(ctx context.Context) error
}

// Source is a query that can be fetched once and watched for changes.
type Source[T any] interface {
	Fetch(ctx context.Context) ([]T, error)
	Changes(ctx context.Context) (ChangeStream, error)
}

// SourceFuncs adapts two functions into a Source.
type SourceFuncs[T any] struct {
	FetchFunc   func(ctx context.Context) ([]T, error)
	ChangesFunc func(ctx context.Context) (ChangeStream, error)
}

func (s SourceFuncs[T]) Fetch(ctx context.Context) ([]T, error) { return s.FetchFunc(ctx) }

func (s SourceFuncs[T]) Changes(ctx context.Context) (ChangeStream, error) {
	return s.ChangesFunc(ctx)
}

// Snapshot is one delivery of the full result set. Stale is set when the
// feed was interrupted and Items is the last known result awaiting refresh.
type Snapshot[T any] struct {
	Items []T       `json:"items"`
	Stale bool      `json:"stale"`
	At    time.Time `json:"at"`
}

// Hooks lets callers observe the subscription lifecycle, e.g. for metrics.
type Hooks struct {
	OnOpen      func()
	OnClose     func()
	OnReconnect func(err error)
}

type Options struct {
	Name       string
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Logger     *slog.Logger
	Hooks      Hooks
}

func (o Options) withDefaults() Options {
	if o.MinBackoff <= 0 {
		o.MinBackoff = 500 * time.Millisecond
	}
	if o.MaxBackoff < o.MinBackoff {
		o.MaxBackoff = 30 * time.Second
		if o.MaxBackoff < o.MinBackoff {
			o.MaxBackoff = o.MinBackoff
		}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Subscription yields successive snapshots until Close is called or the
// parent context ends.
type Subscription[T any] struct {
	src     Source[T]
	opts    Options
	updates chan Snapshot[T]
	cancel  context.CancelFunc
	done    chan struct{}

	mu     sync.Mutex
	last   Snapshot[T]
	hasAny bool
}

// Subscribe starts the subscription in its own goroutine.
func Subscribe[T any](ctx context.Context, src Source[T], opts Options) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		src:     src,
		opts:    opts.withDefaults(),
		updates: make(chan Snapshot[T], 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	if s.opts.Hooks.OnOpen != nil {
		s.opts.Hooks.OnOpen()
	}
	go s.run(ctx)
	return s
}

// Updates delivers snapshots, latest wins: a snapshot not yet received is
// replaced by a newer one. The channel is closed when the subscription ends.
func (s *Subscription[T]) Updates() <-chan Snapshot[T] {
	return s.updates
}

// Latest returns the most recent snapshot and whether one has been produced.
func (s *Subscription[T]) Latest() (Snapshot[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasAny
}

// Close stops the subscription and waits for its goroutine to exit.
func (s *Subscription[T]) Close() {
	s.cancel()
	<-s.done
}

func (s *Subscription[T]) run(ctx context.Context) {
	defer func() {
		close(s.updates)
		if s.opts.Hooks.OnClose != nil {
			s.opts.Hooks.OnClose()
		}
		close(s.done)
	}()

	backoff := s.opts.MinBackoff
	for {
		err := s.follow(ctx, &backoff)
		if ctx.Err() != nil {
			return
		}

		s.opts.Logger.Warn("live subscription interrupted",
			"subscription", s.opts.Name,
			"error", err,
			"retry_in", backoff,
		)
		if s.opts.Hooks.OnReconnect != nil {
			s.opts.Hooks.OnReconnect(err)
		}
		s.markStale()

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff *= 2
		if backoff > s.opts.MaxBackoff {
			backoff = s.opts.MaxBackoff
		}
	}
}

// follow opens the feed before the initial fetch so no change between the
// two is lost, then refetches on every change event. When the feed cannot
// open before anything was delivered, one fetched snapshot goes out marked
// stale so readers are not left blank while it retries.
func (s *Subscription[T]) follow(ctx context.Context, backoff *time.Duration) error {
	stream, err := s.src.Changes(ctx)
	if err != nil {
		if ctx.Err() == nil && !s.delivered() {
			if items, fetchErr := s.src.Fetch(ctx); fetchErr == nil {
				if items == nil {
					items = []T{}
				}
				s.publish(Snapshot[T]{Items: items, Stale: true, At: time.Now()})
			}
		}
		return err
	}
	defer stream.Close(context.Background())

	if err := s.refresh(ctx); err != nil {
		return err
	}
	*backoff = s.opts.MinBackoff

	for stream.Next(ctx) {
		if err := s.refresh(ctx); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Subscription[T]) refresh(ctx context.Context) error {
	items, err := s.src.Fetch(ctx)
	if err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	s.publish(Snapshot[T]{Items: items, At: time.Now()})
	return nil
}

func (s *Subscription[T]) delivered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasAny
}

func (s *Subscription[T]) markStale() {
	s.mu.Lock()
	if !s.hasAny || s.last.Stale {
		s.mu.Unlock()
		return
	}
	snap := s.last
	s.mu.Unlock()

	snap.Stale = true
	s.publish(snap)
}

// publish is only called from the run goroutine, so after draining the
// buffer the send cannot block.
func (s *Subscription[T]) publish(snap Snapshot[T]) {
	s.mu.Lock()
	s.last = snap
	s.hasAny = true
	s.mu.Unlock()

	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}
