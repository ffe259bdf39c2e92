// Package loader tracks the Idle → Loading → Success | Failed cycle of one
// content section and discards responses that arrive after a newer request.
package loader

import (
	"context"
	"sync"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/locale"
)

// Phase is the lifecycle step of a section.
type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of a loader.
type State[T any] struct {
	Phase  Phase
	Locale string
	Data   T
	// Empty marks a successful load with nothing to show.
	Empty bool
	Err   error
}

// Failure classifies Err for rendering; nil unless Phase is Failed.
func (s State[T]) Failure() *cms.FetchFailure {
	if s.Phase != Failed {
		return nil
	}
	return cms.AsFailure(s.Err)
}

// FetchFunc produces the data for one locale.
type FetchFunc[T any] func(ctx context.Context, locale string) (T, error)

// Loader runs fetches for one section. A Load supersedes any in-flight one:
// the older request is cancelled and its result never becomes visible.
type Loader[T any] struct {
	fetch   FetchFunc[T]
	isEmpty func(T) bool

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  State[T]
	closed bool
	subs   []func(State[T])
	wg     sync.WaitGroup
}

// Option configures a Loader.
type Option[T any] func(*Loader[T])

// WithEmpty sets the predicate that marks a successful result as empty.
func WithEmpty[T any](fn func(T) bool) Option[T] {
	return func(l *Loader[T]) { l.isEmpty = fn }
}

// New returns an idle loader.
func New[T any](fetch FetchFunc[T], opts ...Option[T]) *Loader[T] {
	l := &Loader[T]{fetch: fetch}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewList is New for slice results, empty when the slice has no elements.
func NewList[E any](fetch FetchFunc[[]E]) *Loader[[]E] {
	return New(fetch, WithEmpty(func(v []E) bool { return len(v) == 0 }))
}

// State returns the current snapshot.
func (l *Loader[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// OnChange registers fn to observe every visible state transition.
func (l *Loader[T]) OnChange(fn func(State[T])) {
	l.mu.Lock()
	l.subs = append(l.subs, fn)
	l.mu.Unlock()
}

// Load enters Loading for loc and runs the fetch. The boolean is false when
// the result was discarded because a newer Load or Close happened meanwhile;
// the returned state is then the current one.
func (l *Loader[T]) Load(ctx context.Context, loc string) (State[T], bool) {
	run, ok := l.begin(ctx, loc)
	if !ok {
		return l.State(), false
	}
	return run()
}

// begin supersedes any in-flight fetch and enters Loading for loc. The
// returned run performs the fetch; only the latest begin may commit.
func (l *Loader[T]) begin(ctx context.Context, loc string) (run func() (State[T], bool), ok bool) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, false
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	fctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.state = State[T]{Phase: Loading, Locale: loc}
	loading := l.state
	subs := l.subscribers()
	l.mu.Unlock()
	notify(subs, loading)

	return func() (State[T], bool) {
		defer cancel()
		data, err := l.fetch(fctx, loc)
		return l.commit(gen, loc, data, err)
	}, true
}

func (l *Loader[T]) commit(gen uint64, loc string, data T, err error) (State[T], bool) {
	l.mu.Lock()
	if l.closed || gen != l.gen {
		st := l.state
		l.mu.Unlock()
		return st, false
	}
	l.cancel = nil
	if err != nil {
		l.state = State[T]{Phase: Failed, Locale: loc, Err: err}
	} else {
		l.state = State[T]{Phase: Success, Locale: loc, Data: data}
		if l.isEmpty != nil {
			l.state.Empty = l.isEmpty(data)
		}
	}
	st := l.state
	subs := l.subscribers()
	l.mu.Unlock()
	notify(subs, st)
	return st, true
}

// Retry reloads with the locale of the last request. An idle loader has
// nothing to retry and reports false.
func (l *Loader[T]) Retry(ctx context.Context) (State[T], bool) {
	l.mu.Lock()
	st := l.state
	l.mu.Unlock()
	if st.Phase == Idle {
		return st, false
	}
	return l.Load(ctx, st.Locale)
}

// Watch reloads whenever pref changes locale. Each notification supersedes
// the previous reload before it returns, so the last locale set always wins.
// The returned stop function unsubscribes and waits for reloads it started.
// It must not be called from a Preference subscriber.
func (l *Loader[T]) Watch(ctx context.Context, pref *locale.Preference) (stop func()) {
	cancelSub := pref.Subscribe(func(code string) {
		run, ok := l.begin(ctx, code)
		if !ok {
			return
		}
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			run()
		}()
	})
	return func() {
		cancelSub()
		l.wg.Wait()
	}
}

// Close cancels any in-flight fetch; later results and Loads are ignored.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()
}

func (l *Loader[T]) subscribers() []func(State[T]) {
	if len(l.subs) == 0 {
		return nil
	}
	out := make([]func(State[T]), len(l.subs))
	copy(out, l.subs)
	return out
}

func notify[T any](subs []func(State[T]), st State[T]) {
	for _, fn := range subs {
		fn(st)
	}
}
