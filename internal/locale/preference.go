package locale

import (
	"sync"
)

// Store persists the explicit language choice between visits.
type Store interface {
	Load() (string, bool)
	Save(code string) error
}

// MemoryStore keeps the choice in process. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	value string
	set   bool
}

func (s *MemoryStore) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}

func (s *MemoryStore) Save(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = code
	s.set = true
	return nil
}

// Preference is the current locale of one visit. Changing it persists the
// value and notifies subscribers so dependent content reloads.
type Preference struct {
	resolver *Resolver
	store    Store

	// notifyMu serialises Set so subscribers see changes in order.
	notifyMu sync.Mutex

	mu      sync.Mutex
	current string
	nextID  int
	subs    []subscriber
}

type subscriber struct {
	id int
	fn func(string)
}

// NewPreference initialises the preference from the store and the given hints.
// A nil store disables persistence.
func NewPreference(r *Resolver, store Store, detected, acceptLanguage string) *Preference {
	persisted := ""
	if store != nil {
		if v, ok := store.Load(); ok {
			persisted = v
		}
	}
	return &Preference{
		resolver: r,
		store:    store,
		current: r.Resolve(Sources{
			Persisted:      persisted,
			Detected:       detected,
			AcceptLanguage: acceptLanguage,
		}),
	}
}

// Current returns the effective locale code.
func (p *Preference) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Set changes the locale. Unsupported codes clamp to the fallback. The value
// is persisted and subscribers are notified only when it actually changes.
// Concurrent calls are delivered to subscribers in the order they took
// effect; a subscriber must not call Set itself.
func (p *Preference) Set(code string) (string, error) {
	next := p.resolver.Clamp(code)

	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	changed := next != p.current
	p.current = next
	var subs []func(string)
	if changed {
		subs = make([]func(string), 0, len(p.subs))
		for _, s := range p.subs {
			subs = append(subs, s.fn)
		}
	}
	p.mu.Unlock()

	var err error
	if p.store != nil {
		err = p.store.Save(next)
	}
	for _, fn := range subs {
		fn(next)
	}
	return next, err
}

// Subscribe registers fn for locale changes and returns a cancel function.
// Subscribers run in registration order. Once cancel returns, fn is not
// running and will not be called again.
func (p *Preference) Subscribe(fn func(code string)) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs = append(p.subs, subscriber{id: id, fn: fn})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			// Wait out a delivery in progress.
			p.notifyMu.Lock()
			defer p.notifyMu.Unlock()
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, s := range p.subs {
				if s.id == id {
					p.subs = append(p.subs[:i], p.subs[i+1:]...)
					break
				}
			}
		})
	}
}
