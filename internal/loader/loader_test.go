package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/locale"
)

// gatedFetch blocks each locale's fetch until its gate is released.
type gatedFetch struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func newGatedFetch(locales ...string) *gatedFetch {
	g := &gatedFetch{gates: map[string]chan struct{}{}, started: make(chan string, 8)}
	for _, l := range locales {
		g.gates[l] = make(chan struct{})
	}
	return g
}

func (g *gatedFetch) release(loc string) { close(g.gates[loc]) }

// fetch ignores cancellation so the generation guard alone must discard stale data.
func (g *gatedFetch) fetch(_ context.Context, loc string) ([]string, error) {
	g.started <- loc
	g.mu.Lock()
	gate := g.gates[loc]
	g.mu.Unlock()
	<-gate
	return []string{loc + "-data"}, nil
}

func waitStarted(t *testing.T, g *gatedFetch, want string) {
	t.Helper()
	select {
	case got := <-g.started:
		if got != want {
			t.Fatalf("expected %s fetch to start, got %s", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s fetch", want)
	}
}

func TestLocaleChangeDiscardsStaleResponse(t *testing.T) {
	defer goleak.VerifyNone(t)

	g := newGatedFetch("fr", "ht")
	l := NewList(g.fetch)
	ctx := context.Background()

	type result struct {
		st    State[[]string]
		fresh bool
	}
	frDone := make(chan result, 1)
	go func() {
		st, fresh := l.Load(ctx, "fr")
		frDone <- result{st, fresh}
	}()
	waitStarted(t, g, "fr")

	htDone := make(chan result, 1)
	go func() {
		st, fresh := l.Load(ctx, "ht")
		htDone <- result{st, fresh}
	}()
	waitStarted(t, g, "ht")

	if st := l.State(); st.Phase != Loading || st.Locale != "ht" {
		t.Fatalf("expected loading ht, got %+v", st)
	}

	g.release("ht")
	ht := <-htDone
	if !ht.fresh || ht.st.Phase != Success || ht.st.Data[0] != "ht-data" {
		t.Fatalf("unexpected ht result %+v", ht)
	}

	g.release("fr")
	fr := <-frDone
	if fr.fresh {
		t.Fatalf("stale fr response must be discarded")
	}

	final := l.State()
	if final.Phase != Success || final.Locale != "ht" || len(final.Data) != 1 || final.Data[0] != "ht-data" {
		t.Fatalf("final state must reflect ht only, got %+v", final)
	}
}

func TestNewerLoadCancelsOlderContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	cancelled := make(chan struct{})
	started := make(chan struct{})
	l := New(func(ctx context.Context, loc string) (string, error) {
		if loc == "fr" {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return "", ctx.Err()
		}
		return loc, nil
	})

	done := make(chan bool, 1)
	go func() {
		_, fresh := l.Load(context.Background(), "fr")
		done <- fresh
	}()
	<-started
	if st, fresh := l.Load(context.Background(), "ht"); !fresh || st.Data != "ht" {
		t.Fatalf("unexpected ht state %+v", st)
	}
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("older fetch was not cancelled")
	}
	if <-done {
		t.Fatalf("cancelled fetch must not be reported fresh")
	}
	if st := l.State(); st.Phase != Success || st.Err != nil {
		t.Fatalf("cancellation must not surface as failure, got %+v", st)
	}
}

func TestFailureEmptyAndRetry(t *testing.T) {
	calls := 0
	l := NewList(func(ctx context.Context, loc string) ([]int, error) {
		calls++
		if calls == 1 {
			return nil, &cms.FetchFailure{Kind: cms.FailureServer, Resource: "decisions", Status: 502}
		}
		return []int{}, nil
	})

	if _, ok := l.Retry(context.Background()); ok {
		t.Fatalf("idle loader has nothing to retry")
	}

	st, _ := l.Load(context.Background(), "fr")
	if st.Phase != Failed {
		t.Fatalf("expected failed, got %s", st.Phase)
	}
	f := st.Failure()
	if f == nil || f.Status != 502 || !f.Retryable() {
		t.Fatalf("unexpected failure %+v", f)
	}

	st, ok := l.Retry(context.Background())
	if !ok || st.Phase != Success || !st.Empty || st.Locale != "fr" {
		t.Fatalf("expected empty success after retry, got %+v", st)
	}
	if st.Failure() != nil {
		t.Fatalf("success has no failure")
	}
}

func TestCloseDiscardsLateResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	started := make(chan struct{})
	l := New(func(ctx context.Context, loc string) (string, error) {
		close(started)
		<-release
		return "late", nil
	})
	done := make(chan bool, 1)
	go func() {
		_, fresh := l.Load(context.Background(), "fr")
		done <- fresh
	}()
	<-started
	l.Close()
	close(release)
	if <-done {
		t.Fatalf("result after Close must be discarded")
	}
	if _, fresh := l.Load(context.Background(), "ht"); fresh {
		t.Fatalf("closed loader must ignore loads")
	}
	if st := l.State(); st.Data == "late" {
		t.Fatalf("late data leaked into state")
	}
}

func TestWatchReloadsOnLocaleChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	resolver, err := locale.NewResolver(nil, "fr")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	pref := locale.NewPreference(resolver, &locale.MemoryStore{}, "", "")

	var mu sync.Mutex
	var seen []Phase
	l := New(func(ctx context.Context, loc string) (string, error) {
		if loc == "fr" {
			return "", errors.New("unreachable")
		}
		return "bonjou", nil
	})
	l.OnChange(func(st State[string]) {
		mu.Lock()
		seen = append(seen, st.Phase)
		mu.Unlock()
	})
	if st, _ := l.Load(context.Background(), pref.Current()); st.Phase != Failed {
		t.Fatalf("expected fr load to fail, got %+v", st)
	}

	stop := l.Watch(context.Background(), pref)
	if _, err := pref.Set("ht"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	stop()

	st := l.State()
	if st.Phase != Success || st.Locale != "ht" || st.Data != "bonjou" {
		t.Fatalf("expected ht reload, got %+v", st)
	}
	mu.Lock()
	defer mu.Unlock()
	want := []Phase{Loading, Failed, Loading, Success}
	if len(seen) != len(want) {
		t.Fatalf("unexpected transitions %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("unexpected transitions %v", seen)
		}
	}
}

func TestWatchLastLocaleWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	resolver, err := locale.NewResolver(nil, "fr")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	for i := 0; i < 100; i++ {
		pref := locale.NewPreference(resolver, &locale.MemoryStore{}, "", "")
		l := NewList(func(_ context.Context, loc string) ([]string, error) {
			return []string{loc + "-data"}, nil
		})
		stop := l.Watch(context.Background(), pref)
		_, _ = pref.Set("ht")
		_, _ = pref.Set("fr")
		stop()

		st := l.State()
		if st.Locale != pref.Current() || st.Phase != Success || st.Data[0] != "fr-data" {
			t.Fatalf("run %d: loader holds %+v while preference is %s", i, st, pref.Current())
		}
	}
}

func TestWatchDiscardsSlowerEarlierLocale(t *testing.T) {
	defer goleak.VerifyNone(t)

	resolver, err := locale.NewResolver(nil, "fr")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	pref := locale.NewPreference(resolver, &locale.MemoryStore{}, "", "")
	g := newGatedFetch("fr", "ht")
	l := NewList(g.fetch)

	stop := l.Watch(context.Background(), pref)
	_, _ = pref.Set("ht")
	_, _ = pref.Set("fr")
	if st := l.State(); st.Phase != Loading || st.Locale != "fr" {
		t.Fatalf("expected loading fr right after Set, got %+v", st)
	}
	g.release("fr")
	g.release("ht")
	stop()

	st := l.State()
	if st.Phase != Success || st.Locale != "fr" || st.Data[0] != "fr-data" {
		t.Fatalf("expected fr to win, got %+v", st)
	}
}
