package pagination

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/brewery-pager/internal/testutil"
	"github.com/Sternrassler/brewery-pager/pkg/brewery"
)

// catalogueRemote pages through a fixed list like the real API does.
type catalogueRemote struct {
	mu    sync.Mutex
	items []brewery.Brewery
	fail  map[int]error
	calls map[int]int
}

func newCatalogueRemote(items []brewery.Brewery) *catalogueRemote {
	return &catalogueRemote{items: items, fail: make(map[int]error), calls: make(map[int]int)}
}

func (c *catalogueRemote) FetchByType(ctx context.Context, breweryType string, perPage, page int) ([]brewery.Brewery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[page]++
	if err := c.fail[page]; err != nil {
		return nil, err
	}
	start := (page - 1) * perPage
	if start >= len(c.items) {
		return []brewery.Brewery{}, nil
	}
	end := start + perPage
	if end > len(c.items) {
		end = len(c.items)
	}
	return append([]brewery.Brewery{}, c.items[start:end]...), nil
}

func (c *catalogueRemote) FetchByID(ctx context.Context, id string) (*brewery.Brewery, error) {
	return nil, nil
}

func (c *catalogueRemote) setFailure(page int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.fail, page)
		return
	}
	c.fail[page] = err
}

func (c *catalogueRemote) totalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

func newTestPager(t *testing.T, remote Remote, opts ...PagerOption) *Pager {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	src := NewSource(testutil.NewMemoryStore(), remote, brewery.TypeMicro, WithClock(fixedClock()))
	return NewPager(ctx, src, 20, opts...)
}

func TestPager_AppendUntilComplete(t *testing.T) {
	remote := newCatalogueRemote(testutil.MakeBreweries(brewery.TypeMicro, "m", 45))
	p := newTestPager(t, remote)
	ctx := context.Background()

	if p.State() != StateIdle {
		t.Fatalf("initial State() = %s, want %s", p.State(), StateIdle)
	}

	wantLens := []int{20, 20, 5, 0}
	for i, want := range wantLens {
		ev, err := p.Append(ctx)
		if err != nil {
			t.Fatalf("Append #%d error = %v", i+1, err)
		}
		if ev.Page != i+1 {
			t.Errorf("Append #%d page = %d, want %d", i+1, ev.Page, i+1)
		}
		if len(ev.Items) != want {
			t.Errorf("Append #%d items = %d, want %d", i+1, len(ev.Items), want)
		}
		if ev.Seq != i {
			t.Errorf("Append #%d seq = %d, want %d", i+1, ev.Seq, i)
		}
	}

	if p.State() != StateComplete {
		t.Errorf("State() = %s, want %s", p.State(), StateComplete)
	}
	if _, err := p.Append(ctx); !errors.Is(err, ErrEndOfPagination) {
		t.Errorf("Append after end error = %v, want ErrEndOfPagination", err)
	}

	snap := p.Snapshot()
	if len(snap.Items) != 45 {
		t.Errorf("Snapshot items = %d, want 45", len(snap.Items))
	}
	if len(snap.Pages) != 4 || snap.NextKey != nil || snap.PrevKey != nil {
		t.Errorf("Snapshot pages = %v next = %v prev = %v", snap.Pages, fmtKey(snap.NextKey), fmtKey(snap.PrevKey))
	}
}

func TestPager_Prepend(t *testing.T) {
	remote := newCatalogueRemote(testutil.MakeBreweries(brewery.TypeMicro, "m", 100))
	ctx := context.Background()

	t.Run("nothing before the first page", func(t *testing.T) {
		p := newTestPager(t, remote)
		ev, err := p.Prepend(ctx)
		if err != nil {
			t.Fatalf("first Prepend error = %v", err)
		}
		if ev.Page != FirstPage {
			t.Errorf("first Prepend page = %d, want %d", ev.Page, FirstPage)
		}
		if _, err := p.Prepend(ctx); !errors.Is(err, ErrNoPreviousPage) {
			t.Errorf("Prepend error = %v, want ErrNoPreviousPage", err)
		}
	})

	t.Run("walks back from a start key", func(t *testing.T) {
		p := newTestPager(t, remote, StartAt(3))
		if _, err := p.Append(ctx); err != nil {
			t.Fatalf("Append error = %v", err)
		}
		for _, want := range []int{2, 1} {
			ev, err := p.Prepend(ctx)
			if err != nil {
				t.Fatalf("Prepend error = %v", err)
			}
			if ev.Kind != EventPrepend || ev.Page != want {
				t.Errorf("Prepend = (%s, %d), want (prepend, %d)", ev.Kind, ev.Page, want)
			}
		}

		snap := p.Snapshot()
		if got := snap.Pages; len(got) != 3 || got[0] != 1 || got[2] != 3 {
			t.Errorf("Pages = %v, want [1 2 3]", got)
		}
		if snap.Items[0].ID != "m-000" {
			t.Errorf("first item = %s, want m-000", snap.Items[0].ID)
		}
	})
}

func TestPager_RetryAfterError(t *testing.T) {
	remote := newCatalogueRemote(testutil.MakeBreweries(brewery.TypeMicro, "m", 45))
	p := newTestPager(t, remote)
	ctx := context.Background()

	if _, err := p.Append(ctx); err != nil {
		t.Fatalf("Append error = %v", err)
	}

	remote.setFailure(2, errors.New("upstream down"))
	ev, err := p.Append(ctx)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Append error = %v, want *LoadError", err)
	}
	if ev.Err == nil || ev.Page != 2 {
		t.Errorf("error event = %+v", ev)
	}
	if p.State() != StateError {
		t.Errorf("State() = %s, want %s", p.State(), StateError)
	}
	if p.Snapshot().LastError == nil {
		t.Error("Snapshot().LastError = nil")
	}

	remote.setFailure(2, nil)
	ev, err = p.Append(ctx)
	if err != nil {
		t.Fatalf("retry Append error = %v", err)
	}
	if ev.Page != 2 {
		t.Errorf("retry page = %d, want 2", ev.Page)
	}
	if p.State() != StateLoaded {
		t.Errorf("State() = %s, want %s", p.State(), StateLoaded)
	}

	snap := p.Snapshot()
	if snap.Events != 3 || snap.LastError != nil {
		t.Errorf("Snapshot events = %d lastErr = %v", snap.Events, snap.LastError)
	}
}

func TestPager_RetryAfterStoreWriteFailure(t *testing.T) {
	store := testutil.NewMemoryStore()
	remote := newCatalogueRemote(testutil.MakeBreweries(brewery.TypeMicro, "m", 45))
	src := NewSource(store, remote, brewery.TypeMicro, WithClock(fixedClock()))
	p := NewPager(context.Background(), src, 20)
	ctx := context.Background()

	store.UpsertErr = errors.New("disk full")
	_, err := p.Append(ctx)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Op != OpUpsert {
		t.Fatalf("Append error = %v, want upsert *LoadError", err)
	}

	store.UpsertErr = nil
	ev, err := p.Append(ctx)
	if err != nil {
		t.Fatalf("retry Append error = %v", err)
	}
	if ev.Page != 1 || len(ev.Items) != 20 {
		t.Errorf("retry event = page %d with %d items, want page 1 with 20", ev.Page, len(ev.Items))
	}
	if ev.NextKey == nil || *ev.NextKey != 2 {
		t.Errorf("retry NextKey = %v, want 2", fmtKey(ev.NextKey))
	}
	if p.State() != StateLoaded {
		t.Errorf("State() = %s, want %s", p.State(), StateLoaded)
	}
	if n := remote.calls[1]; n != 2 {
		t.Errorf("page 1 fetched %d times, want 2", n)
	}
}

// blockingRemote holds every fetch until its context ends.
type blockingRemote struct {
	started chan struct{}
}

func (b *blockingRemote) FetchByType(ctx context.Context, breweryType string, perPage, page int) ([]brewery.Brewery, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingRemote) FetchByID(ctx context.Context, id string) (*brewery.Brewery, error) {
	return nil, nil
}

func TestPager_ScopeEndDuringLoad(t *testing.T) {
	remote := &blockingRemote{started: make(chan struct{})}
	scope, cancel := context.WithCancel(context.Background())
	src := NewSource(testutil.NewMemoryStore(), remote, brewery.TypeMicro, WithClock(fixedClock()))
	p := NewPager(scope, src, 20)

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Append(context.Background())
		errCh <- err
	}()

	select {
	case <-remote.started:
	case <-time.After(5 * time.Second):
		t.Fatal("load never started")
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("Append error = %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Append did not return after scope end")
	}

	snap := p.Snapshot()
	if snap.State != StateClosed {
		t.Errorf("Snapshot().State = %s, want %s", snap.State, StateClosed)
	}
	if snap.Events != 0 {
		t.Errorf("Snapshot().Events = %d, want 0", snap.Events)
	}
}

func TestPager_SubscribeReplaysAndFollows(t *testing.T) {
	remote := newCatalogueRemote(testutil.MakeBreweries(brewery.TypeMicro, "m", 100))
	p := newTestPager(t, remote)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 2; i++ {
		if _, err := p.Append(ctx); err != nil {
			t.Fatalf("Append error = %v", err)
		}
	}
	callsBefore := remote.totalCalls()

	first := p.Subscribe(ctx)
	second := p.Subscribe(ctx)

	for _, sub := range []<-chan Event{first, second} {
		for want := 0; want < 2; want++ {
			select {
			case ev := <-sub:
				if ev.Seq != want {
					t.Errorf("replayed seq = %d, want %d", ev.Seq, want)
				}
			case <-ctx.Done():
				t.Fatal("timed out waiting for replay")
			}
		}
	}

	if remote.totalCalls() != callsBefore {
		t.Errorf("subscribing triggered %d loads", remote.totalCalls()-callsBefore)
	}

	if _, err := p.Append(ctx); err != nil {
		t.Fatalf("Append error = %v", err)
	}
	for _, sub := range []<-chan Event{first, second} {
		select {
		case ev := <-sub:
			if ev.Seq != 2 || ev.Page != 3 {
				t.Errorf("live event = (seq %d, page %d), want (2, 3)", ev.Seq, ev.Page)
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for live event")
		}
	}
}

func TestPager_ScopeEnd(t *testing.T) {
	remote := newCatalogueRemote(testutil.MakeBreweries(brewery.TypeMicro, "m", 100))
	scope, cancel := context.WithCancel(context.Background())
	src := NewSource(testutil.NewMemoryStore(), remote, brewery.TypeMicro, WithClock(fixedClock()))
	p := NewPager(scope, src, 20)

	if _, err := p.Append(context.Background()); err != nil {
		t.Fatalf("Append error = %v", err)
	}
	sub := p.Subscribe(context.Background())
	<-sub

	cancel()

	select {
	case _, ok := <-sub:
		if ok {
			// Drain anything that raced the cancellation.
			for range sub {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("subscription not closed after scope end")
	}

	if _, err := p.Append(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after scope end error = %v, want ErrClosed", err)
	}
	if snap := p.Snapshot(); len(snap.Items) != 0 || len(snap.Pages) != 0 {
		t.Errorf("Snapshot after scope end = %d items, %d pages", len(snap.Items), len(snap.Pages))
	}
}

func TestPager_ConcurrentDemandIsSerialized(t *testing.T) {
	remote := newCatalogueRemote(testutil.MakeBreweries(brewery.TypeMicro, "m", 200))
	p := newTestPager(t, remote)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Append(context.Background()); err != nil {
				t.Errorf("Append error = %v", err)
			}
		}()
	}
	wg.Wait()

	snap := p.Snapshot()
	for i, page := range snap.Pages {
		if page != i+1 {
			t.Fatalf("Pages = %v, want 1..5 in order", snap.Pages)
		}
	}
	if len(snap.Items) != 100 {
		t.Errorf("items = %d, want 100", len(snap.Items))
	}
	for page := 1; page <= 5; page++ {
		if n := remote.calls[page]; n != 1 {
			t.Errorf("page %d fetched %d times, want 1", page, n)
		}
	}
}

func TestPager_SnapshotDeduplicates(t *testing.T) {
	dup := testutil.MakeBreweries(brewery.TypeMicro, "m", 2)
	remote := &fakeRemote{pages: map[int][]brewery.Brewery{
		1: dup,
		2: {dup[1], {ID: "m-900", Name: "New", Type: brewery.TypeMicro}},
	}}
	p := newTestPager(t, remote)

	for i := 0; i < 2; i++ {
		if _, err := p.Append(context.Background()); err != nil {
			t.Fatalf("Append error = %v", err)
		}
	}

	snap := p.Snapshot()
	if len(snap.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(snap.Items))
	}
	if snap.Items[2].ID != "m-900" {
		t.Errorf("items[2] = %s, want m-900", snap.Items[2].ID)
	}
}

func TestPager_RefreshKey(t *testing.T) {
	remote := newCatalogueRemote(testutil.MakeBreweries(brewery.TypeMicro, "m", 100))
	p := newTestPager(t, remote)

	if got := p.RefreshKey(intPtr(0)); got != nil {
		t.Errorf("RefreshKey() before load = %v, want nil", *got)
	}
	for i := 0; i < 3; i++ {
		if _, err := p.Append(context.Background()); err != nil {
			t.Fatalf("Append error = %v", err)
		}
	}
	if got := p.RefreshKey(intPtr(45)); !equalKey(got, intPtr(3)) {
		t.Errorf("RefreshKey(45) = %v, want 3", fmtKey(got))
	}
}
