package icons

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/zauberjournal/journal-api/pkg/errors"
	"github.com/zauberjournal/journal-api/pkg/iconapi"
	"github.com/zauberjournal/journal-api/pkg/logger"
	"github.com/zauberjournal/journal-api/pkg/metrics"
)

// failureBackoff is how long Load reuses a failed result before fetching
// again. Invalidate clears it.
const failureBackoff = 5 * time.Second

// Fetcher retrieves the keyword to emoji table.
type Fetcher interface {
	FetchIcons(ctx context.Context) ([]iconapi.Icon, error)
}

// Status is a point-in-time view of the cache.
type Status struct {
	Loaded  bool `json:"loaded"`
	Loading bool `json:"loading"`
	Count   int  `json:"count"`
}

// Resolver caches the icon table once per process and answers emoji lookups
// from memory. Lookups never fetch; only Load does.
type Resolver struct {
	mu      sync.RWMutex
	loaded  bool
	loading bool
	table   *table
	// gen advances on every Invalidate; a fetch started under an older
	// generation is discarded.
	gen         uint64
	lastFailure LoadResult
	retryAt     time.Time

	now     func() time.Time
	fetcher Fetcher
	metrics *metrics.IconCacheMetrics
	logg    *logger.Logger
}

// NewResolver builds an empty, unloaded resolver.
func NewResolver(fetcher Fetcher, logg *logger.Logger, m *metrics.IconCacheMetrics) (*Resolver, error) {
	if fetcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "icon fetcher required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Resolver{fetcher: fetcher, metrics: m, logg: logg, now: time.Now}, nil
}

// Load fills the cache unless it is already loaded or another Load is in
// flight. Fetch failures leave the cache empty and are reported, never raised.
// After a failure, Load returns that failure without fetching until the
// backoff passes or Invalidate runs. A fetch overtaken by Invalidate is
// discarded and reported as StateNotLoaded.
func (r *Resolver) Load(ctx context.Context) LoadResult {
	r.mu.Lock()
	if r.loaded {
		count := r.table.size()
		r.mu.Unlock()
		return loaded(count)
	}
	if r.loading {
		r.mu.Unlock()
		r.metrics.IncLoad("skipped")
		return LoadResult{State: StateNotLoaded}
	}
	if r.now().Before(r.retryAt) {
		res := r.lastFailure
		r.mu.Unlock()
		r.metrics.IncLoad("backoff")
		return res
	}
	r.loading = true
	gen := r.gen
	r.mu.Unlock()

	icons, err := r.fetcher.FetchIcons(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false

	if gen != r.gen {
		r.metrics.IncLoad("discarded")
		r.logg.Info(ctx, "icons.load.discarded")
		return LoadResult{State: StateNotLoaded}
	}

	if err != nil {
		res := failed(err)
		r.lastFailure = res
		r.retryAt = r.now().Add(failureBackoff)
		r.metrics.IncLoad(string(res.Kind))
		logCtx := r.logg.WithFields(ctx, map[string]any{"kind": res.Kind, "error": err.Error()})
		r.logg.Warn(logCtx, "icons.load.failed")
		return res
	}

	r.table = newTable(icons)
	r.loaded = true
	r.lastFailure = LoadResult{}
	r.retryAt = time.Time{}
	count := r.table.size()
	r.metrics.IncLoad(string(StateLoaded))
	r.metrics.SetEntries(count)
	r.logg.Info(r.logg.WithField(ctx, "count", count), "icons.load.completed")
	return loaded(count)
}

// Invalidate drops the cached table so the next Load fetches again. A load
// already in flight will not store its result.
func (r *Resolver) Invalidate(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	r.retryAt = time.Time{}
	r.lastFailure = LoadResult{}
	r.loaded = false
	r.table = nil
	r.metrics.SetEntries(0)
	r.logg.Info(ctx, "icons.cache.invalidated")
}

// Emoji resolves an ingredient name. Blank names and an empty cache resolve
// to nothing.
func (r *Resolver) Emoji(name string) (string, bool) {
	r.mu.RLock()
	t := r.table
	r.mu.RUnlock()

	emoji, tier := t.lookup(name)
	r.metrics.IncLookup(string(tier))
	return emoji, tier != tierMiss
}

// Loaded reports whether the cache currently holds a fetched table.
func (r *Resolver) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

func (r *Resolver) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Status{Loaded: r.loaded, Loading: r.loading, Count: r.table.size()}
}
