package icons

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zauberjournal/journal-api/pkg/iconapi"
	"github.com/zauberjournal/journal-api/pkg/logger"
)

type fakeFetcher struct {
	calls   atomic.Int32
	fetchFn func(ctx context.Context) ([]iconapi.Icon, error)
}

func (f *fakeFetcher) FetchIcons(ctx context.Context) ([]iconapi.Icon, error) {
	f.calls.Add(1)
	if f.fetchFn != nil {
		return f.fetchFn(ctx)
	}
	return nil, nil
}

func staticFetcher(icons ...iconapi.Icon) *fakeFetcher {
	return &fakeFetcher{fetchFn: func(context.Context) ([]iconapi.Icon, error) { return icons, nil }}
}

func newTestResolver(t *testing.T, f Fetcher) *Resolver {
	t.Helper()
	r, err := NewResolver(f, logger.Discard(), nil)
	require.NoError(t, err)
	return r
}

func loadedResolver(t *testing.T, icons ...iconapi.Icon) *Resolver {
	t.Helper()
	r := newTestResolver(t, staticFetcher(icons...))
	res := r.Load(context.Background())
	require.Equal(t, StateLoaded, res.State)
	return r
}

func TestNewResolverRequiresDependencies(t *testing.T) {
	_, err := NewResolver(nil, logger.Discard(), nil)
	assert.Error(t, err)
	_, err = NewResolver(&fakeFetcher{}, nil, nil)
	assert.Error(t, err)
}

func TestEmojiPrefersMoreSpecificKeyword(t *testing.T) {
	r := loadedResolver(t,
		iconapi.Icon{Keyword: "tomate", Emoji: "🍅"},
		iconapi.Icon{Keyword: "kirschtomate", Emoji: "🍒"},
	)

	emoji, ok := r.Emoji("Kirschtomaten")
	require.True(t, ok)
	assert.Equal(t, "🍒", emoji)
}

func TestEmojiTiers(t *testing.T) {
	r := loadedResolver(t,
		iconapi.Icon{Keyword: "salz", Emoji: "🧂"},
		iconapi.Icon{Keyword: "Meersalz", Emoji: "🌊"},
		iconapi.Icon{Keyword: "apfel", Emoji: "🍎"},
		iconapi.Icon{Keyword: "apfelsaft", Emoji: "🧃"},
		iconapi.Icon{Keyword: "zimt", Emoji: "🟤"},
		iconapi.Icon{Keyword: "käse", Emoji: "🧀"},
	)

	cases := []struct {
		name  string
		input string
		emoji string
		found bool
	}{
		{name: "exact beats containment", input: "salz", emoji: "🧂", found: true},
		{name: "exact is case insensitive and trimmed", input: "  MEERSALZ ", emoji: "🌊", found: true},
		{name: "keyword in name beats name in keyword", input: "apfels", emoji: "🍎", found: true},
		{name: "longest keyword in name", input: "grobes meersalz", emoji: "🌊", found: true},
		{name: "equal length keeps first entry", input: "salzzimt", emoji: "🧂", found: true},
		{name: "name in keyword", input: "saft", emoji: "🧃", found: true},
		{name: "name in keyword picks longest", input: "apf", emoji: "🧃", found: true},
		{name: "unicode", input: "Bergkäse", emoji: "🧀", found: true},
		{name: "miss", input: "pfeffer", found: false},
		{name: "blank", input: "", found: false},
		{name: "whitespace", input: "   ", found: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			emoji, ok := r.Emoji(tc.input)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.emoji, emoji)
		})
	}
}

func TestEmojiDuplicateKeywordKeepsFirst(t *testing.T) {
	r := loadedResolver(t,
		iconapi.Icon{Keyword: "Ei", Emoji: "🥚"},
		iconapi.Icon{Keyword: "ei", Emoji: "🐣"},
	)
	emoji, ok := r.Emoji("EI")
	require.True(t, ok)
	assert.Equal(t, "🥚", emoji)
}

func TestEmojiIgnoresBlankKeywords(t *testing.T) {
	r := loadedResolver(t, iconapi.Icon{Keyword: "  ", Emoji: "❓"})
	_, ok := r.Emoji("anything")
	assert.False(t, ok)
	assert.Zero(t, r.Status().Count)
}

func TestEmojiOnEmptyCache(t *testing.T) {
	f := staticFetcher(iconapi.Icon{Keyword: "tomate", Emoji: "🍅"})
	r := newTestResolver(t, f)

	_, ok := r.Emoji("tomate")
	assert.False(t, ok)
	_, ok = r.Emoji("")
	assert.False(t, ok)
	assert.Zero(t, f.calls.Load())
}

func TestLoadIsNoopWhenLoaded(t *testing.T) {
	f := staticFetcher(iconapi.Icon{Keyword: "tomate", Emoji: "🍅"})
	r := newTestResolver(t, f)

	first := r.Load(context.Background())
	second := r.Load(context.Background())

	assert.Equal(t, LoadResult{State: StateLoaded, Count: 1}, first)
	assert.Equal(t, LoadResult{State: StateLoaded, Count: 1}, second)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestInvalidateThenLoadFetchesOnce(t *testing.T) {
	f := staticFetcher(iconapi.Icon{Keyword: "tomate", Emoji: "🍅"})
	r := newTestResolver(t, f)
	ctx := context.Background()

	r.Load(ctx)
	r.Invalidate(ctx)
	assert.False(t, r.Loaded())

	_, ok := r.Emoji("tomate")
	assert.False(t, ok)
	assert.Equal(t, int32(1), f.calls.Load())

	r.Load(ctx)
	assert.Equal(t, int32(2), f.calls.Load())

	emoji, ok := r.Emoji("tomate")
	assert.True(t, ok)
	assert.Equal(t, "🍅", emoji)
}

func TestConcurrentLoadFetchesOnce(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := &fakeFetcher{fetchFn: func(context.Context) ([]iconapi.Icon, error) {
		close(started)
		<-release
		return []iconapi.Icon{{Keyword: "tomate", Emoji: "🍅"}}, nil
	}}
	r := newTestResolver(t, f)
	ctx := context.Background()

	firstDone := make(chan LoadResult, 1)
	go func() { firstDone <- r.Load(ctx) }()
	<-started

	assert.True(t, r.Status().Loading)

	var wg sync.WaitGroup
	results := make([]LoadResult, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Load(ctx)
		}(i)
	}
	wg.Wait()
	for _, res := range results {
		assert.Equal(t, StateNotLoaded, res.State)
	}

	close(release)
	select {
	case res := <-firstDone:
		assert.Equal(t, StateLoaded, res.State)
	case <-time.After(time.Second):
		t.Fatal("first load did not finish")
	}

	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, Status{Loaded: true, Loading: false, Count: 1}, r.Status())
}

func TestLoadFailureKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind FailureKind
	}{
		{name: "status", err: &iconapi.StatusError{StatusCode: 503}, kind: FailureStatus},
		{name: "decode", err: &iconapi.DecodeError{Err: errors.New("unexpected EOF")}, kind: FailureDecode},
		{name: "transport", err: errors.New("dial tcp: connection refused"), kind: FailureTransport},
		{name: "canceled", err: context.Canceled, kind: FailureTransport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeFetcher{fetchFn: func(context.Context) ([]iconapi.Icon, error) { return nil, tc.err }}
			r := newTestResolver(t, f)

			res := r.Load(context.Background())
			assert.Equal(t, StateFailed, res.State)
			assert.Equal(t, tc.kind, res.Kind)
			assert.ErrorIs(t, res.Err, tc.err)
			assert.Equal(t, Status{}, r.Status())
		})
	}
}

func TestLoadRetriesAfterFailure(t *testing.T) {
	fail := true
	f := &fakeFetcher{fetchFn: func(context.Context) ([]iconapi.Icon, error) {
		if fail {
			return nil, &iconapi.StatusError{StatusCode: 500}
		}
		return []iconapi.Icon{{Keyword: "tomate", Emoji: "🍅"}}, nil
	}}
	r := newTestResolver(t, f)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	assert.Equal(t, StateFailed, r.Load(ctx).State)
	assert.False(t, r.Status().Loading)

	fail = false
	now = now.Add(failureBackoff)
	assert.Equal(t, StateLoaded, r.Load(ctx).State)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestLoadBacksOffAfterFailure(t *testing.T) {
	fail := true
	f := &fakeFetcher{fetchFn: func(context.Context) ([]iconapi.Icon, error) {
		if fail {
			return nil, &iconapi.StatusError{StatusCode: 503}
		}
		return []iconapi.Icon{{Keyword: "tomate", Emoji: "🍅"}}, nil
	}}
	r := newTestResolver(t, f)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	first := r.Load(ctx)
	require.Equal(t, StateFailed, first.State)

	fail = false
	for i := 0; i < 5; i++ {
		now = now.Add(time.Second - time.Millisecond)
		res := r.Load(ctx)
		assert.Equal(t, StateFailed, res.State)
		assert.Equal(t, FailureStatus, res.Kind)
	}
	assert.Equal(t, int32(1), f.calls.Load())
	assert.False(t, r.Loaded())

	now = now.Add(time.Second)
	assert.Equal(t, StateLoaded, r.Load(ctx).State)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestInvalidateClearsFailureBackoff(t *testing.T) {
	fail := true
	f := &fakeFetcher{fetchFn: func(context.Context) ([]iconapi.Icon, error) {
		if fail {
			return nil, errors.New("dial tcp: connection refused")
		}
		return []iconapi.Icon{{Keyword: "tomate", Emoji: "🍅"}}, nil
	}}
	r := newTestResolver(t, f)
	r.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	require.Equal(t, StateFailed, r.Load(ctx).State)

	fail = false
	r.Invalidate(ctx)
	assert.Equal(t, StateLoaded, r.Load(ctx).State)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestInvalidateDuringLoadDropsFetchedTable(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var calls atomic.Int32
	f := &fakeFetcher{fetchFn: func(context.Context) ([]iconapi.Icon, error) {
		if calls.Add(1) == 1 {
			started <- struct{}{}
			<-release
			return []iconapi.Icon{{Keyword: "tomate", Emoji: "OLD"}}, nil
		}
		return []iconapi.Icon{{Keyword: "tomate", Emoji: "NEW"}}, nil
	}}
	r := newTestResolver(t, f)
	ctx := context.Background()

	firstDone := make(chan LoadResult, 1)
	go func() { firstDone <- r.Load(ctx) }()
	<-started

	r.Invalidate(ctx)
	close(release)

	select {
	case res := <-firstDone:
		assert.Equal(t, StateNotLoaded, res.State)
	case <-time.After(time.Second):
		t.Fatal("first load did not finish")
	}
	assert.False(t, r.Loaded())
	_, ok := r.Emoji("tomate")
	assert.False(t, ok)

	res := r.Load(ctx)
	assert.Equal(t, LoadResult{State: StateLoaded, Count: 1}, res)
	assert.Equal(t, int32(2), f.calls.Load())

	emoji, ok := r.Emoji("tomate")
	require.True(t, ok)
	assert.Equal(t, "NEW", emoji)
}
