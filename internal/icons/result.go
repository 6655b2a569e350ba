package icons

import (
	"errors"

	"github.com/zauberjournal/journal-api/pkg/iconapi"
)

// LoadState is the outcome of a Load call.
type LoadState string

const (
	// StateLoaded means the cache holds a complete table, fetched now or earlier.
	StateLoaded LoadState = "loaded"
	// StateFailed means the fetch failed and the cache stays empty.
	StateFailed LoadState = "failed"
	// StateNotLoaded means another load was in flight so this call did nothing,
	// or an invalidation overtook this call's fetch and its result was dropped.
	StateNotLoaded LoadState = "not_loaded"
)

// FailureKind classifies a failed fetch.
type FailureKind string

const (
	FailureTransport FailureKind = "transport"
	FailureStatus    FailureKind = "status"
	FailureDecode    FailureKind = "decode"
)

// LoadResult reports what Load did. Kind and Err are set only for StateFailed.
type LoadResult struct {
	State LoadState
	Count int
	Kind  FailureKind
	Err   error
}

func loaded(count int) LoadResult {
	return LoadResult{State: StateLoaded, Count: count}
}

func failed(err error) LoadResult {
	return LoadResult{State: StateFailed, Kind: classify(err), Err: err}
}

// classify maps fetch errors onto a FailureKind; anything that is neither a
// status nor a decode failure, cancellation included, counts as transport.
func classify(err error) FailureKind {
	var statusErr *iconapi.StatusError
	if errors.As(err, &statusErr) {
		return FailureStatus
	}
	var decodeErr *iconapi.DecodeError
	if errors.As(err, &decodeErr) {
		return FailureDecode
	}
	return FailureTransport
}
