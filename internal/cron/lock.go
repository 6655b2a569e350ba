package cron

import (
	"context"
	"sync"
)

// Lock coordinates exclusive cron runs.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LocalLock prevents overlapping cycles inside one process. Each replica owns
// its own icon cache so the lock is never shared across instances.
type LocalLock struct {
	mu sync.Mutex
}

// NewLocalLock returns an unlocked LocalLock.
func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

// Acquire reports false without blocking when a cycle is already running.
func (l *LocalLock) Acquire(context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

func (l *LocalLock) Release(context.Context) error {
	l.mu.Unlock()
	return nil
}
