// Package lock guards pipeline runs so that only one writes to the output
// table at a time.
package lock

import (
	"context"
	"errors"
	"sync"
)

var ErrLocked = errors.New("run already in progress")

// Locker hands out a release func when the lock is free and ErrLocked when
// it is held.
type Locker interface {
	Acquire(ctx context.Context) (func(), error)
}

var (
	_ Locker = (*LocalLocker)(nil)
	_ Locker = (*RedisLocker)(nil)
	_ Locker = chain(nil)
)

// LocalLocker is an in-process lock.
type LocalLocker struct {
	mu sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) Acquire(ctx context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrLocked
	}
	return l.mu.Unlock, nil
}

type chain []Locker

// Chain acquires every locker in order and releases them in reverse. If one
// fails, those already held are released.
func Chain(lockers ...Locker) Locker {
	return chain(lockers)
}

func (c chain) Acquire(ctx context.Context) (func(), error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, l := range c {
		release, err := l.Acquire(ctx)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}

	return releaseAll, nil
}
