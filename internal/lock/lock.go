// Package lock serializes work on individual wallets.
//
// Acquire always takes keys in ascending order and releases them in reverse,
// so two callers locking the same pair of wallets can never deadlock.
package lock

import (
	"context"
	"errors"
	"slices"
)

// ErrEmptyKey is returned when a caller asks to lock an empty key.
var ErrEmptyKey = errors.New("lock key cannot be empty")

// Release gives back every lock taken by one Acquire call. It is safe to call
// more than once.
type Release func()

// Locker acquires exclusive access to a set of keys.
type Locker interface {
	// Acquire blocks until every key is held or ctx is done. On failure no
	// key remains held.
	Acquire(ctx context.Context, keys ...string) (Release, error)
}

// Ordered returns keys de-duplicated and sorted ascending.
func Ordered(keys ...string) ([]string, error) {
	out := slices.Clone(keys)
	for _, k := range out {
		if k == "" {
			return nil, ErrEmptyKey
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// acquireAll locks keys in order through take and unwinds on the first
// failure.
func acquireAll(ctx context.Context, keys []string, take func(context.Context, string) (func(), error)) (Release, error) {
	ordered, err := Ordered(keys...)
	if err != nil {
		return nil, err
	}

	held := make([]func(), 0, len(ordered))
	unwind := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
		held = nil
	}

	for _, key := range ordered {
		unlock, err := take(ctx, key)
		if err != nil {
			unwind()
			return nil, err
		}
		held = append(held, unlock)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		unwind()
	}, nil
}
