package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

// AccountLocker serializes ledger operations per card number. A lock is
// held for the whole load-apply-save window; acquisition honors the
// caller's context deadline and fails with domain.ErrLockTimeout before
// anything has been mutated.
type AccountLocker struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

func NewAccountLocker() *AccountLocker {
	return &AccountLocker{locks: make(map[string]*semaphore.Weighted)}
}

func (l *AccountLocker) Acquire(ctx context.Context, cardNumber string) (func(), error) {
	sem := l.semFor(cardNumber)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: card %s: %v", domain.ErrLockTimeout, cardNumber, err)
	}
	return func() { sem.Release(1) }, nil
}

// AcquireOrdered locks two cards in lexicographic order so concurrent
// transfers in opposite directions cannot deadlock.
func (l *AccountLocker) AcquireOrdered(ctx context.Context, first string, second string) (func(), error) {
	a, b := first, second
	if b < a {
		a, b = b, a
	}

	releaseA, err := l.Acquire(ctx, a)
	if err != nil {
		return nil, err
	}
	releaseB, err := l.Acquire(ctx, b)
	if err != nil {
		releaseA()
		return nil, err
	}

	return func() {
		releaseB()
		releaseA()
	}, nil
}

func (l *AccountLocker) semFor(cardNumber string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.locks[cardNumber]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.locks[cardNumber] = sem
	}
	return sem
}
