// Package service implements the seat reservation state machine on top
// of the seat store: lock acquisition and renewal, ownership-gated
// release, booking finalisation and expired-lock reclaim. Every
// mutation funnels through the store's compare-and-transition, so for a
// single seat the outcome of concurrent calls is equivalent to some
// total order of those transitions.
package service

import (
    "context"
    "time"

    "github.com/iliyamo/event-seat-booking/internal/model"
    "github.com/iliyamo/event-seat-booking/internal/repository"
)

// LockManager implements acquire, renew and release semantics over seat
// records. A lock is valid for TTL from its locked_at; past that window
// it is logically expired even before the sweeper physically clears it,
// so expiry is also evaluated here on every attempt. Losing a race
// surfaces as repository.ErrConflict; no retry happens internally
// (first-writer-wins).
type LockManager struct {
    store repository.SeatStore
    ttl   time.Duration
    now   func() time.Time // injected for deterministic expiry tests
}

// NewLockManager constructs a LockManager. The store must be non-nil
// and ttl positive.
func NewLockManager(store repository.SeatStore, ttl time.Duration) *LockManager {
    if store == nil {
        panic("nil seat store passed to NewLockManager")
    }
    if ttl <= 0 {
        ttl = 60 * time.Second
    }
    return &LockManager{
        store: store,
        ttl:   ttl,
        now:   func() time.Time { return time.Now().UTC() },
    }
}

// TTL returns the configured lock time-to-live.
func (m *LockManager) TTL() time.Duration { return m.ttl }

// Lock claims the seat for the given user. It succeeds when the seat is
// available, when it is already locked by the same user (an idempotent
// renewal refreshing locked_at), or when the current lock has expired —
// an expired lock never blocks a new locker, regardless of sweeper
// timing. It fails with ErrConflict when the seat is live-locked by a
// different user, when it is booked, or when a concurrent operation
// changed the seat between the read and the transition. On success the
// seat as written is returned so callers can report the fresh deadline.
func (m *LockManager) Lock(ctx context.Context, seatID, userID uint64) (model.Seat, error) {
    seat, err := m.store.Get(ctx, seatID)
    if err != nil {
        return model.Seat{}, err
    }
    now := m.now()
    lockedAt := now

    var expect repository.SeatExpectation
    switch seat.Status {
    case model.StatusAvailable:
        expect = repository.SeatExpectation{Status: model.StatusAvailable}
    case model.StatusLocked:
        // Renewal by the holder is always allowed; a foreign lock only
        // yields when its TTL has lapsed. Either way the transition
        // expects the exact owner that was observed, so a concurrent
        // renewal or sweep turns into a conflict instead of a clobber.
        if seat.LockedBy != nil && *seat.LockedBy != userID && !seat.LockExpired(now, m.ttl) {
            return model.Seat{}, repository.ErrConflict
        }
        expect = repository.SeatExpectation{Status: model.StatusLocked, Owner: seat.LockedBy}
    default: // booked is terminal
        return model.Seat{}, repository.ErrConflict
    }

    next := repository.SeatTransition{
        Status:   model.StatusLocked,
        Owner:    &userID,
        LockedAt: &lockedAt,
    }
    if err := m.store.CompareAndTransition(ctx, seatID, expect, next); err != nil {
        return model.Seat{}, err
    }
    seat.Status = model.StatusLocked
    seat.LockedBy = &userID
    seat.LockedAt = &lockedAt
    seat.BookedBy = nil
    return seat, nil
}

// Release returns a seat to available. Only the current holder of a
// live lock may release; every other state, including an already
// expired own lock, yields ErrForbidden. The failure is deliberately
// not a conflict: nothing raced, the caller simply has no claim.
func (m *LockManager) Release(ctx context.Context, seatID, userID uint64) error {
    seat, err := m.store.Get(ctx, seatID)
    if err != nil {
        return err
    }
    now := m.now()
    if seat.Status != model.StatusLocked || seat.LockedBy == nil || *seat.LockedBy != userID || seat.LockExpired(now, m.ttl) {
        return repository.ErrForbidden
    }
    expect := repository.SeatExpectation{Status: model.StatusLocked, Owner: &userID}
    next := repository.SeatTransition{Status: model.StatusAvailable}
    return m.store.CompareAndTransition(ctx, seatID, expect, next)
}
