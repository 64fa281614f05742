package service

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-seat-booking/internal/model"
    "github.com/iliyamo/event-seat-booking/internal/queue"
    "github.com/iliyamo/event-seat-booking/internal/repository"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
    mu     sync.Mutex
    events []queue.SeatBookedEvent
}

func (p *recordingPublisher) PublishSeatBooked(_ context.Context, ev queue.SeatBookedEvent) {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
}

func (p *recordingPublisher) all() []queue.SeatBookedEvent {
    p.mu.Lock()
    defer p.mu.Unlock()
    return append([]queue.SeatBookedEvent(nil), p.events...)
}

// hookStore wraps a SeatStore and runs a callback just before a
// compare-and-transition, simulating an operation that sneaks in
// between a service's read and its write.
type hookStore struct {
    repository.SeatStore
    beforeCAS func()
}

func (h *hookStore) CompareAndTransition(ctx context.Context, seatID uint64, expect repository.SeatExpectation, next repository.SeatTransition) error {
    if h.beforeCAS != nil {
        h.beforeCAS()
    }
    return h.SeatStore.CompareAndTransition(ctx, seatID, expect, next)
}

func TestBookLockedSeat(t *testing.T) {
    store := newTestStore(t, 3)
    clock := newFixedClock(time.Now())
    m := NewLockManager(store, testTTL)
    m.now = clock.Now
    pub := &recordingPublisher{}
    f := NewBookingFinalizer(store, testTTL, pub)
    f.now = clock.Now

    _, err := m.Lock(context.Background(), 2, 7)
    require.NoError(t, err)

    seat, err := f.Book(context.Background(), 2, 7)
    require.NoError(t, err)
    assert.Equal(t, model.StatusBooked, seat.Status)
    require.NotNil(t, seat.BookedBy)
    assert.Equal(t, uint64(7), *seat.BookedBy)
    assert.Nil(t, seat.LockedBy, "lock fields clear on booking")
    assert.Nil(t, seat.LockedAt)

    events := pub.all()
    require.Len(t, events, 1)
    assert.Equal(t, uint64(2), events[0].SeatID)
    assert.Equal(t, uint64(7), events[0].UserID)
}

func TestBookWithoutLock(t *testing.T) {
    store := newTestStore(t, 3)
    f := NewBookingFinalizer(store, testTTL, nil)

    _, err := f.Book(context.Background(), 1, 7)
    assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestBookSomeoneElsesLock(t *testing.T) {
    store := newTestStore(t, 3)
    clock := newFixedClock(time.Now())
    m := NewLockManager(store, testTTL)
    m.now = clock.Now
    f := NewBookingFinalizer(store, testTTL, nil)
    f.now = clock.Now

    _, err := m.Lock(context.Background(), 1, 7)
    require.NoError(t, err)

    _, err = f.Book(context.Background(), 1, 8)
    assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestBookExpiredLock(t *testing.T) {
    store := newTestStore(t, 3)
    clock := newFixedClock(time.Now())
    m := NewLockManager(store, testTTL)
    m.now = clock.Now
    pub := &recordingPublisher{}
    f := NewBookingFinalizer(store, testTTL, pub)
    f.now = clock.Now

    _, err := m.Lock(context.Background(), 1, 7)
    require.NoError(t, err)

    clock.Advance(61 * time.Second)
    _, err = f.Book(context.Background(), 1, 7)
    assert.ErrorIs(t, err, repository.ErrLockExpired)
    assert.Empty(t, pub.all(), "no event for a failed booking")

    // The seat itself is untouched until someone re-locks or the
    // sweeper reclaims it.
    seat, err := store.Get(context.Background(), 1)
    require.NoError(t, err)
    assert.Equal(t, model.StatusLocked, seat.Status)
}

func TestBookAlreadyBookedSeat(t *testing.T) {
    store := newTestStore(t, 3)
    clock := newFixedClock(time.Now())
    m := NewLockManager(store, testTTL)
    m.now = clock.Now
    f := NewBookingFinalizer(store, testTTL, nil)
    f.now = clock.Now

    _, err := m.Lock(context.Background(), 1, 7)
    require.NoError(t, err)
    _, err = f.Book(context.Background(), 1, 7)
    require.NoError(t, err)

    _, err = f.Book(context.Background(), 1, 7)
    assert.ErrorIs(t, err, repository.ErrForbidden)
    _, err = f.Book(context.Background(), 1, 8)
    assert.ErrorIs(t, err, repository.ErrForbidden)
}

// TestBookLosesRaceToSweep interleaves a sweep between the finalizer's
// read and its transition; the stale booking attempt must surface as a
// conflict, never as a booking over a reclaimed seat.
func TestBookLosesRaceToSweep(t *testing.T) {
    store := newTestStore(t, 3)
    clock := newFixedClock(time.Now())
    m := NewLockManager(store, testTTL)
    m.now = clock.Now

    _, err := m.Lock(context.Background(), 1, 7)
    require.NoError(t, err)

    raced := &hookStore{
        SeatStore: store,
        beforeCAS: func() {
            // The lock expires and the sweeper reclaims the seat while
            // the booking request is in flight.
            owner := uint64(7)
            err := store.CompareAndTransition(context.Background(), 1,
                repository.SeatExpectation{Status: model.StatusLocked, Owner: &owner},
                repository.SeatTransition{Status: model.StatusAvailable})
            require.NoError(t, err)
        },
    }
    f := NewBookingFinalizer(raced, testTTL, nil)
    f.now = clock.Now

    _, err = f.Book(context.Background(), 1, 7)
    assert.ErrorIs(t, err, repository.ErrConflict)

    seat, err := store.Get(context.Background(), 1)
    require.NoError(t, err)
    assert.Equal(t, model.StatusAvailable, seat.Status)
    assert.Nil(t, seat.BookedBy)
}
