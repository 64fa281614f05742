package service

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-seat-booking/internal/model"
)

func TestSweepOnceReclaimsOnlyExpiredLocks(t *testing.T) {
    store := newTestStore(t, 4)
    clock := newFixedClock(time.Now())
    m := NewLockManager(store, testTTL)
    m.now = clock.Now
    f := NewBookingFinalizer(store, testTTL, nil)
    f.now = clock.Now
    s := NewSweeper(store, testTTL, time.Second)
    s.now = clock.Now

    // Seat 1: lock that will expire. Seat 2: booked. Seat 3: fresh
    // lock. Seat 4: untouched.
    _, err := m.Lock(context.Background(), 1, 10)
    require.NoError(t, err)
    _, err = m.Lock(context.Background(), 2, 11)
    require.NoError(t, err)
    _, err = f.Book(context.Background(), 2, 11)
    require.NoError(t, err)

    clock.Advance(55 * time.Second)
    _, err = m.Lock(context.Background(), 3, 12)
    require.NoError(t, err)

    clock.Advance(6 * time.Second) // seat 1 is now 61s old, seat 3 only 6s

    released, err := s.SweepOnce(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 1, released)

    seat1, err := store.Get(context.Background(), 1)
    require.NoError(t, err)
    assert.Equal(t, model.StatusAvailable, seat1.Status)
    assert.Nil(t, seat1.LockedBy)
    assert.Nil(t, seat1.LockedAt)

    seat2, err := store.Get(context.Background(), 2)
    require.NoError(t, err)
    assert.Equal(t, model.StatusBooked, seat2.Status, "booked seats are never swept")

    seat3, err := store.Get(context.Background(), 3)
    require.NoError(t, err)
    assert.Equal(t, model.StatusLocked, seat3.Status, "live locks are never swept")

    seat4, err := store.Get(context.Background(), 4)
    require.NoError(t, err)
    assert.Equal(t, model.StatusAvailable, seat4.Status)
}

func TestSweepOnceNothingToDo(t *testing.T) {
    store := newTestStore(t, 3)
    s := NewSweeper(store, testTTL, time.Second)

    released, err := s.SweepOnce(context.Background())
    require.NoError(t, err)
    assert.Zero(t, released)
}

// TestSweepSkipsSeatLostToRace races the sweeper's transition on a
// seat that a user re-locked after the scan snapshot: the sweep must
// skip it silently, leaving the new lock intact.
func TestSweepSkipsSeatLostToRace(t *testing.T) {
    store := newTestStore(t, 2)
    clock := newFixedClock(time.Now())
    m := NewLockManager(store, testTTL)
    m.now = clock.Now

    _, err := m.Lock(context.Background(), 1, 10)
    require.NoError(t, err)
    clock.Advance(61 * time.Second)

    raced := &hookStore{
        SeatStore: store,
        beforeCAS: func() {
            // A new user grabs the expired seat before the sweep's
            // transition lands.
            _, err := m.Lock(context.Background(), 1, 20)
            require.NoError(t, err)
        },
    }
    s := NewSweeper(raced, testTTL, time.Second)
    s.now = clock.Now

    released, err := s.SweepOnce(context.Background())
    require.NoError(t, err)
    assert.Zero(t, released)

    seat, err := store.Get(context.Background(), 1)
    require.NoError(t, err)
    assert.Equal(t, model.StatusLocked, seat.Status)
    require.NotNil(t, seat.LockedBy)
    assert.Equal(t, uint64(20), *seat.LockedBy)
}

func TestSweeperRunStopsOnContextCancel(t *testing.T) {
    store := newTestStore(t, 1)
    s := NewSweeper(store, testTTL, 10*time.Millisecond)

    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan error, 1)
    go func() { done <- s.Run(ctx) }()

    time.Sleep(50 * time.Millisecond)
    cancel()

    select {
    case err := <-done:
        assert.NoError(t, err)
    case <-time.After(2 * time.Second):
        t.Fatal("sweeper did not stop after cancel")
    }
}
