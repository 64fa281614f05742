package service

import (
    "context"
    "log"
    "time"

    "github.com/go-co-op/gocron/v2"

    "github.com/iliyamo/event-seat-booking/internal/model"
    "github.com/iliyamo/event-seat-booking/internal/repository"
)

// Sweeper is the background cleanup loop that reclaims stale locks
// whose holder never finalised or released them. It is purely a
// liveness mechanism: correctness never depends on its timing because
// lock and book evaluate expiry lazily on every attempt.
type Sweeper struct {
    store    repository.SeatStore
    ttl      time.Duration
    interval time.Duration
    now      func() time.Time
}

// NewSweeper constructs a Sweeper scanning every interval for locks
// older than ttl.
func NewSweeper(store repository.SeatStore, ttl, interval time.Duration) *Sweeper {
    if store == nil {
        panic("nil seat store passed to NewSweeper")
    }
    if ttl <= 0 {
        ttl = 60 * time.Second
    }
    if interval <= 0 {
        interval = 5 * time.Second
    }
    return &Sweeper{
        store:    store,
        ttl:      ttl,
        interval: interval,
        now:      func() time.Time { return time.Now().UTC() },
    }
}

// SweepOnce scans the seat table and releases every expired lock via
// the same compare-and-transition used by request handlers, expecting
// the exact holder that was observed. A conflict means a concurrent
// book or re-lock already moved the seat past that state; the seat is
// simply skipped until the next sweep. It returns the number of seats
// released.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
    seats, err := s.store.List(ctx)
    if err != nil {
        return 0, err
    }
    now := s.now()
    released := 0
    for _, seat := range seats {
        if !seat.LockExpired(now, s.ttl) {
            continue
        }
        expect := repository.SeatExpectation{Status: model.StatusLocked, Owner: seat.LockedBy}
        next := repository.SeatTransition{Status: model.StatusAvailable}
        if err := s.store.CompareAndTransition(ctx, seat.ID, expect, next); err != nil {
            // Expected under contention; never an error, never retried
            // within the same sweep.
            continue
        }
        released++
    }
    return released, nil
}

// Run schedules SweepOnce every interval and blocks until the context
// is cancelled. Scan failures are logged and the loop keeps going; a
// missed sweep only delays reclaim, it cannot corrupt seat state.
func (s *Sweeper) Run(ctx context.Context) error {
    sched, err := gocron.NewScheduler()
    if err != nil {
        return err
    }
    _, err = sched.NewJob(
        gocron.DurationJob(s.interval),
        gocron.NewTask(func() {
            if _, err := s.SweepOnce(ctx); err != nil {
                log.Printf("sweeper: scan failed: %v", err)
            }
        }),
        gocron.WithStartAt(gocron.WithStartImmediately()),
    )
    if err != nil {
        return err
    }
    sched.Start()
    <-ctx.Done()
    return sched.Shutdown()
}
