package service

import (
    "context"
    "time"

    "github.com/iliyamo/event-seat-booking/internal/model"
    "github.com/iliyamo/event-seat-booking/internal/queue"
    "github.com/iliyamo/event-seat-booking/internal/repository"
)

// BookedEventPublisher publishes a notification after a booking has
// been committed. Implementations must be best-effort: a publish
// failure never affects the booking itself.
type BookedEventPublisher interface {
    PublishSeatBooked(ctx context.Context, ev queue.SeatBookedEvent)
}

// BookingFinalizer converts a held lock into a permanent booking. The
// transition is one-way: once a seat is booked no operation moves it
// back to locked or available.
type BookingFinalizer struct {
    store     repository.SeatStore
    ttl       time.Duration
    publisher BookedEventPublisher // optional
    now       func() time.Time
}

// NewBookingFinalizer constructs a BookingFinalizer. publisher may be
// nil when no broker is configured.
func NewBookingFinalizer(store repository.SeatStore, ttl time.Duration, publisher BookedEventPublisher) *BookingFinalizer {
    if store == nil {
        panic("nil seat store passed to NewBookingFinalizer")
    }
    if ttl <= 0 {
        ttl = 60 * time.Second
    }
    return &BookingFinalizer{
        store:     store,
        ttl:       ttl,
        publisher: publisher,
        now:       func() time.Time { return time.Now().UTC() },
    }
}

// Book finalises the caller's lock on a seat. It succeeds only when the
// seat is currently locked by this user and the lock is within its TTL,
// transitioning atomically to booked with booked_by set. Failures:
//
//   - ErrForbidden when the seat is available, booked, or locked by a
//     different user;
//   - ErrLockExpired when the caller's own lock exists but its TTL has
//     lapsed — clients react by acquiring a fresh lock;
//   - ErrConflict when a concurrent operation (sweep, re-lock) beat
//     this request between the read and the transition.
func (f *BookingFinalizer) Book(ctx context.Context, seatID, userID uint64) (model.Seat, error) {
    seat, err := f.store.Get(ctx, seatID)
    if err != nil {
        return model.Seat{}, err
    }
    if seat.Status != model.StatusLocked || seat.LockedBy == nil || *seat.LockedBy != userID {
        return model.Seat{}, repository.ErrForbidden
    }
    now := f.now()
    if seat.LockExpired(now, f.ttl) {
        return model.Seat{}, repository.ErrLockExpired
    }
    expect := repository.SeatExpectation{Status: model.StatusLocked, Owner: &userID}
    next := repository.SeatTransition{Status: model.StatusBooked, BookedBy: &userID}
    if err := f.store.CompareAndTransition(ctx, seatID, expect, next); err != nil {
        return model.Seat{}, err
    }
    seat.Status = model.StatusBooked
    seat.LockedBy = nil
    seat.LockedAt = nil
    seat.BookedBy = &userID

    if f.publisher != nil {
        f.publisher.PublishSeatBooked(ctx, queue.SeatBookedEvent{
            SeatID:   seatID,
            UserID:   userID,
            BookedAt: now.Format(time.RFC3339),
        })
    }
    return seat, nil
}
