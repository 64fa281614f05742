package repository

import (
    "context"
    "time"

    "github.com/iliyamo/event-seat-booking/internal/model"
)

// SeatExpectation describes the state a seat must currently be in for a
// compare-and-transition to apply. When Owner is non-nil the seat's
// locked_by must match it as well; a nil Owner means the caller only
// cares about the status.
type SeatExpectation struct {
    Status model.SeatStatus
    Owner  *uint64
}

// SeatTransition describes the state a seat is moved to when the
// expectation holds. Nil pointer fields clear the corresponding column.
type SeatTransition struct {
    Status   model.SeatStatus
    Owner    *uint64
    LockedAt *time.Time
    BookedBy *uint64
}

// SeatStore is the authoritative table of seat records. It is the only
// component that mutates seat state; every higher-level operation is
// built on CompareAndTransition, which must be atomic with respect to
// all other calls against the same seat.
type SeatStore interface {
    // Get returns the seat with the given id or ErrSeatNotFound.
    Get(ctx context.Context, seatID uint64) (model.Seat, error)
    // List returns all seats ordered by id.
    List(ctx context.Context) ([]model.Seat, error)
    // CompareAndTransition atomically applies next to the seat if and
    // only if its current state matches expect. It returns
    // ErrSeatNotFound when the id does not exist and ErrConflict when
    // the expectation no longer holds; in both cases nothing is
    // mutated.
    CompareAndTransition(ctx context.Context, seatID uint64, expect SeatExpectation, next SeatTransition) error
    // Seed creates seats 1..count when the table is empty. It reports
    // whether any rows were created.
    Seed(ctx context.Context, count int) (bool, error)
    // Reset deletes every seat.
    Reset(ctx context.Context) error
}
