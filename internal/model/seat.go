package model

import "time"

// SeatStatus enumerates the lifecycle states of a seat.  A seat starts
// out available, may be temporarily locked by a single user while they
// decide, and ends up booked once the lock holder finalises.  Booked is
// a terminal state; no operation transitions a seat out of it.
type SeatStatus string

const (
    StatusAvailable SeatStatus = "available" // free for any user to lock
    StatusLocked    SeatStatus = "locked"    // claimed by locked_by until the lock expires
    StatusBooked    SeatStatus = "booked"    // permanently assigned to booked_by
)

// Seat is the unit of reservation.  Exactly one status holds at any
// instant; LockedBy and LockedAt are set together when the seat is
// locked and cleared together on release, expiry or booking.
//
// Fields:
//  ID        – primary key identifier, immutable after seeding.
//  Status    – current lifecycle state (available, locked, booked).
//  LockedBy  – user holding the lock; nil unless Status is locked.
//  LockedAt  – UTC time the current lock was acquired; nil unless locked.
//  BookedBy  – user who finalised the booking; permanent once set.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Seat struct {
    ID        uint64     // seats.id
    Status    SeatStatus // seats.status
    LockedBy  *uint64    // seats.locked_by (nullable)
    LockedAt  *time.Time // seats.locked_at (nullable)
    BookedBy  *uint64    // seats.booked_by (nullable)
    CreatedAt time.Time  // seats.created_at
    UpdatedAt time.Time  // seats.updated_at
}

// LockExpired reports whether the seat carries a lock whose TTL has
// lapsed at the given instant.  Seats that are not locked are never
// expired.  The server clock is authoritative; callers pass UTC times.
func (s Seat) LockExpired(now time.Time, ttl time.Duration) bool {
    if s.Status != StatusLocked || s.LockedAt == nil {
        return false
    }
    return now.Sub(*s.LockedAt) >= ttl
}
