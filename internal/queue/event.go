// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer for them.
package queue

// SeatBookedEvent is published when a seat booking is finalised. It
// carries enough information for downstream consumers to log, notify or
// trigger analytics without querying the primary database.
type SeatBookedEvent struct {
    SeatID   uint64 `json:"seat_id"`
    UserID   uint64 `json:"user_id"`
    BookedAt string `json:"booked_at"`
}
