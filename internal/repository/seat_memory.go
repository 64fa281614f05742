package repository

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/iliyamo/event-seat-booking/internal/model"
)

// MemorySeatStore keeps the seat table in process memory behind a
// single mutex. It implements the same compare-and-transition contract
// as SeatRepo and backs the service and handler tests, which exercise
// the full state machine without a database. Callers always receive
// copies; the canonical records never escape the lock.
type MemorySeatStore struct {
    mu    sync.Mutex
    seats map[uint64]model.Seat
    now   func() time.Time
}

// NewMemorySeatStore returns an empty in-memory store.
func NewMemorySeatStore() *MemorySeatStore {
    return &MemorySeatStore{
        seats: make(map[uint64]model.Seat),
        now:   func() time.Time { return time.Now().UTC() },
    }
}

// Get returns the seat with the given id or ErrSeatNotFound.
func (m *MemorySeatStore) Get(_ context.Context, seatID uint64) (model.Seat, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.seats[seatID]
    if !ok {
        return model.Seat{}, ErrSeatNotFound
    }
    return s, nil
}

// List returns all seats ordered by id.
func (m *MemorySeatStore) List(_ context.Context) ([]model.Seat, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := make([]model.Seat, 0, len(m.seats))
    for _, s := range m.seats {
        out = append(out, s)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

// CompareAndTransition applies next while holding the store mutex, so
// the expectation check and the write are one atomic step.
func (m *MemorySeatStore) CompareAndTransition(_ context.Context, seatID uint64, expect SeatExpectation, next SeatTransition) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.seats[seatID]
    if !ok {
        return ErrSeatNotFound
    }
    if s.Status != expect.Status {
        return ErrConflict
    }
    if expect.Owner != nil && (s.LockedBy == nil || *s.LockedBy != *expect.Owner) {
        return ErrConflict
    }
    s.Status = next.Status
    s.LockedBy = copyID(next.Owner)
    s.LockedAt = copyTime(next.LockedAt)
    s.BookedBy = copyID(next.BookedBy)
    s.UpdatedAt = m.now()
    m.seats[seatID] = s
    return nil
}

// Seed creates seats 1..count when the store is empty and reports
// whether anything was created.
func (m *MemorySeatStore) Seed(_ context.Context, count int) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if len(m.seats) > 0 || count <= 0 {
        return false, nil
    }
    now := m.now()
    for i := 1; i <= count; i++ {
        m.seats[uint64(i)] = model.Seat{
            ID:        uint64(i),
            Status:    model.StatusAvailable,
            CreatedAt: now,
            UpdatedAt: now,
        }
    }
    return true, nil
}

// Reset deletes every seat.
func (m *MemorySeatStore) Reset(_ context.Context) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.seats = make(map[uint64]model.Seat)
    return nil
}

func copyID(v *uint64) *uint64 {
    if v == nil {
        return nil
    }
    c := *v
    return &c
}

func copyTime(t *time.Time) *time.Time {
    if t == nil {
        return nil
    }
    c := t.UTC()
    return &c
}
