package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/iliyamo/event-seat-booking/internal/model"
)

// SeatRepo is the MySQL-backed SeatStore. All reads and writes go
// through this type; no other component touches the seats table. The
// compare-and-transition primitive is a single conditional UPDATE so
// that concurrent callers serialise on the row without the application
// holding any broader lock. All timestamps are stored and compared in
// UTC.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying handle for callers that need to compose
// transactions across repositories.
func (r *SeatRepo) DB() *sql.DB { return r.db }

const seatColumns = "id, status, locked_by, locked_at, booked_by, created_at, updated_at"

func scanSeat(row interface{ Scan(...any) error }) (model.Seat, error) {
    var (
        s        model.Seat
        status   string
        lockedBy sql.NullInt64
        lockedAt sql.NullTime
        bookedBy sql.NullInt64
    )
    if err := row.Scan(&s.ID, &status, &lockedBy, &lockedAt, &bookedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
        return model.Seat{}, err
    }
    s.Status = model.SeatStatus(status)
    if lockedBy.Valid {
        v := uint64(lockedBy.Int64)
        s.LockedBy = &v
    }
    if lockedAt.Valid {
        t := lockedAt.Time.UTC()
        s.LockedAt = &t
    }
    if bookedBy.Valid {
        v := uint64(bookedBy.Int64)
        s.BookedBy = &v
    }
    return s, nil
}

// Get fetches a single seat by id. It returns ErrSeatNotFound when the
// id does not exist.
func (r *SeatRepo) Get(ctx context.Context, seatID uint64) (model.Seat, error) {
    row := r.db.QueryRowContext(ctx,
        "SELECT "+seatColumns+" FROM seats WHERE id = ?", seatID)
    s, err := scanSeat(row)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Seat{}, ErrSeatNotFound
        }
        return model.Seat{}, err
    }
    return s, nil
}

// List returns every seat ordered by id. Clients use this for their
// full-table refresh, so the order must be stable.
func (r *SeatRepo) List(ctx context.Context) ([]model.Seat, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT "+seatColumns+" FROM seats ORDER BY id")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    seats := make([]model.Seat, 0)
    for rows.Next() {
        s, err := scanSeat(rows)
        if err != nil {
            return nil, err
        }
        seats = append(seats, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// CompareAndTransition applies next to the seat only when its current
// status (and, when expect.Owner is set, its current locked_by) still
// matches what the caller observed. The guard lives in the WHERE clause
// of one UPDATE statement, so the check and the write are atomic with
// respect to every other call against the same row. A zero row count is
// disambiguated into ErrSeatNotFound or ErrConflict with a follow-up
// existence probe.
func (r *SeatRepo) CompareAndTransition(ctx context.Context, seatID uint64, expect SeatExpectation, next SeatTransition) error {
    var b strings.Builder
    b.WriteString(`UPDATE seats
                   SET status = ?, locked_by = ?, locked_at = ?, booked_by = ?, updated_at = UTC_TIMESTAMP(6)
                   WHERE id = ? AND status = ?`)
    args := []any{
        string(next.Status), asNullInt(next.Owner), asNullTime(next.LockedAt), asNullInt(next.BookedBy),
        seatID, string(expect.Status),
    }
    if expect.Owner != nil {
        b.WriteString(" AND locked_by = ?")
        args = append(args, *expect.Owner)
    }
    res, err := r.db.ExecContext(ctx, b.String(), args...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    // No row matched: either the seat is gone or another operation won
    // the race. Distinguish so callers can report 404 vs 409.
    var one int
    err = r.db.QueryRowContext(ctx, "SELECT 1 FROM seats WHERE id = ?", seatID).Scan(&one)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrSeatNotFound
    }
    if err != nil {
        return err
    }
    return ErrConflict
}

// Seed inserts seats 1..count in a single statement when the table is
// empty. It reports false without touching the table when any seat
// already exists, matching the idempotent init endpoint.
func (r *SeatRepo) Seed(ctx context.Context, count int) (bool, error) {
    var existing int
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM seats").Scan(&existing); err != nil {
        return false, err
    }
    if existing > 0 {
        return false, nil
    }
    if count <= 0 {
        return false, nil
    }
    var b strings.Builder
    b.WriteString("INSERT INTO seats (id, status) VALUES ")
    args := make([]any, 0, count*2)
    for i := 1; i <= count; i++ {
        if i > 1 {
            b.WriteString(",")
        }
        b.WriteString("(?, ?)")
        args = append(args, i, string(model.StatusAvailable))
    }
    if _, err := r.db.ExecContext(ctx, b.String(), args...); err != nil {
        return false, err
    }
    return true, nil
}

// Reset removes every seat.
func (r *SeatRepo) Reset(ctx context.Context) error {
    _, err := r.db.ExecContext(ctx, "DELETE FROM seats")
    return err
}

func asNullInt(v *uint64) sql.NullInt64 {
    if v == nil {
        return sql.NullInt64{}
    }
    return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func asNullTime(t *time.Time) sql.NullTime {
    if t == nil {
        return sql.NullTime{}
    }
    return sql.NullTime{Time: t.UTC(), Valid: true}
}
