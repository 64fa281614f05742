package handler_test

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-seat-booking/internal/handler"
    "github.com/iliyamo/event-seat-booking/internal/repository"
    "github.com/iliyamo/event-seat-booking/internal/service"
)

type seatRig struct {
    e     *echo.Echo
    h     *handler.SeatHandler
    store *repository.MemorySeatStore
}

func newSeatRig(t *testing.T, seats int, ttl time.Duration) *seatRig {
    t.Helper()
    store := repository.NewMemorySeatStore()
    if seats > 0 {
        created, err := store.Seed(context.Background(), seats)
        require.NoError(t, err)
        require.True(t, created)
    }
    locks := service.NewLockManager(store, ttl)
    booker := service.NewBookingFinalizer(store, ttl, nil)
    h := handler.NewSeatHandler(store, locks, booker, seats)
    return &seatRig{e: echo.New(), h: h, store: store}
}

// call runs an echo handler against a synthetic request for the given
// seat and user. userID 0 means unauthenticated.
func (r *seatRig) call(t *testing.T, fn echo.HandlerFunc, method string, seatID string, userID uint64) *httptest.ResponseRecorder {
    t.Helper()
    req := httptest.NewRequest(method, "/", nil)
    rec := httptest.NewRecorder()
    c := r.e.NewContext(req, rec)
    if seatID != "" {
        c.SetParamNames("id")
        c.SetParamValues(seatID)
    }
    if userID > 0 {
        c.Set("user_id", userID)
    }
    require.NoError(t, fn(c))
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
    t.Helper()
    var body map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    return body
}

func TestListSerialization(t *testing.T) {
    rig := newSeatRig(t, 3, time.Minute)
    _, err := rig.h.Locks.Lock(context.Background(), 2, 9)
    require.NoError(t, err)

    rec := rig.call(t, rig.h.List, http.MethodGet, "", 1)
    require.Equal(t, http.StatusOK, rec.Code)

    var seats []map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seats))
    require.Len(t, seats, 3)

    assert.Equal(t, float64(1), seats[0]["id"])
    assert.Equal(t, "available", seats[0]["status"])
    assert.Nil(t, seats[0]["locked_by"])
    assert.Nil(t, seats[0]["locked_at"])

    assert.Equal(t, "locked", seats[1]["status"])
    assert.Equal(t, float64(9), seats[1]["locked_by"])
    lockedAt, ok := seats[1]["locked_at"].(string)
    require.True(t, ok)
    // Timestamps carry no offset; the layout itself pins them to UTC.
    _, err = time.Parse("2006-01-02T15:04:05", lockedAt)
    assert.NoError(t, err, "locked_at %q must match the offset-free layout", lockedAt)
}

func TestListRequiresAuth(t *testing.T) {
    rig := newSeatRig(t, 1, time.Minute)
    rec := rig.call(t, rig.h.List, http.MethodGet, "", 0)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLockEndpoint(t *testing.T) {
    rig := newSeatRig(t, 3, time.Minute)

    rec := rig.call(t, rig.h.Lock, http.MethodPost, "1", 5)
    require.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, "seat locked", body["message"])

    expires, ok := body["expires_at"].(string)
    require.True(t, ok)
    deadline, err := time.Parse(time.RFC3339, expires)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().UTC().Add(time.Minute), deadline, 5*time.Second)

    seat, ok := body["seat"].(map[string]any)
    require.True(t, ok)
    assert.Equal(t, "locked", seat["status"])
    assert.Equal(t, float64(5), seat["locked_by"])
}

func TestLockConflictAndNotFound(t *testing.T) {
    rig := newSeatRig(t, 3, time.Minute)
    _, err := rig.h.Locks.Lock(context.Background(), 1, 5)
    require.NoError(t, err)

    rec := rig.call(t, rig.h.Lock, http.MethodPost, "1", 6)
    assert.Equal(t, http.StatusConflict, rec.Code)

    rec = rig.call(t, rig.h.Lock, http.MethodPost, "99", 6)
    assert.Equal(t, http.StatusNotFound, rec.Code)

    rec = rig.call(t, rig.h.Lock, http.MethodPost, "abc", 6)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = rig.call(t, rig.h.Lock, http.MethodPost, "1", 0)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReleaseEndpoint(t *testing.T) {
    rig := newSeatRig(t, 3, time.Minute)
    _, err := rig.h.Locks.Lock(context.Background(), 1, 5)
    require.NoError(t, err)

    // Someone else cannot release a lock they do not hold.
    rec := rig.call(t, rig.h.Release, http.MethodDelete, "1", 6)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    rec = rig.call(t, rig.h.Release, http.MethodDelete, "1", 5)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "lock released", decode(t, rec)["message"])

    // Released seat is immediately lockable by anyone.
    rec = rig.call(t, rig.h.Lock, http.MethodPost, "1", 6)
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBookEndpoint(t *testing.T) {
    rig := newSeatRig(t, 3, time.Minute)
    _, err := rig.h.Locks.Lock(context.Background(), 2, 5)
    require.NoError(t, err)

    rec := rig.call(t, rig.h.Book, http.MethodPost, "2", 5)
    require.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, "booking confirmed", body["message"])
    seat, ok := body["seat"].(map[string]any)
    require.True(t, ok)
    assert.Equal(t, "booked", seat["status"])
    assert.Nil(t, seat["locked_by"], "lock fields clear once booked")
    assert.Nil(t, seat["locked_at"])

    // Booked is terminal: neither locking nor re-booking works.
    rec = rig.call(t, rig.h.Lock, http.MethodPost, "2", 6)
    assert.Equal(t, http.StatusConflict, rec.Code)
    rec = rig.call(t, rig.h.Book, http.MethodPost, "2", 5)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBookWithoutHoldingLock(t *testing.T) {
    rig := newSeatRig(t, 3, time.Minute)
    _, err := rig.h.Locks.Lock(context.Background(), 1, 5)
    require.NoError(t, err)

    rec := rig.call(t, rig.h.Book, http.MethodPost, "1", 6)
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.Equal(t, "not your seat", decode(t, rec)["error"])

    rec = rig.call(t, rig.h.Book, http.MethodPost, "3", 6)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBookExpiredLockEndpoint(t *testing.T) {
    rig := newSeatRig(t, 3, 30*time.Millisecond)
    _, err := rig.h.Locks.Lock(context.Background(), 1, 5)
    require.NoError(t, err)

    time.Sleep(50 * time.Millisecond)

    rec := rig.call(t, rig.h.Book, http.MethodPost, "1", 5)
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, "lock_expired", decode(t, rec)["error"])
}

func TestInitAndReset(t *testing.T) {
    rig := newSeatRig(t, 0, time.Minute)
    rig.h.SeatCount = 5

    rec := rig.call(t, rig.h.Init, http.MethodPost, "", 1)
    require.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, float64(5), decode(t, rec)["count"])

    // Second init is a no-op.
    rec = rig.call(t, rig.h.Init, http.MethodPost, "", 1)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "seats already initialized", decode(t, rec)["message"])

    rec = rig.call(t, rig.h.Reset, http.MethodPost, "", 1)
    require.Equal(t, http.StatusOK, rec.Code)

    seats, err := rig.store.List(context.Background())
    require.NoError(t, err)
    assert.Empty(t, seats)
}
