package handler

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-seat-booking/internal/model"
    "github.com/iliyamo/event-seat-booking/internal/repository"
    "github.com/iliyamo/event-seat-booking/internal/service"
)

// SeatHandler maps the HTTP seat surface onto the lock manager and the
// booking finalizer. All methods assume JWT authentication has already
// run, so the resolved user id is available in the context; they return
// 401 when it is missing. The handler itself holds no seat state and
// performs no retries — every outcome, including lost races, is
// reported to the caller with a distinguishable status.
type SeatHandler struct {
    Store     repository.SeatStore      // read access for the list endpoint and seeding
    Locks     *service.LockManager      // lock acquire/renew/release
    Booker    *service.BookingFinalizer // lock-to-booking conversion
    SeatCount int                       // seats created by Init
}

// NewSeatHandler constructs a SeatHandler. All dependencies must be
// non-nil.
func NewSeatHandler(store repository.SeatStore, locks *service.LockManager, booker *service.BookingFinalizer, seatCount int) *SeatHandler {
    if store == nil || locks == nil || booker == nil {
        panic("nil dependency passed to NewSeatHandler")
    }
    return &SeatHandler{Store: store, Locks: locks, Booker: booker, SeatCount: seatCount}
}

// seatOut is the wire representation of a seat. locked_at is rendered
// as a UTC timestamp without an explicit offset; consumers must assume
// UTC.
type seatOut struct {
    ID       uint64  `json:"id"`
    Status   string  `json:"status"`
    LockedBy *uint64 `json:"locked_by"`
    LockedAt *string `json:"locked_at"`
}

const lockedAtLayout = "2006-01-02T15:04:05"

func toSeatOut(s model.Seat) seatOut {
    out := seatOut{
        ID:       s.ID,
        Status:   string(s.Status),
        LockedBy: s.LockedBy,
    }
    if s.LockedAt != nil {
        v := s.LockedAt.UTC().Format(lockedAtLayout)
        out.LockedAt = &v
    }
    return out
}

// getUserID extracts the authenticated user id stored by the JWT
// middleware.
func getUserID(c echo.Context) (uint64, error) {
    if v, ok := c.Get("user_id").(uint64); ok && v > 0 {
        return v, nil
    }
    return 0, errors.New("invalid user_id in context")
}

// seatParam parses the :id path parameter.
func seatParam(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid seat id")
    }
    return id, nil
}

// List handles GET /seats. It returns the full seat table in stable id
// order; polling clients re-render from this response.
func (h *SeatHandler) List(c echo.Context) error {
    if _, err := getUserID(c); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    seats, err := h.Store.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
    }
    out := make([]seatOut, 0, len(seats))
    for _, s := range seats {
        out = append(out, toSeatOut(s))
    }
    return c.JSON(http.StatusOK, out)
}

// Lock handles POST /seats/:id/lock. A fresh lock and a renewal by the
// current holder both succeed and refresh the hold window; the response
// carries the new expiry so clients can display a countdown. A seat
// held by someone else (and not yet expired) or already booked yields
// 409.
func (h *SeatHandler) Lock(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    seatID, err := seatParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
    }
    seat, err := h.Locks.Lock(c.Request().Context(), seatID, userID)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrSeatNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
        case errors.Is(err, repository.ErrConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "seat unavailable"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to lock seat"})
        }
    }
    expiresAt := seat.LockedAt.Add(h.Locks.TTL()).UTC()
    return c.JSON(http.StatusOK, echo.Map{
        "message":    "seat locked",
        "seat":       toSeatOut(seat),
        "expires_at": expiresAt.Format(time.RFC3339),
    })
}

// Release handles DELETE /seats/:id/lock. Only the current holder of a
// live lock may release it; anyone else, including the holder of an
// already expired lock, gets 403.
func (h *SeatHandler) Release(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    seatID, err := seatParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
    }
    if err := h.Locks.Release(c.Request().Context(), seatID, userID); err != nil {
        switch {
        case errors.Is(err, repository.ErrSeatNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "not your lock"})
        case errors.Is(err, repository.ErrConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "seat state changed"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release seat"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "lock released"})
}

// Book handles POST /seats/:id/book. Booking succeeds only for the
// current lock holder within the hold window. An expired lock is
// reported as lock_expired (409) so the client can re-lock, which is a
// different situation from forbidden (403, not the holder at all).
func (h *SeatHandler) Book(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    seatID, err := seatParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
    }
    seat, err := h.Booker.Book(c.Request().Context(), seatID, userID)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrSeatNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "not your seat"})
        case errors.Is(err, repository.ErrLockExpired):
            return c.JSON(http.StatusConflict, echo.Map{"error": "lock_expired"})
        case errors.Is(err, repository.ErrConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to book seat"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "booking confirmed",
        "seat":    toSeatOut(seat),
    })
}

// Init handles POST /seats/init. It seeds the seat table with
// SeatCount seats when empty and is otherwise a no-op, so repeated
// calls are safe.
func (h *SeatHandler) Init(c echo.Context) error {
    if _, err := getUserID(c); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    created, err := h.Store.Seed(c.Request().Context(), h.SeatCount)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to seed seats"})
    }
    if !created {
        return c.JSON(http.StatusOK, echo.Map{"message": "seats already initialized"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message": "seats created",
        "count":   h.SeatCount,
    })
}

// Reset handles POST /seats/reset. It deletes every seat.
func (h *SeatHandler) Reset(c echo.Context) error {
    if _, err := getUserID(c); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Store.Reset(c.Request().Context()); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reset seats"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "all seats deleted"})
}
