package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	mongoadapter "github.com/robertarktes/show-seat-booking/internal/adapters/mongo"
	"github.com/robertarktes/show-seat-booking/internal/booking"
	"github.com/robertarktes/show-seat-booking/internal/domain"
	"github.com/robertarktes/show-seat-booking/internal/idempotency"
	"github.com/robertarktes/show-seat-booking/internal/observability"
)

// ReadinessCheck reports whether a backing service is reachable.
type ReadinessCheck func(ctx context.Context) error

// ShowCatalog serves show details. The Mongo catalog satisfies it.
type ShowCatalog interface {
	GetShow(ctx context.Context, id int64) (*mongoadapter.ShowDoc, error)
}

type Handlers struct {
	bookings *booking.Controller
	shows    ShowCatalog
	idemp    *idempotency.Idempotency
	logger   observability.Logger
	checks   map[string]ReadinessCheck
}

func NewHandlers(bookings *booking.Controller, shows ShowCatalog, idemp *idempotency.Idempotency, logger observability.Logger, checks map[string]ReadinessCheck) *Handlers {
	return &Handlers{
		bookings: bookings,
		shows:    shows,
		idemp:    idemp,
		logger:   logger,
		checks:   checks,
	}
}

func (h *Handlers) GetShow(w http.ResponseWriter, r *http.Request) {
	showID, err := strconv.ParseInt(chi.URLParam(r, "showID"), 10, 64)
	if err != nil || h.shows == nil {
		writeError(w, http.StatusNotFound, "Show not found")
		return
	}
	show, err := h.shows.GetShow(r.Context(), showID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(show)
}

type seatRequest struct {
	SeatNumber json.RawMessage `json:"seat_number"`
}

// seat returns the seat as its decimal encoding. Both 5 and "5" are accepted;
// anything else is left for the booking core to reject.
func (s seatRequest) seat() string {
	raw := bytes.TrimSpace(s.SeatNumber)
	if len(raw) > 0 && raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			return str
		}
	}
	return string(raw)
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	h.seatAction(w, r, http.StatusCreated, h.bookings.Book)
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	h.seatAction(w, r, http.StatusOK, h.bookings.Cancel)
}

type seatOp func(ctx context.Context, showID int64, seat string, userID string) (domain.Booking, error)

func (h *Handlers) seatAction(w http.ResponseWriter, r *http.Request, okStatus int, op seatOp) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	rawShowID := chi.URLParam(r, "showID")
	showID, err := strconv.ParseInt(rawShowID, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Show not found")
		return
	}

	var req seatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	seat := req.seat()

	// A key replays only the same operation on the same show; the seat is
	// compared through the fingerprint.
	key := idempotency.Scoped(r.Header.Get("Idempotency-Key"), userID, r.Method, routePattern(r), rawShowID)
	fingerprint := idempotency.Fingerprint(strings.TrimSpace(seat))

	existing, err := h.idemp.Get(ctx, key)
	if err != nil {
		h.log(ctx).WithError(err).Warn("idempotency lookup failed")
	}
	if existing != nil {
		if existing.Fingerprint != fingerprint {
			writeError(w, http.StatusUnprocessableEntity, "Idempotency-Key reused with different parameters")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(existing.Status)
		w.Write(existing.Body)
		return
	}

	b, err := op(ctx, showID, seat, userID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	data, err := json.Marshal(b)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(okStatus)
	w.Write(data)

	resp := idempotency.Response{Status: okStatus, Body: data, Fingerprint: fingerprint}
	if err := h.idemp.Set(ctx, key, resp); err != nil {
		h.log(ctx).WithError(err).Warn("idempotency store failed")
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}

func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.UserBookings(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookings)
}

func (h *Handlers) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrShowNotFound):
		writeError(w, http.StatusNotFound, "Show not found")
	case errors.Is(err, domain.ErrInvalidSeat):
		writeError(w, http.StatusBadRequest, "Invalid seat number")
	case errors.Is(err, domain.ErrSeatAlreadyBooked):
		writeError(w, http.StatusConflict, "Seat already booked")
	case errors.Is(err, domain.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "Booking not found")
	case errors.Is(err, domain.ErrBookingFailed):
		h.log(r.Context()).WithError(err).Warn("booking retries exhausted")
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "Booking failed, try again")
	default:
		h.log(r.Context()).WithError(err).Error("booking request failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func (h *Handlers) log(ctx context.Context) observability.Logger {
	return observability.LoggerFromContext(ctx, h.logger)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	var failed []string
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			h.log(r.Context()).WithError(err).WithField("check", name).Warn("readiness check failed")
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		http.Error(w, "not ready: "+strings.Join(failed, ","), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
