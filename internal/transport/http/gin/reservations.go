package httpgin

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/calendar"
	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/service/recurring"
	"github.com/kirinyoku/bedslot/internal/service/reservation"
	"github.com/kirinyoku/bedslot/internal/session"
)

// @Summary  Book a bed (idempotent)
// @Security BearerAuth
// @Param    req body  BookRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} BookResponse
// @Failure  400 {object} ErrorResponse
// @Failure  402 {object} ErrorResponse "no credit available"
// @Failure  409 {object} ErrorResponse "slot full / duplicate booking / conflict"
// @Failure  422 {object} ErrorResponse "slot in past / not offered"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /reservations [post]
func (h *handlers) book(c *gin.Context) {
	sess, _ := sessionFrom(c)

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		badRequest(c, "invalid date (YYYY-MM-DD)")
		return
	}
	tod, err := domain.ParseTimeOfDay(req.Time)
	if err != nil {
		badRequest(c, "invalid time (HH:MM)")
		return
	}
	var clientID uuid.UUID
	if req.ClientID != "" {
		clientID = uuid.MustParse(req.ClientID)
	}

	target, err := sess.ResolveClient(clientID)
	if err != nil {
		respondReason(c, reservation.Forbidden)
		return
	}

	idemKey, proceed := h.claimIdempotent(c, "book", target, req)
	if !proceed {
		return
	}

	res, err := h.svcs.Reservation.Book(c.Request.Context(), sess, reservation.BookRequest{
		ClientID: target,
		Date:     date,
		Time:     tod,
		Policy:   reservation.RandomUnit,
	})
	if err != nil {
		h.abandonIdempotent(c, idemKey)
		respondErr(c, err)
		return
	}
	if !res.OK() {
		h.abandonIdempotent(c, idemKey)
		respondReason(c, res.Reason)
		return
	}

	resp := BookResponse{
		Reservation: toReservationResponse(res.Reservation),
		Warning:     toWarningResponse(res.Warning),
	}

	h.completeIdempotent(c, idemKey, http.StatusCreated, resp)
	c.JSON(http.StatusCreated, resp)
}

// @Summary  Book a weekly series
// @Description Books every date in dates, or every weekday through the end of the month.
// @Security BearerAuth
// @Param    req body  SeriesRequest true "payload"
// @Success  200 {object} SeriesResponse
// @Failure  400 {object} ErrorResponse
// @Router   /reservations/series [post]
func (h *handlers) bookSeries(c *gin.Context) {
	sess, _ := sessionFrom(c)

	var req SeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	tod, err := domain.ParseTimeOfDay(req.Time)
	if err != nil {
		badRequest(c, "invalid time (HH:MM)")
		return
	}

	var dates []time.Time
	if len(req.Dates) > 0 {
		for _, raw := range req.Dates {
			d, err := calendar.ParseDate(raw)
			if err != nil {
				badRequest(c, "invalid date (YYYY-MM-DD)")
				return
			}
			dates = append(dates, d)
		}
	} else {
		wd, err := calendar.ParseWeekday(req.Weekday)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		dates = h.svcs.Recurring.RestOfMonth(wd, tod)
	}

	var clientID uuid.UUID
	if req.ClientID != "" {
		clientID = uuid.MustParse(req.ClientID)
	}
	target, err := sess.ResolveClient(clientID)
	if err != nil {
		respondErr(c, err)
		return
	}

	idemKey, proceed := h.claimIdempotent(c, "series", target, req)
	if !proceed {
		return
	}

	res, err := h.svcs.Recurring.BookSeries(c.Request.Context(), sess, recurring.SeriesRequest{
		ClientID:      target,
		Dates:         dates,
		Time:          tod,
		PreferredUnit: domain.UnitID(req.PreferredUnit),
		AcceptReduced: req.AcceptReduced,
	})
	if err != nil {
		h.abandonIdempotent(c, idemKey)
		respondErr(c, err)
		return
	}

	resp := toSeriesResponse(res)
	if res.NeedsConfirmation {
		// Nothing was booked; the confirmed retry may reuse the key.
		h.abandonIdempotent(c, idemKey)
	} else {
		h.completeIdempotent(c, idemKey, http.StatusOK, resp)
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary  Cancel a reservation
// @Security BearerAuth
// @Param    id  path  string  true  "Reservation ID (uuid)"
// @Param    req body  CancelRequest false "payload"
// @Success  200 {object} CancelResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "already occurred"
// @Failure  428 {object} ErrorResponse "late cancellation needs confirm_late"
// @Router   /reservations/{id}/cancel [post]
func (h *handlers) cancel(c *gin.Context) {
	sess, _ := sessionFrom(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if c.Query("confirm_late") == "true" {
		req.ConfirmLate = true
	}

	res, err := h.svcs.Reservation.Cancel(c.Request.Context(), sess, id, reservation.CancelOptions{
		ConfirmLate: req.ConfirmLate,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	if !res.OK() {
		respondReason(c, res.Reason)
		return
	}

	c.JSON(http.StatusOK, CancelResponse{
		Reservation: toReservationResponse(res.Reservation),
		Late:        res.Late,
		Reason:      string(res.Reason),
	})
}

// @Summary  Get a reservation
// @Security BearerAuth
// @Param    id  path  string  true  "Reservation ID (uuid)"
// @Success  200 {object} ReservationResponse
// @Failure  404 {object} ErrorResponse
// @Router   /reservations/{id} [get]
func (h *handlers) getReservation(c *gin.Context) {
	sess, _ := sessionFrom(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	res, reason, err := h.svcs.Reservation.Get(c.Request.Context(), sess, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if reason != "" {
		respondReason(c, reason)
		return
	}

	c.JSON(http.StatusOK, toReservationResponse(res))
}

// @Summary  My upcoming reservations
// @Security BearerAuth
// @Success  200 {array} ReservationResponse
// @Router   /me/reservations [get]
func (h *handlers) myReservations(c *gin.Context) {
	sess, _ := sessionFrom(c)

	list, err := h.svcs.Reservation.ListUpcoming(c.Request.Context(), sess, uuid.Nil)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, toReservationList(list))
}

// @Summary  My credit balance
// @Security BearerAuth
// @Success  200 {object} BalanceResponse
// @Router   /me/credits [get]
func (h *handlers) myCredits(c *gin.Context) {
	sess, _ := sessionFrom(c)
	if sess.ClientID == uuid.Nil {
		respondErr(c, session.ErrForbidden)
		return
	}

	sum, err := h.svcs.Credits.Balance(c.Request.Context(), sess.ClientID)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, toBalanceResponse(sum))
}

// @Summary  My fixed weekly schedule
// @Security BearerAuth
// @Success  200 {array} ScheduleEntryResponse
// @Router   /me/schedule [get]
func (h *handlers) mySchedule(c *gin.Context) {
	sess, _ := sessionFrom(c)

	entries, err := h.svcs.Admin.FixedSchedule(c.Request.Context(), sess, sess.ClientID)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, toScheduleResponse(entries))
}

func toScheduleResponse(entries []domain.FixedScheduleEntry) []ScheduleEntryResponse {
	out := make([]ScheduleEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ScheduleEntryResponse{
			Weekday: weekdayName(e.Weekday),
			Time:    e.Time.String(),
		})
	}
	return out
}

func weekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String()[:3])
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
