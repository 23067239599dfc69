package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/calendar"
	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/service/admin"
	"github.com/kirinyoku/bedslot/internal/service/credit"
)

// @Summary  List clients
// @Security BearerAuth
// @Param    limit  query int false "page size"
// @Param    offset query int false "offset"
// @Success  200 {array} ClientResponse
// @Router   /admin/clients [get]
func (h *handlers) listClients(c *gin.Context) {
	sess, _ := sessionFrom(c)

	limit := min(parseIntDefault(c.Query("limit"), 50), 500)
	offset := max(parseIntDefault(c.Query("offset"), 0), 0)

	list, err := h.svcs.Admin.ListClients(c.Request.Context(), sess, limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}

	out := make([]ClientResponse, 0, len(list))
	for _, cl := range list {
		out = append(out, toClientResponse(cl))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary  Register a client
// @Security BearerAuth
// @Param    req body  ClientRequest true "payload"
// @Success  201 {object} ClientResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/clients [post]
func (h *handlers) registerClient(c *gin.Context) {
	sess, _ := sessionFrom(c)

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	cl, err := h.svcs.Admin.RegisterClient(c.Request.Context(), sess, req.toDomain(uuid.Nil))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, toClientResponse(cl))
}

// @Summary  Update a client
// @Security BearerAuth
// @Param    id  path  string  true  "Client ID (uuid)"
// @Param    req body  ClientRequest true "payload"
// @Success  200 {object} ClientResponse
// @Failure  404 {object} ErrorResponse
// @Router   /admin/clients/{id} [put]
func (h *handlers) updateClient(c *gin.Context) {
	sess, _ := sessionFrom(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	cl, err := h.svcs.Admin.UpdateClient(c.Request.Context(), sess, req.toDomain(id))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, toClientResponse(cl))
}

// @Summary  Client ledger: profile, credits and upcoming classes
// @Security BearerAuth
// @Param    id  path  string  true  "Client ID (uuid)"
// @Success  200 {object} LedgerResponse
// @Failure  404 {object} ErrorResponse
// @Router   /admin/clients/{id} [get]
func (h *handlers) clientLedger(c *gin.Context) {
	sess, _ := sessionFrom(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	l, err := h.svcs.Admin.ClientLedger(c.Request.Context(), sess, id)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, LedgerResponse{
		Client:   toClientResponse(l.Client),
		Balance:  toBalanceResponse(l.Balance),
		Upcoming: toReservationList(l.Upcoming),
	})
}

// @Summary  Sell a credit pack
// @Security BearerAuth
// @Param    id  path  string  true  "Client ID (uuid)"
// @Param    req body  SellPackRequest true "payload"
// @Success  201 {object} LotResponse
// @Failure  404 {object} ErrorResponse
// @Failure  422 {object} ErrorResponse
// @Router   /admin/clients/{id}/packs [post]
func (h *handlers) sellPack(c *gin.Context) {
	sess, _ := sessionFrom(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req SellPackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	pack := credit.Pack{Credits: req.Credits}
	var err error
	if req.PurchasedOn != "" {
		if pack.PurchasedOn, err = calendar.ParseDate(req.PurchasedOn); err != nil {
			badRequest(c, "invalid purchased_on (YYYY-MM-DD)")
			return
		}
	}
	if pack.ExpiresOn, err = calendar.ParseDate(req.ExpiresOn); err != nil {
		badRequest(c, "invalid expires_on (YYYY-MM-DD)")
		return
	}

	lot, err := h.svcs.Admin.SellPack(c.Request.Context(), sess, id, pack)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, toLotResponse(lot))
}

// @Summary  Get a client's fixed schedule
// @Security BearerAuth
// @Param    id  path  string  true  "Client ID (uuid)"
// @Success  200 {array} ScheduleEntryResponse
// @Router   /admin/clients/{id}/schedule [get]
func (h *handlers) getSchedule(c *gin.Context) {
	sess, _ := sessionFrom(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.svcs.Admin.FixedSchedule(c.Request.Context(), sess, id)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, toScheduleResponse(entries))
}

// @Summary  Replace a client's fixed schedule and book the rest of the month
// @Security BearerAuth
// @Param    id  path  string  true  "Client ID (uuid)"
// @Param    req body  SetScheduleRequest true "payload"
// @Success  200 {object} MaterializeResponse "needs_confirmation=true when credits fall short"
// @Failure  409 {object} ErrorResponse
// @Failure  422 {object} ErrorResponse
// @Router   /admin/clients/{id}/schedule [put]
func (h *handlers) setSchedule(c *gin.Context) {
	sess, _ := sessionFrom(c)

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	entries := make([]admin.ScheduleEntry, 0, len(req.Entries))
	for _, in := range req.Entries {
		wd, err := calendar.ParseWeekday(in.Weekday)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		tod, err := domain.ParseTimeOfDay(in.Time)
		if err != nil {
			badRequest(c, "invalid time (HH:MM)")
			return
		}
		entries = append(entries, admin.ScheduleEntry{Weekday: wd, Time: tod})
	}

	res, err := h.svcs.Admin.SetFixedSchedule(c.Request.Context(), sess, id, entries, req.AcceptReduced)
	if err != nil {
		respondErr(c, err)
		return
	}

	out := MaterializeResponse{
		NeedsConfirmation: res.NeedsConfirmation,
		Plan:              res.Plan,
		Booked:            res.Booked,
		Failed:            res.Failed,
		Entries:           make([]EntrySeriesResponse, 0, len(res.Entries)),
	}
	for _, e := range res.Entries {
		out.Entries = append(out.Entries, EntrySeriesResponse{
			Entry: ScheduleEntryResponse{
				Weekday: weekdayName(e.Entry.Weekday),
				Time:    e.Entry.Time.String(),
			},
			Series: toSeriesResponse(e.Series),
		})
	}

	c.JSON(http.StatusOK, out)
}

// @Summary  Refresh credit lot statuses
// @Security BearerAuth
// @Success  200 {object} ExpireLotsResponse
// @Router   /admin/lots/expire [post]
func (h *handlers) expireLots(c *gin.Context) {
	sess, _ := sessionFrom(c)

	n, err := h.svcs.Admin.ExpireLots(c.Request.Context(), sess)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, ExpireLotsResponse{Updated: n})
}
