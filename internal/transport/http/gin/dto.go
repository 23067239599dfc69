package httpgin

import (
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/service/credit"
	"github.com/kirinyoku/bedslot/internal/service/recurring"
)

type BookRequest struct {
	// ClientID is required for admins and ignored for clients booking for themselves.
	ClientID string `json:"client_id" binding:"omitempty,uuid"`
	Date     string `json:"date" binding:"required,datetime=2006-01-02"`
	Time     string `json:"time" binding:"required,hhmm"`
}

type CancelRequest struct {
	ConfirmLate bool `json:"confirm_late"`
}

type SeriesRequest struct {
	ClientID string `json:"client_id" binding:"omitempty,uuid"`
	// Dates lists explicit dates. When empty, Weekday is expanded through
	// the end of the current month.
	Dates         []string `json:"dates" binding:"omitempty,dive,datetime=2006-01-02"`
	Weekday       string   `json:"weekday" binding:"required_without=Dates"`
	Time          string   `json:"time" binding:"required,hhmm"`
	PreferredUnit int      `json:"preferred_unit" binding:"omitempty,min=1,max=6"`
	AcceptReduced bool     `json:"accept_reduced"`
}

type ClientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	StudioID string `json:"studio_id"`
	Shift    string `json:"shift" binding:"omitempty,oneof=morning afternoon evening"`
}

type SellPackRequest struct {
	Credits     int    `json:"credits" binding:"required,gt=0"`
	PurchasedOn string `json:"purchased_on" binding:"omitempty,datetime=2006-01-02"`
	ExpiresOn   string `json:"expires_on" binding:"required,datetime=2006-01-02"`
}

type ScheduleEntryInput struct {
	Weekday string `json:"weekday" binding:"required"`
	Time    string `json:"time" binding:"required,hhmm"`
}

type SetScheduleRequest struct {
	Entries       []ScheduleEntryInput `json:"entries" binding:"dive"`
	AcceptReduced bool                 `json:"accept_reduced"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type ReservationResponse struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Unit        int        `json:"unit"`
	LotID       string     `json:"lot_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func toReservationResponse(r domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:          r.ID.String(),
		ClientID:    r.ClientID.String(),
		Date:        r.Date.Format(time.DateOnly),
		Time:        r.Time.String(),
		Unit:        int(r.Unit),
		LotID:       r.LotID.String(),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		CancelledAt: r.CancelledAt,
	}
}

func toReservationList(list []domain.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResponse(r))
	}
	return out
}

type WarningResponse struct {
	LowBalance   bool   `json:"low_balance"`
	ExpiringSoon bool   `json:"expiring_soon"`
	Remaining    int    `json:"remaining"`
	ExpiresOn    string `json:"expires_on"`
}

func toWarningResponse(w *credit.Warning) *WarningResponse {
	if w == nil {
		return nil
	}
	return &WarningResponse{
		LowBalance:   w.LowBalance,
		ExpiringSoon: w.ExpiringSoon,
		Remaining:    w.Remaining,
		ExpiresOn:    w.ExpiresOn.Format(time.DateOnly),
	}
}

type BookResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Warning     *WarningResponse    `json:"warning,omitempty"`
}

type CancelResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Late        bool                `json:"late"`
	// Reason is set when the reservation had already been cancelled.
	Reason string `json:"reason,omitempty"`
}

type FreeUnitsResponse struct {
	Date  string          `json:"date"`
	Time  string          `json:"time"`
	Units []domain.UnitID `json:"units"`
}

type OutcomeResponse struct {
	Date          string `json:"date"`
	Reason        string `json:"reason,omitempty"`
	Message       string `json:"message,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
	Unit          int    `json:"unit,omitempty"`
}

type SeriesResponse struct {
	NeedsConfirmation bool              `json:"needs_confirmation"`
	Plan              recurring.Plan    `json:"plan"`
	Succeeded         int               `json:"succeeded"`
	Failed            int               `json:"failed"`
	Outcomes          []OutcomeResponse `json:"outcomes"`
}

func toSeriesResponse(r recurring.SeriesResult) SeriesResponse {
	out := SeriesResponse{
		NeedsConfirmation: r.NeedsConfirmation,
		Plan:              r.Plan,
		Succeeded:         r.Succeeded,
		Failed:            r.Failed,
		Outcomes:          make([]OutcomeResponse, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		or := OutcomeResponse{Date: o.Date.Format(time.DateOnly), Unit: int(o.Unit)}
		if o.OK() {
			or.ReservationID = o.ReservationID.String()
		} else {
			or.Reason = string(o.Reason)
			or.Message = o.Reason.Message()
		}
		out.Outcomes = append(out.Outcomes, or)
	}
	return out
}

type ClientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	StudioID  string    `json:"studio_id,omitempty"`
	Shift     string    `json:"shift,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toClientResponse(c domain.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		StudioID:  c.StudioID,
		Shift:     string(c.Shift),
		CreatedAt: c.CreatedAt,
	}
}

func (r ClientRequest) toDomain(id uuid.UUID) domain.Client {
	return domain.Client{
		ID:       id,
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		StudioID: r.StudioID,
		Shift:    domain.Shift(r.Shift),
	}
}

type LotResponse struct {
	ID          string `json:"id"`
	Total       int    `json:"total"`
	Remaining   int    `json:"remaining"`
	PurchasedOn string `json:"purchased_on"`
	ExpiresOn   string `json:"expires_on"`
	Status      string `json:"status"`
}

func toLotResponse(l domain.CreditLot) LotResponse {
	return LotResponse{
		ID:          l.ID.String(),
		Total:       l.Total,
		Remaining:   l.Remaining,
		PurchasedOn: l.PurchasedOn.Format(time.DateOnly),
		ExpiresOn:   l.ExpiresOn.Format(time.DateOnly),
		Status:      string(l.Status),
	}
}

type BalanceResponse struct {
	Remaining  int           `json:"remaining"`
	ActiveLots int           `json:"active_lots"`
	NextExpiry string        `json:"next_expiry,omitempty"`
	Lots       []LotResponse `json:"lots"`
}

func toBalanceResponse(s credit.Summary) BalanceResponse {
	out := BalanceResponse{
		Remaining:  s.Remaining,
		ActiveLots: s.ActiveLots,
		Lots:       make([]LotResponse, 0, len(s.Lots)),
	}
	if s.NextExpiry != nil {
		out.NextExpiry = s.NextExpiry.Format(time.DateOnly)
	}
	for _, l := range s.Lots {
		out.Lots = append(out.Lots, toLotResponse(l))
	}
	return out
}

type LedgerResponse struct {
	Client   ClientResponse        `json:"client"`
	Balance  BalanceResponse       `json:"balance"`
	Upcoming []ReservationResponse `json:"upcoming"`
}

type ScheduleEntryResponse struct {
	Weekday string `json:"weekday"`
	Time    string `json:"time"`
}

type EntrySeriesResponse struct {
	Entry  ScheduleEntryResponse `json:"entry"`
	Series SeriesResponse        `json:"series"`
}

type MaterializeResponse struct {
	NeedsConfirmation bool                  `json:"needs_confirmation"`
	Plan              recurring.Plan        `json:"plan"`
	Booked            int                   `json:"booked"`
	Failed            int                   `json:"failed"`
	Entries           []EntrySeriesResponse `json:"entries"`
}

type ExpireLotsResponse struct {
	Updated int64 `json:"updated"`
}
