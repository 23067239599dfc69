// Package recurring expands weekly commitments into dates and books them one
// by one.
package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/calendar"
	"github.com/kirinyoku/bedslot/internal/clock"
	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/repository"
	"github.com/kirinyoku/bedslot/internal/service/credit"
	"github.com/kirinyoku/bedslot/internal/service/reservation"
	"github.com/kirinyoku/bedslot/internal/session"
)

// Expand returns every date on weekday from start through horizonEnd,
// inclusive, ascending. It is empty when the horizon ends before the first
// match.
func Expand(start time.Time, weekday time.Weekday, horizonEnd time.Time) []time.Time {
	var dates []time.Time
	for d := calendar.NextWeekday(start, weekday); !d.After(horizonEnd); d = d.AddDate(0, 0, 7) {
		dates = append(dates, d)
	}
	return dates
}

// Booker books a single slot.
type Booker interface {
	Book(ctx context.Context, sess session.Session, req reservation.BookRequest) (reservation.BookResult, error)
}

type Service struct {
	repos  repository.Repos
	booker Booker
	clock  clock.Clock
	loc    *time.Location
	log    *slog.Logger
}

func New(repos repository.Repos, booker Booker, clk clock.Clock, loc *time.Location, log *slog.Logger) *Service {
	return &Service{
		repos:  repos,
		booker: booker,
		clock:  clk,
		loc:    loc,
		log:    log,
	}
}

// RestOfMonth expands weekday from today through the end of the current
// month, leaving out dates whose class at tod has already started.
func (s *Service) RestOfMonth(weekday time.Weekday, tod domain.TimeOfDay) []time.Time {
	now := s.clock.Now()
	today := calendar.DateOf(now, s.loc)

	var dates []time.Time
	for _, d := range Expand(today, weekday, calendar.EndOfMonth(today)) {
		if calendar.SlotStart(d, tod, s.loc).After(now) {
			dates = append(dates, d)
		}
	}
	return dates
}

// Plan compares the number of requested dates with the credits the client
// holds today.
type Plan struct {
	Requested   int `json:"requested"`
	MaxBookable int `json:"max_bookable"`
	Credits     int `json:"credits"`
}

// Reduced reports whether fewer dates can be booked than were requested.
func (p Plan) Reduced() bool {
	return p.MaxBookable < p.Requested
}

func (s *Service) Plan(ctx context.Context, clientID uuid.UUID, requested int) (Plan, error) {
	const op = "service.recurring.Plan"

	lots, err := s.repos.Credits().ListByClient(ctx, clientID)
	if err != nil {
		return Plan{}, fmt.Errorf("%s:%w", op, err)
	}

	remaining := credit.TotalRemaining(lots, calendar.DateOf(s.clock.Now(), s.loc))

	return Plan{
		Requested:   requested,
		MaxBookable: min(requested, remaining),
		Credits:     remaining,
	}, nil
}

type SeriesRequest struct {
	ClientID      uuid.UUID
	Dates         []time.Time
	Time          domain.TimeOfDay
	PreferredUnit domain.UnitID
	// AcceptReduced lets the series run when credits cover fewer dates than
	// requested.
	AcceptReduced bool
}

type Outcome struct {
	Date          time.Time          `json:"date"`
	Reason        reservation.Reason `json:"reason,omitempty"`
	ReservationID uuid.UUID          `json:"reservation_id,omitempty"`
	Unit          domain.UnitID      `json:"unit,omitempty"`
}

func (o Outcome) OK() bool {
	return o.Reason == ""
}

type SeriesResult struct {
	// NeedsConfirmation is set when nothing was booked because the plan
	// was reduced and the caller did not accept it.
	NeedsConfirmation bool      `json:"needs_confirmation"`
	Plan              Plan      `json:"plan"`
	Succeeded         int       `json:"succeeded"`
	Failed            int       `json:"failed"`
	Outcomes          []Outcome `json:"outcomes"`
}

// BookSeries books every date of req at the same time, each in its own
// transaction. A failed date never stops the series; a cancelled context
// does.
//
// Parameters:
//   - ctx: request-scoped context.
//   - sess: the caller's session.
//   - req: dates, time, preferred unit, and the confirmation flag.
//
// Returns:
//   - SeriesResult: per-date outcomes, or NeedsConfirmation.
//   - error: the context error when the series was interrupted, or a store
//     failure while planning.
func (s *Service) BookSeries(ctx context.Context, sess session.Session, req SeriesRequest) (SeriesResult, error) {
	const op = "service.recurring.BookSeries"

	clientID, err := sess.ResolveClient(req.ClientID)
	if err != nil {
		return SeriesResult{}, fmt.Errorf("%s:%w", op, err)
	}

	plan, err := s.Plan(ctx, clientID, len(req.Dates))
	if err != nil {
		return SeriesResult{}, fmt.Errorf("%s:%w", op, err)
	}

	result := SeriesResult{Plan: plan}
	if plan.Reduced() && !req.AcceptReduced {
		result.NeedsConfirmation = true
		return result, nil
	}

	return s.run(ctx, sess, clientID, req, result)
}

func (s *Service) run(
	ctx context.Context,
	sess session.Session,
	clientID uuid.UUID,
	req SeriesRequest,
	result SeriesResult,
) (SeriesResult, error) {
	const op = "service.recurring.run"

	sticky := req.PreferredUnit
	result.Outcomes = make([]Outcome, 0, len(req.Dates))

	for _, date := range req.Dates {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%s:%w", op, err)
		}

		out := Outcome{Date: date}

		res, err := s.booker.Book(ctx, sess, reservation.BookRequest{
			ClientID:      clientID,
			Date:          date,
			Time:          req.Time,
			Policy:        reservation.StickyUnit,
			PreferredUnit: sticky,
		})
		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, fmt.Errorf("%s:%w", op, err)
			}
			s.log.ErrorContext(ctx, "series booking failed",
				"client_id", clientID,
				"date", date.Format(time.DateOnly),
				"error", err,
			)
			out.Reason = reservation.Unavailable
		case !res.OK():
			out.Reason = res.Reason
		default:
			out.ReservationID = res.Reservation.ID
			out.Unit = res.Reservation.Unit
			if sticky == 0 {
				sticky = res.Reservation.Unit
			}
		}

		if out.OK() {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, out)
	}

	return result, nil
}
