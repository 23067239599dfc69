package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/calendar"
	"github.com/kirinyoku/bedslot/internal/clock"
	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/events"
	"github.com/kirinyoku/bedslot/internal/repository"
	"github.com/kirinyoku/bedslot/internal/service/credit"
	"github.com/kirinyoku/bedslot/internal/service/recurring"
	"github.com/kirinyoku/bedslot/internal/session"
	"github.com/kirinyoku/bedslot/internal/uow"
)

type Service struct {
	repos     repository.Repos
	uow       *uow.UoW
	credits   *credit.Service
	recurring *recurring.Service
	timetable calendar.Timetable
	publisher events.Publisher
	clock     clock.Clock
	loc       *time.Location
	log       *slog.Logger
}

type Deps struct {
	Repos     repository.Repos
	UoW       *uow.UoW
	Credits   *credit.Service
	Recurring *recurring.Service
	Timetable calendar.Timetable
	Publisher events.Publisher
	Clock     clock.Clock
	Location  *time.Location
	Logger    *slog.Logger
}

func New(d Deps) *Service {
	return &Service{
		repos:     d.Repos,
		uow:       d.UoW,
		credits:   d.Credits,
		recurring: d.Recurring,
		timetable: d.Timetable,
		publisher: d.Publisher,
		clock:     d.Clock,
		loc:       d.Location,
		log:       d.Logger,
	}
}

func requireAdmin(sess session.Session) error {
	if !sess.IsAdmin() {
		return session.ErrForbidden
	}
	return nil
}

// RegisterClient creates a client record.
//
// Returns:
//   - domain.Client: the stored client with its new ID.
//   - error: admin.ErrInvalidClient if the name is blank.
//   - error: admin.ErrClientConflict if the email is already registered.
func (s *Service) RegisterClient(ctx context.Context, sess session.Session, c domain.Client) (domain.Client, error) {
	const op = "service.admin.RegisterClient"

	if err := requireAdmin(sess); err != nil {
		return domain.Client{}, fmt.Errorf("%s:%w", op, err)
	}

	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Client{}, fmt.Errorf("%s:%w", op, ErrInvalidClient)
	}
	c.ID = uuid.New()
	c.CreatedAt = s.clock.Now().UTC()
	if c.StudioID == "" {
		c.StudioID = sess.StudioID
	}

	if err := s.repos.Clients().Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.Client{}, fmt.Errorf("%s:%w", op, ErrClientConflict)
		}
		return domain.Client{}, fmt.Errorf("%s:%w", op, err)
	}

	return c, nil
}

// UpdateClient overwrites the editable fields of a client.
func (s *Service) UpdateClient(ctx context.Context, sess session.Session, c domain.Client) (domain.Client, error) {
	const op = "service.admin.UpdateClient"

	if err := requireAdmin(sess); err != nil {
		return domain.Client{}, fmt.Errorf("%s:%w", op, err)
	}

	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Client{}, fmt.Errorf("%s:%w", op, ErrInvalidClient)
	}

	if err := s.repos.Clients().Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.Client{}, fmt.Errorf("%s:%w", op, ErrClientNotFound)
		case errors.Is(err, repository.ErrConflict):
			return domain.Client{}, fmt.Errorf("%s:%w", op, ErrClientConflict)
		}
		return domain.Client{}, fmt.Errorf("%s:%w", op, err)
	}

	return s.GetClient(ctx, sess, c.ID)
}

func (s *Service) GetClient(ctx context.Context, sess session.Session, id uuid.UUID) (domain.Client, error) {
	const op = "service.admin.GetClient"

	if !sess.CanActFor(id) {
		return domain.Client{}, fmt.Errorf("%s:%w", op, session.ErrForbidden)
	}

	c, err := s.repos.Clients().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Client{}, fmt.Errorf("%s:%w", op, ErrClientNotFound)
		}
		return domain.Client{}, fmt.Errorf("%s:%w", op, err)
	}

	return c, nil
}

func (s *Service) ListClients(ctx context.Context, sess session.Session, limit, offset int) ([]domain.Client, error) {
	const op = "service.admin.ListClients"

	if err := requireAdmin(sess); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	list, err := s.repos.Clients().List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return list, nil
}

// SellPack records the sale of a credit pack as a new lot.
//
// Returns:
//   - error: credit.ErrInvalidPack or credit.ErrClientNotFound, wrapped.
func (s *Service) SellPack(ctx context.Context, sess session.Session, clientID uuid.UUID, p credit.Pack) (domain.CreditLot, error) {
	const op = "service.admin.SellPack"

	if err := requireAdmin(sess); err != nil {
		return domain.CreditLot{}, fmt.Errorf("%s:%w", op, err)
	}

	lot, err := s.credits.Grant(ctx, clientID, p)
	if err != nil {
		if errors.Is(err, credit.ErrClientNotFound) {
			return domain.CreditLot{}, fmt.Errorf("%s:%w", op, ErrClientNotFound)
		}
		return domain.CreditLot{}, fmt.Errorf("%s:%w", op, err)
	}

	s.log.InfoContext(ctx, "credit pack sold",
		"client_id", clientID,
		"lot_id", lot.ID,
		"credits", lot.Total,
		"expires_on", lot.ExpiresOn.Format(time.DateOnly),
	)

	return lot, nil
}

// Ledger is a client's credit position with their upcoming classes.
type Ledger struct {
	Client   domain.Client
	Balance  credit.Summary
	Upcoming []domain.Reservation
}

func (s *Service) ClientLedger(ctx context.Context, sess session.Session, clientID uuid.UUID) (Ledger, error) {
	const op = "service.admin.ClientLedger"

	c, err := s.GetClient(ctx, sess, clientID)
	if err != nil {
		return Ledger{}, fmt.Errorf("%s:%w", op, err)
	}

	bal, err := s.credits.Balance(ctx, clientID)
	if err != nil {
		return Ledger{}, fmt.Errorf("%s:%w", op, err)
	}

	today := calendar.DateOf(s.clock.Now(), s.loc)
	upcoming, err := s.repos.Reservations().ListActiveByClient(ctx, clientID, today, time.Time{})
	if err != nil {
		return Ledger{}, fmt.Errorf("%s:%w", op, err)
	}

	return Ledger{Client: c, Balance: bal, Upcoming: upcoming}, nil
}

func (s *Service) FixedSchedule(ctx context.Context, sess session.Session, clientID uuid.UUID) ([]domain.FixedScheduleEntry, error) {
	const op = "service.admin.FixedSchedule"

	if !sess.CanActFor(clientID) {
		return nil, fmt.Errorf("%s:%w", op, session.ErrForbidden)
	}

	entries, err := s.repos.Schedules().ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return entries, nil
}

// ExpireLots refreshes stored lot statuses as of today.
func (s *Service) ExpireLots(ctx context.Context, sess session.Session) (int64, error) {
	const op = "service.admin.ExpireLots"

	if err := requireAdmin(sess); err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	n, err := s.credits.ExpireLots(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}

// ScheduleEntry is a weekly commitment without its owner.
type ScheduleEntry struct {
	Weekday time.Weekday
	Time    domain.TimeOfDay
}

// EntryResult is the series booked for one entry.
type EntryResult struct {
	Entry  ScheduleEntry
	Series recurring.SeriesResult
}

type MaterializeResult struct {
	// NeedsConfirmation is set when the client's credits cover fewer dates
	// than the schedule asks for. Nothing was stored or booked.
	NeedsConfirmation bool
	Plan              recurring.Plan
	Booked            int
	Failed            int
	Entries           []EntryResult
}

// SetFixedSchedule replaces a client's weekly schedule and books every
// matching date through the end of the current month.
//
// Parameters:
//   - ctx: request-scoped context.
//   - sess: must be an admin session.
//   - clientID: client whose schedule is replaced.
//   - entries: the new schedule, booked in the given order.
//   - acceptReduced: proceed when credits cover fewer dates than planned.
//
// Returns:
//   - MaterializeResult: the bulk report, or NeedsConfirmation.
//   - error: admin.ErrInvalidSchedule if an entry is not on the timetable.
//   - error: admin.ErrScheduleConflict if an entry is repeated.
//   - error: admin.ErrClientNotFound if the client does not exist.
func (s *Service) SetFixedSchedule(
	ctx context.Context,
	sess session.Session,
	clientID uuid.UUID,
	entries []ScheduleEntry,
	acceptReduced bool,
) (MaterializeResult, error) {
	const op = "service.admin.SetFixedSchedule"

	if err := requireAdmin(sess); err != nil {
		return MaterializeResult{}, fmt.Errorf("%s:%w", op, err)
	}
	if err := s.validate(entries); err != nil {
		return MaterializeResult{}, fmt.Errorf("%s:%w", op, err)
	}

	if _, err := s.repos.Clients().Get(ctx, clientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return MaterializeResult{}, fmt.Errorf("%s:%w", op, ErrClientNotFound)
		}
		return MaterializeResult{}, fmt.Errorf("%s:%w", op, err)
	}

	// One class per day, so the plan counts each date once.
	dates := make([][]time.Time, len(entries))
	days := make(map[time.Time]struct{})
	for i, e := range entries {
		dates[i] = s.recurring.RestOfMonth(e.Weekday, e.Time)
		for _, d := range dates[i] {
			days[d] = struct{}{}
		}
	}

	plan, err := s.recurring.Plan(ctx, clientID, len(days))
	if err != nil {
		return MaterializeResult{}, fmt.Errorf("%s:%w", op, err)
	}

	result := MaterializeResult{Plan: plan}
	if plan.Reduced() && !acceptReduced {
		result.NeedsConfirmation = true
		return result, nil
	}

	stored := make([]domain.FixedScheduleEntry, len(entries))
	for i, e := range entries {
		stored[i] = domain.FixedScheduleEntry{ClientID: clientID, Weekday: e.Weekday, Time: e.Time}
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, _ func(uow.AfterCommit)) error {
		if err := tx.Schedules().Replace(ctx, clientID, stored); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return ErrClientNotFound
			case errors.Is(err, repository.ErrConflict):
				return ErrScheduleConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return MaterializeResult{}, fmt.Errorf("%s:%w", op, err)
	}

	result.Entries = make([]EntryResult, 0, len(entries))
	for i, e := range entries {
		series, err := s.recurring.BookSeries(ctx, sess, recurring.SeriesRequest{
			ClientID:      clientID,
			Dates:         dates[i],
			Time:          e.Time,
			AcceptReduced: true,
		})
		if err != nil {
			return result, fmt.Errorf("%s:%w", op, err)
		}

		result.Booked += series.Succeeded
		result.Failed += series.Failed
		result.Entries = append(result.Entries, EntryResult{Entry: e, Series: series})
	}

	s.log.InfoContext(ctx, "fixed schedule materialized",
		"client_id", clientID,
		"entries", len(entries),
		"booked", result.Booked,
		"failed", result.Failed,
	)

	ev := events.New(events.ScheduleMaterialized, clientID, s.clock.Now())
	ev.Booked = result.Booked
	ev.Failed = result.Failed
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.ErrorContext(ctx, "publish schedule event", "error", err)
	}

	return result, nil
}

func (s *Service) validate(entries []ScheduleEntry) error {
	seen := make(map[ScheduleEntry]bool, len(entries))
	for _, e := range entries {
		if e.Weekday < time.Sunday || e.Weekday > time.Saturday {
			return fmt.Errorf("%w: weekday %d", ErrInvalidSchedule, e.Weekday)
		}
		if !s.timetable.OffersOn(e.Weekday, e.Time) {
			return fmt.Errorf("%w: no class on %s at %s", ErrInvalidSchedule, e.Weekday, e.Time)
		}
		if seen[e] {
			return ErrScheduleConflict
		}
		seen[e] = true
	}
	return nil
}
