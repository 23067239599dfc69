package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/calendar"
	"github.com/kirinyoku/bedslot/internal/clock"
	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/events"
	"github.com/kirinyoku/bedslot/internal/repository"
	redisrepo "github.com/kirinyoku/bedslot/internal/repository/redis"
	"github.com/kirinyoku/bedslot/internal/service/availability"
	"github.com/kirinyoku/bedslot/internal/service/credit"
	"github.com/kirinyoku/bedslot/internal/session"
	"github.com/kirinyoku/bedslot/internal/uow"
)

// SlotFeed broadcasts slot changes to realtime subscribers.
type SlotFeed interface {
	PublishSlotChanged(ctx context.Context, kind string, slot domain.Slot) error
}

type Config struct {
	// LateCancelWindow is how close to the start a cancellation needs an
	// explicit confirmation.
	LateCancelWindow time.Duration
}

type Service struct {
	repos        repository.Repos
	uow          *uow.UoW
	availability *availability.Service
	credits      *credit.Service
	timetable    calendar.Timetable
	feed         SlotFeed
	publisher    events.Publisher
	clock        clock.Clock
	loc          *time.Location
	log          *slog.Logger
	intn         func(n int) int
	cfg          Config
}

type Deps struct {
	Repos        repository.Repos
	UoW          *uow.UoW
	Availability *availability.Service
	Credits      *credit.Service
	Timetable    calendar.Timetable
	Feed         SlotFeed
	Publisher    events.Publisher
	Clock        clock.Clock
	Location     *time.Location
	Logger       *slog.Logger
}

func New(d Deps, cfg Config) *Service {
	if cfg.LateCancelWindow <= 0 {
		cfg.LateCancelWindow = 2 * time.Hour
	}

	return &Service{
		repos:        d.Repos,
		uow:          d.UoW,
		availability: d.Availability,
		credits:      d.Credits,
		timetable:    d.Timetable,
		feed:         d.Feed,
		publisher:    d.Publisher,
		clock:        d.Clock,
		loc:          d.Location,
		log:          d.Logger,
		intn:         rand.IntN,
		cfg:          cfg,
	}
}

// WithRand replaces the source used to pick a random unit.
func (s *Service) WithRand(intn func(n int) int) *Service {
	s.intn = intn
	return s
}

// UnitPolicy decides which free unit a booking takes.
type UnitPolicy int

const (
	// RandomUnit spreads single bookings uniformly over the free units.
	RandomUnit UnitPolicy = iota
	// StickyUnit keeps the preferred unit when free, else takes the lowest
	// free one. Recurring bookings use it to keep a client on the same bed.
	StickyUnit
)

type BookRequest struct {
	// ClientID defaults to the session's client.
	ClientID      uuid.UUID
	Date          time.Time
	Time          domain.TimeOfDay
	Policy        UnitPolicy
	PreferredUnit domain.UnitID
}

type BookResult struct {
	Reservation domain.Reservation
	Reason      Reason
	Warning     *credit.Warning
}

func (r BookResult) OK() bool {
	return r.Reason == ""
}

// Book reserves one bed for the client and charges one credit, in a single
// transaction.
//
// Parameters:
//   - ctx: request-scoped context.
//   - sess: the caller's session.
//   - req: slot and unit policy.
//
// Returns:
//   - BookResult: the reservation, or the Reason it was rejected.
//   - error: only when the store fails.
func (s *Service) Book(ctx context.Context, sess session.Session, req BookRequest) (BookResult, error) {
	const op = "service.reservation.Book"

	clientID, err := sess.ResolveClient(req.ClientID)
	if err != nil {
		return BookResult{Reason: Forbidden}, nil
	}

	if !s.timetable.Offers(req.Date, req.Time) {
		return BookResult{Reason: SlotNotOffered}, nil
	}
	if s.availability.Started(req.Date, req.Time) {
		return BookResult{Reason: SlotInPast}, nil
	}

	slot := domain.Slot{Date: req.Date, Time: req.Time}

	var (
		booked  domain.Reservation
		charged domain.CreditLot
	)

	err = s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Repos,
		after func(uow.AfterCommit),
	) error {
		if _, err := tx.Clients().Get(ctx, clientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return reject(ClientNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		sameDay, err := tx.Reservations().ListActiveByClient(ctx, clientID, req.Date, req.Date)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if len(sameDay) > 0 {
			return reject(DuplicateDayBooking)
		}

		occupied, err := tx.Reservations().ListActiveBySlot(ctx, slot)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		for _, r := range occupied {
			if r.ClientID == clientID {
				return reject(DuplicateSlotBooking)
			}
		}

		free := availability.FreeUnits(occupied)
		if len(free) == 0 {
			return reject(SlotFull)
		}

		lot, ok, err := s.credits.Select(ctx, tx, clientID, req.Date)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return reject(NoCreditAvailable)
		}

		res := domain.Reservation{
			ID:        uuid.New(),
			ClientID:  clientID,
			Date:      req.Date,
			Time:      req.Time,
			Unit:      s.pickUnit(free, req),
			LotID:     lot.ID,
			Status:    domain.ReservationConfirmed,
			CreatedAt: s.clock.Now().UTC(),
		}

		if err := tx.Reservations().Insert(ctx, res); err != nil {
			switch {
			case errors.Is(err, repository.ErrConflict):
				return reject(ConcurrentConflict)
			case errors.Is(err, repository.ErrDuplicateDay):
				return reject(DuplicateDayBooking)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		charged, err = s.credits.Decrement(ctx, tx, lot.ID)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientCredit) {
				return reject(NoCreditAvailable)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		booked = res

		after(func(ctx context.Context) {
			s.afterChange(ctx, redisrepo.SlotBooked, booked, events.BookingConfirmed, false)
		})

		return nil
	})
	if err != nil {
		if reason, ok := classify(err); ok {
			s.log.DebugContext(ctx, "booking rejected",
				"client_id", clientID,
				"date", req.Date.Format(time.DateOnly),
				"time", req.Time.String(),
				"reason", string(reason),
			)
			return BookResult{Reason: reason}, nil
		}
		return BookResult{}, fmt.Errorf("%s:%w", op, err)
	}

	return BookResult{
		Reservation: booked,
		Warning:     s.credits.Warn(ctx, sess, clientID, charged),
	}, nil
}

// classify turns a rolled-back unit of work into a business reason. Conflicts
// surfacing at commit time, such as serialization failures, count as
// concurrent conflicts.
func classify(err error) (Reason, bool) {
	var rej RejectedError
	switch {
	case errors.As(err, &rej):
		return rej.Reason, true
	case errors.Is(err, repository.ErrDuplicateDay):
		return DuplicateDayBooking, true
	case errors.Is(err, repository.ErrConflict):
		return ConcurrentConflict, true
	}
	return "", false
}

func (s *Service) pickUnit(free []domain.UnitID, req BookRequest) domain.UnitID {
	if req.Policy == StickyUnit {
		if slices.Contains(free, req.PreferredUnit) {
			return req.PreferredUnit
		}
		return free[0]
	}
	return free[s.intn(len(free))]
}

type CancelOptions struct {
	// ConfirmLate acknowledges cancelling inside the late window.
	ConfirmLate bool
}

type CancelResult struct {
	Reservation domain.Reservation
	Reason      Reason
	// Late is set when the slot starts within the late-cancel window.
	Late bool
}

// OK reports whether the reservation ends up cancelled, including when it
// already was.
func (r CancelResult) OK() bool {
	return r.Reason == "" || r.Reason == AlreadyCancelled
}

// Cancel cancels a reservation and returns its credit to the lot it was
// charged to, in a single transaction.
//
// Parameters:
//   - ctx: request-scoped context.
//   - sess: the caller's session; clients may cancel only their own bookings.
//   - id: reservation to cancel.
//   - opts: late-cancel acknowledgment.
//
// Returns:
//   - CancelResult: the cancelled reservation, or the Reason it was not cancelled.
//   - error: only when the store fails.
func (s *Service) Cancel(ctx context.Context, sess session.Session, id uuid.UUID, opts CancelOptions) (CancelResult, error) {
	const op = "service.reservation.Cancel"

	res, err := s.repos.Reservations().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return CancelResult{Reason: ReservationNotFound}, nil
		}
		return CancelResult{}, fmt.Errorf("%s:%w", op, err)
	}

	if !sess.CanActFor(res.ClientID) {
		return CancelResult{Reason: Forbidden}, nil
	}
	if !res.Active() {
		return CancelResult{Reservation: res, Reason: AlreadyCancelled}, nil
	}

	now := s.clock.Now()
	start := calendar.SlotStart(res.Date, res.Time, s.loc)
	if !start.After(now) {
		return CancelResult{Reservation: res, Reason: AlreadyOccurred}, nil
	}

	late := start.Sub(now) < s.cfg.LateCancelWindow
	if late && !opts.ConfirmLate {
		return CancelResult{Reservation: res, Reason: LateCancelUnconfirmed, Late: true}, nil
	}

	err = s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Repos,
		after func(uow.AfterCommit),
	) error {
		out, err := tx.Reservations().CancelAndRestore(ctx, res.ID, res.LotID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if !out.Success {
			switch out.Message {
			case domain.CancelMsgAlreadyCancelled:
				return reject(AlreadyCancelled)
			case domain.CancelMsgNotFound:
				return reject(ReservationNotFound)
			}
			return fmt.Errorf("%s: %s", op, out.Message)
		}

		after(func(ctx context.Context) {
			s.afterChange(ctx, redisrepo.SlotCancelled, res, events.BookingCancelled, late)
		})

		return nil
	})
	if err != nil {
		var rej RejectedError
		if errors.As(err, &rej) {
			return CancelResult{Reservation: res, Reason: rej.Reason, Late: late}, nil
		}
		if errors.Is(err, repository.ErrConflict) {
			// A concurrent cancel of the same reservation won.
			cur, getErr := s.repos.Reservations().Get(ctx, id)
			if getErr == nil && !cur.Active() {
				return CancelResult{Reservation: cur, Reason: AlreadyCancelled, Late: late}, nil
			}
		}
		return CancelResult{}, fmt.Errorf("%s:%w", op, err)
	}

	cancelledAt := now.UTC()
	res.Status = domain.ReservationCancelled
	res.CancelledAt = &cancelledAt

	return CancelResult{Reservation: res, Late: late}, nil
}

// Get returns a reservation visible to the session.
//
// Returns:
//   - Reason: ReservationNotFound or Forbidden when the lookup is refused.
//   - error: only when the store fails.
func (s *Service) Get(ctx context.Context, sess session.Session, id uuid.UUID) (domain.Reservation, Reason, error) {
	const op = "service.reservation.Get"

	res, err := s.repos.Reservations().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Reservation{}, ReservationNotFound, nil
		}
		return domain.Reservation{}, "", fmt.Errorf("%s:%w", op, err)
	}
	if !sess.CanActFor(res.ClientID) {
		return domain.Reservation{}, Forbidden, nil
	}

	return res, "", nil
}

// ListUpcoming returns the client's active reservations from today on.
func (s *Service) ListUpcoming(ctx context.Context, sess session.Session, clientID uuid.UUID) ([]domain.Reservation, error) {
	const op = "service.reservation.ListUpcoming"

	clientID, err := sess.ResolveClient(clientID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	today := calendar.DateOf(s.clock.Now(), s.loc)

	list, err := s.repos.Reservations().ListActiveByClient(ctx, clientID, today, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return list, nil
}

func (s *Service) afterChange(
	ctx context.Context,
	kind string,
	res domain.Reservation,
	evType events.Type,
	late bool,
) {
	slot := res.Slot()

	s.availability.Invalidate(ctx, slot)

	if s.feed != nil {
		if err := s.feed.PublishSlotChanged(ctx, kind, slot); err != nil {
			s.log.WarnContext(ctx, "publish slot change", "error", err)
		}
	}

	ev := events.New(evType, res.ClientID, s.clock.Now())
	ev.ReservationID = &res.ID
	ev.LotID = &res.LotID
	ev.Date = res.Date.Format(time.DateOnly)
	ev.Time = res.Time.String()
	ev.Unit = int(res.Unit)
	ev.Late = late
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.ErrorContext(ctx, "publish reservation event", "error", err, "type", string(evType))
	}
}
