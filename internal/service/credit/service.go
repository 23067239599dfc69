package credit

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
	"github.com/kirinyoku/bedslot/internal/events"
	"github.com/kirinyoku/bedslot/internal/repository"
	"github.com/kirinyoku/bedslot/internal/session"
)

var (
	ErrInvalidPack    = errors.New("invalid credit pack")
	ErrClientNotFound = errors.New("client not found")
)

type Config struct {
	LowBalanceThreshold int
	ExpiryWarningDays   int
}

func (c Config) withDefaults() Config {
	if c.LowBalanceThreshold <= 0 {
		c.LowBalanceThreshold = 1
	}
	if c.ExpiryWarningDays <= 0 {
		c.ExpiryWarningDays = 5
	}
	return c
}

type Service struct {
	repos     repository.Repos
	latch     session.Latch
	publisher events.Publisher
	clock     clock.Clock
	loc       *time.Location
	log       *slog.Logger
	cfg       Config
}

func New(
	repos repository.Repos,
	latch session.Latch,
	publisher events.Publisher,
	clk clock.Clock,
	loc *time.Location,
	log *slog.Logger,
	cfg Config,
) *Service {
	return &Service{
		repos:     repos,
		latch:     latch,
		publisher: publisher,
		clock:     clk,
		loc:       loc,
		log:       log,
		cfg:       cfg.withDefaults(),
	}
}

func (s *Service) today() time.Time {
	return calendar.DateOf(s.clock.Now(), s.loc)
}

// Select returns the lot that would pay for a class on date. Call it with
// transaction-bound repositories so the lots stay locked until commit.
func (s *Service) Select(
	ctx context.Context,
	tx repository.Repos,
	clientID uuid.UUID,
	date time.Time,
) (domain.CreditLot, bool, error) {
	const op = "service.credit.Select"

	lots, err := tx.Credits().ListByClient(ctx, clientID)
	if err != nil {
		return domain.CreditLot{}, false, fmt.Errorf("%s:%w", op, err)
	}

	lot, ok := SelectConsumableLot(lots, date)

	return lot, ok, nil
}

// Decrement takes one credit from the lot.
//
// Returns:
//   - error: repository.ErrInsufficientCredit if the lot is already empty.
func (s *Service) Decrement(ctx context.Context, tx repository.Repos, lotID uuid.UUID) (domain.CreditLot, error) {
	const op = "service.credit.Decrement"

	lot, err := tx.Credits().Decrement(ctx, lotID)
	if err != nil {
		return domain.CreditLot{}, fmt.Errorf("%s:%w", op, err)
	}

	return lot, nil
}

// Warn checks the lot a booking was charged to and, at most once per
// session and client, returns a warning and records a credit.warning event.
// Failures of the latch or the publisher are logged and never fail the booking.
func (s *Service) Warn(ctx context.Context, sess session.Session, clientID uuid.UUID, lot domain.CreditLot) *Warning {
	w, ok := CheckWarning(lot, s.today(), s.cfg)
	if !ok {
		return nil
	}

	first, err := s.latch.First(ctx, sess, "credit-warning:"+clientID.String())
	if err != nil {
		s.log.WarnContext(ctx, "credit warning latch failed", "error", err)
		first = true
	}
	if !first {
		return nil
	}

	ev := events.New(events.CreditWarning, clientID, s.clock.Now())
	ev.LotID = &lot.ID
	ev.Remaining = &lot.Remaining
	ev.ExpiresOn = lot.ExpiresOn.Format(time.DateOnly)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.ErrorContext(ctx, "publish credit warning", "error", err)
	}

	return &w
}

// Summary is a client's usable balance.
type Summary struct {
	Remaining  int                `json:"remaining"`
	ActiveLots int                `json:"active_lots"`
	NextExpiry *time.Time         `json:"next_expiry,omitempty"`
	Lots       []domain.CreditLot `json:"-"`
}

func (s *Service) Balance(ctx context.Context, clientID uuid.UUID) (Summary, error) {
	const op = "service.credit.Balance"

	lots, err := s.repos.Credits().ListByClient(ctx, clientID)
	if err != nil {
		return Summary{}, fmt.Errorf("%s:%w", op, err)
	}

	today := s.today()
	sum := Summary{Remaining: TotalRemaining(lots, today), Lots: lots}
	for _, lot := range lots {
		if !lot.ActiveOn(today) {
			continue
		}
		sum.ActiveLots++
		if sum.NextExpiry == nil || lot.ExpiresOn.Before(*sum.NextExpiry) {
			exp := lot.ExpiresOn
			sum.NextExpiry = &exp
		}
	}

	return sum, nil
}

// Pack describes a sale: credits granted and the window they can be used in.
type Pack struct {
	Credits     int
	PurchasedOn time.Time
	ExpiresOn   time.Time
}

// Grant creates a credit lot for a sold pack.
//
// Returns:
//   - error: credit.ErrInvalidPack if the pack is empty or expires before purchase.
//   - error: credit.ErrClientNotFound if the client does not exist.
func (s *Service) Grant(ctx context.Context, clientID uuid.UUID, p Pack) (domain.CreditLot, error) {
	const op = "service.credit.Grant"

	if p.PurchasedOn.IsZero() {
		p.PurchasedOn = s.today()
	}
	if p.Credits <= 0 || p.ExpiresOn.Before(p.PurchasedOn) {
		return domain.CreditLot{}, fmt.Errorf("%s:%w", op, ErrInvalidPack)
	}

	if _, err := s.repos.Clients().Get(ctx, clientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.CreditLot{}, fmt.Errorf("%s:%w", op, ErrClientNotFound)
		}
		return domain.CreditLot{}, fmt.Errorf("%s:%w", op, err)
	}

	lot := domain.CreditLot{
		ID:          uuid.New(),
		ClientID:    clientID,
		Total:       p.Credits,
		Remaining:   p.Credits,
		PurchasedOn: p.PurchasedOn,
		ExpiresOn:   p.ExpiresOn,
	}
	lot.Status = lot.StatusOn(s.today())

	if err := s.repos.Credits().Create(ctx, lot); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.CreditLot{}, fmt.Errorf("%s:%w", op, ErrClientNotFound)
		}
		return domain.CreditLot{}, fmt.Errorf("%s:%w", op, err)
	}

	return lot, nil
}

// ExpireLots brings stored lot statuses up to date.
func (s *Service) ExpireLots(ctx context.Context) (int64, error) {
	const op = "service.credit.ExpireLots"

	n, err := s.repos.Credits().RefreshStatuses(ctx, s.today())
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}
