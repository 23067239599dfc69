package service

import (
	"log/slog"
	"time"

	"github.com/kirinyoku/bedslot/internal/calendar"
	"github.com/kirinyoku/bedslot/internal/clock"
	"github.com/kirinyoku/bedslot/internal/events"
	"github.com/kirinyoku/bedslot/internal/repository"
	redisrepo "github.com/kirinyoku/bedslot/internal/repository/redis"
	"github.com/kirinyoku/bedslot/internal/service/admin"
	"github.com/kirinyoku/bedslot/internal/service/availability"
	"github.com/kirinyoku/bedslot/internal/service/credit"
	"github.com/kirinyoku/bedslot/internal/service/recurring"
	"github.com/kirinyoku/bedslot/internal/service/reservation"
	"github.com/kirinyoku/bedslot/internal/session"
	"github.com/kirinyoku/bedslot/internal/uow"
)

type Services struct {
	Availability *availability.Service
	Credits      *credit.Service
	Reservation  *reservation.Service
	Recurring    *recurring.Service
	Admin        *admin.Service
}

type Config struct {
	Availability availability.Config
	Credit       credit.Config
	Reservation  reservation.Config
}

// Store is what the services need from a backing store: repositories
// outside a transaction and a way to open one.
type Store interface {
	uow.Runner
	repository.Repos
}

// Deps carries the collaborators shared by every service. Cache and Feed
// may be nil.
type Deps struct {
	Store     Store
	Cache     *redisrepo.SlotCache
	Feed      reservation.SlotFeed
	Latch     session.Latch
	Publisher events.Publisher
	Timetable calendar.Timetable
	Clock     clock.Clock
	Location  *time.Location
	Logger    *slog.Logger
}

func NewServices(d Deps, cfg Config) *Services {
	work := uow.New(d.Store)

	avail := availability.New(d.Store, d.Cache, d.Timetable, d.Clock, d.Location, d.Logger, cfg.Availability)
	credits := credit.New(d.Store, d.Latch, d.Publisher, d.Clock, d.Location, d.Logger, cfg.Credit)

	res := reservation.New(reservation.Deps{
		Repos:        d.Store,
		UoW:          work,
		Availability: avail,
		Credits:      credits,
		Timetable:    d.Timetable,
		Feed:         d.Feed,
		Publisher:    d.Publisher,
		Clock:        d.Clock,
		Location:     d.Location,
		Logger:       d.Logger,
	}, cfg.Reservation)

	rec := recurring.New(d.Store, res, d.Clock, d.Location, d.Logger)

	adm := admin.New(admin.Deps{
		Repos:     d.Store,
		UoW:       work,
		Credits:   credits,
		Recurring: rec,
		Timetable: d.Timetable,
		Publisher: d.Publisher,
		Clock:     d.Clock,
		Location:  d.Location,
		Logger:    d.Logger,
	})

	return &Services{
		Availability: avail,
		Credits:      credits,
		Reservation:  res,
		Recurring:    rec,
		Admin:        adm,
	}
}
