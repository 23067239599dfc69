package httpgin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/bedslot/internal/calendar"
	"github.com/kirinyoku/bedslot/internal/domain"
	redisrepo "github.com/kirinyoku/bedslot/internal/repository/redis"
	"github.com/kirinyoku/bedslot/internal/service"
)

// Idempotency remembers responses per Idempotency-Key.
type Idempotency interface {
	Claim(ctx context.Context, key, fingerprint string, lockTTL time.Duration) (redisrepo.Claim, error)
	Complete(ctx context.Context, key string, status int, body []byte) error
	Abandon(ctx context.Context, key string) error
}

// SlotSubscriber streams slot changes until ctx ends.
type SlotSubscriber interface {
	Subscribe(ctx context.Context, handler func(ctx context.Context, ch redisrepo.SlotChange)) error
}

// Deps wires the router. Idem, Limiter and Slots are optional.
type Deps struct {
	Services     *service.Services
	Tokens       TokenParser
	Idem         Idempotency
	Limiter      Limiter
	Slots        SlotSubscriber
	AllowOrigins []string
	Logger       *slog.Logger
	Ready        func(ctx context.Context) error
}

type handlers struct {
	svcs  *service.Services
	idem  Idempotency
	slots SlotSubscriber
	log   *slog.Logger
}

func NewRouter(d Deps, middlewares ...gin.HandlerFunc) *gin.Engine {
	registerValidators()

	h := &handlers{
		svcs:  d.Services,
		idem:  d.Idem,
		slots: d.Slots,
		log:   d.Logger,
	}

	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(d.Logger), RequestIDMiddleware(), CORS(d.AllowOrigins))
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Public availability
	r.GET("/slots", h.daySlots)
	r.GET("/slots/:date/:time/free", h.freeUnits)
	if d.Slots != nil {
		r.GET("/slots/stream", h.streamSlots)
	}

	var limited []gin.HandlerFunc
	if d.Limiter != nil {
		limited = append(limited, RateLimitMiddleware(d.Limiter, d.Logger))
	}
	writes := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(slices.Clone(limited), h)
	}

	api := r.Group("/", AuthMiddleware(d.Tokens))
	{
		api.POST("/reservations", writes(h.book)...)
		api.POST("/reservations/series", writes(h.bookSeries)...)
		api.POST("/reservations/:id/cancel", writes(h.cancel)...)
		api.GET("/reservations/:id", h.getReservation)

		api.GET("/me/reservations", h.myReservations)
		api.GET("/me/credits", h.myCredits)
		api.GET("/me/schedule", h.mySchedule)
	}

	adm := api.Group("/admin", RequireAdmin())
	{
		adm.GET("/clients", h.listClients)
		adm.POST("/clients", h.registerClient)
		adm.GET("/clients/:id", h.clientLedger)
		adm.PUT("/clients/:id", h.updateClient)
		adm.POST("/clients/:id/packs", h.sellPack)
		adm.GET("/clients/:id/schedule", h.getSchedule)
		adm.PUT("/clients/:id/schedule", h.setSchedule)
		adm.POST("/lots/expire", h.expireLots)
	}

	return r
}

// @Summary  Day availability
// @Param    date  query  string  true  "Date (YYYY-MM-DD)"
// @Success  200  {array}   availability.SlotAvailability
// @Failure  400  {object}  ErrorResponse
// @Router   /slots [get]
func (h *handlers) daySlots(c *gin.Context) {
	date, err := calendar.ParseDate(c.Query("date"))
	if err != nil {
		badRequest(c, "invalid date (YYYY-MM-DD)")
		return
	}

	slots, err := h.svcs.Availability.DaySlots(c.Request.Context(), date)
	if err != nil {
		respondErr(c, err)
		return
	}

	writeJSONWithCache(c, http.StatusOK, slots, "public, max-age=10")
}

// @Summary  Free beds of a slot
// @Param    date  path  string  true  "Date (YYYY-MM-DD)"
// @Param    time  path  string  true  "Time (HH:MM)"
// @Success  200  {object}  FreeUnitsResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /slots/{date}/{time}/free [get]
func (h *handlers) freeUnits(c *gin.Context) {
	date, err := calendar.ParseDate(c.Param("date"))
	if err != nil {
		badRequest(c, "invalid date (YYYY-MM-DD)")
		return
	}
	tod, err := domain.ParseTimeOfDay(c.Param("time"))
	if err != nil {
		badRequest(c, "invalid time (HH:MM)")
		return
	}

	units, err := h.svcs.Availability.ListFreeUnits(c.Request.Context(), date, tod)
	if err != nil {
		respondErr(c, err)
		return
	}

	writeJSONWithCache(c, http.StatusOK, FreeUnitsResponse{
		Date:  date.Format(time.DateOnly),
		Time:  tod.String(),
		Units: units,
	}, "public, max-age=5")
}

// @Summary  Slot change stream (server-sent events)
// @Produce  text/event-stream
// @Router   /slots/stream [get]
func (h *handlers) streamSlots(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	changes := make(chan redisrepo.SlotChange, 16)
	go func() {
		defer close(changes)
		err := h.slots.Subscribe(ctx, func(ctx context.Context, ch redisrepo.SlotChange) {
			select {
			case changes <- ch:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			h.log.WarnContext(ctx, "slot stream subscription ended", "error", err)
		}
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		ch, ok := <-changes
		if !ok {
			return false
		}
		c.SSEvent(ch.Type, ch)
		return true
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
