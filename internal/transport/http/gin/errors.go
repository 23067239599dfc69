package httpgin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/bedslot/internal/service/admin"
	"github.com/kirinyoku/bedslot/internal/service/credit"
	"github.com/kirinyoku/bedslot/internal/service/reservation"
	"github.com/kirinyoku/bedslot/internal/session"
)

var reasonStatus = map[reservation.Reason]int{
	reservation.DuplicateDayBooking:   http.StatusConflict,
	reservation.DuplicateSlotBooking:  http.StatusConflict,
	reservation.SlotFull:              http.StatusConflict,
	reservation.ConcurrentConflict:    http.StatusConflict,
	reservation.AlreadyOccurred:       http.StatusConflict,
	reservation.AlreadyCancelled:      http.StatusConflict,
	reservation.SlotInPast:            http.StatusUnprocessableEntity,
	reservation.SlotNotOffered:        http.StatusUnprocessableEntity,
	reservation.NoCreditAvailable:     http.StatusPaymentRequired,
	reservation.ClientNotFound:        http.StatusNotFound,
	reservation.ReservationNotFound:   http.StatusNotFound,
	reservation.Forbidden:             http.StatusForbidden,
	reservation.LateCancelUnconfirmed: http.StatusPreconditionRequired,
	reservation.Unavailable:           http.StatusServiceUnavailable,
}

// respondReason writes a business rejection with its user-facing message.
func respondReason(c *gin.Context, r reservation.Reason) {
	status, ok := reasonStatus[r]
	if !ok {
		status = http.StatusConflict
	}
	c.JSON(status, ErrorResponse{Error: r.Message(), Reason: string(r)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	case errors.Is(err, session.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	case errors.Is(err, admin.ErrClientNotFound),
		errors.Is(err, credit.ErrClientNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "client not found"})
	case errors.Is(err, admin.ErrClientConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "client with this email already exists"})
	case errors.Is(err, admin.ErrScheduleConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "duplicate weekday and time in fixed schedule"})
	case errors.Is(err, admin.ErrInvalidSchedule):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: admin.ErrInvalidSchedule.Error()})
	case errors.Is(err, admin.ErrInvalidClient):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: admin.ErrInvalidClient.Error()})
	case errors.Is(err, credit.ErrInvalidPack):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: credit.ErrInvalidPack.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:  reservation.Unavailable.Message(),
			Reason: string(reservation.Unavailable),
		})
	}
}
