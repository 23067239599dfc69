package httpgin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	redisrepo "github.com/kirinyoku/bedslot/internal/repository/redis"
)

const idemLockTTL = 60 * time.Second

// claimIdempotent takes the request's Idempotency-Key for clientID. It
// returns the storage key to complete or abandon later, and false when a
// response has already been written.
func (h *handlers) claimIdempotent(c *gin.Context, scope string, clientID uuid.UUID, payload any) (string, bool) {
	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if h.idem == nil || idemKey == "" {
		return "", true
	}

	ctx := c.Request.Context()
	key := redisrepo.KeyIdem(scope, clientID, idemKey)

	claim, err := h.idem.Claim(ctx, key, fingerprint(payload), idemLockTTL)
	if err != nil {
		h.log.WarnContext(ctx, "idempotency claim failed", "error", err)
		return "", true
	}

	c.Header("Idempotency-Key", idemKey)

	switch claim.State {
	case redisrepo.ClaimAcquired:
		return key, true
	case redisrepo.ClaimReplay:
		c.Data(claim.Status, "application/json; charset=utf-8", claim.Body)
	case redisrepo.ClaimMismatch:
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "idempotency key reused with a different request"})
	default:
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
	}

	return "", false
}

// completeIdempotent saves v as the response for key.
func (h *handlers) completeIdempotent(c *gin.Context, key string, status int, v any) {
	if key == "" {
		return
	}

	b, err := json.Marshal(v)
	if err == nil {
		err = h.idem.Complete(c.Request.Context(), key, status, b)
	}
	if err != nil {
		h.log.WarnContext(c.Request.Context(), "idempotency save failed", "error", err)
		h.abandonIdempotent(c, key)
	}
}

// abandonIdempotent frees key so a failed request can be retried.
func (h *handlers) abandonIdempotent(c *gin.Context, key string) {
	if key == "" {
		return
	}
	if err := h.idem.Abandon(c.Request.Context(), key); err != nil {
		h.log.WarnContext(c.Request.Context(), "idempotency release failed", "error", err)
	}
}

func fingerprint(payload any) string {
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
