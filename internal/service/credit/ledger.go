// Package credit implements the credit ledger: which lot pays for a class,
// debiting and restoring it, and warning clients whose balance runs low.
package credit

import (
	"cmp"
	"slices"
	"time"

	"github.com/kirinyoku/bedslot/internal/domain"
)

// SelectConsumableLot picks the lot that pays for a class on targetDate:
// among lots with credits left whose expiry covers the class date, the one
// expiring first, then the one bought first, then the lowest id.
func SelectConsumableLot(lots []domain.CreditLot, targetDate time.Time) (domain.CreditLot, bool) {
	var eligible []domain.CreditLot
	for _, lot := range lots {
		if lot.Covers(targetDate) {
			eligible = append(eligible, lot)
		}
	}

	if len(eligible) == 0 {
		return domain.CreditLot{}, false
	}

	return slices.MinFunc(eligible, compareLots), true
}

func compareLots(a, b domain.CreditLot) int {
	return cmp.Or(
		a.ExpiresOn.Compare(b.ExpiresOn),
		a.PurchasedOn.Compare(b.PurchasedOn),
		cmp.Compare(a.ID.String(), b.ID.String()),
	)
}

// TotalRemaining sums the credits of lots still usable as of today.
func TotalRemaining(lots []domain.CreditLot, today time.Time) int {
	total := 0
	for _, lot := range lots {
		if lot.ActiveOn(today) {
			total += lot.Remaining
		}
	}
	return total
}

// Warning tells a client that the lot just charged is nearly used up or
// about to expire.
type Warning struct {
	LotID        string    `json:"lot_id"`
	Remaining    int       `json:"remaining"`
	ExpiresOn    time.Time `json:"expires_on"`
	LowBalance   bool      `json:"low_balance"`
	ExpiringSoon bool      `json:"expiring_soon"`
}

// CheckWarning reports whether lot crosses the low-balance or expiry
// thresholds as of today.
func CheckWarning(lot domain.CreditLot, today time.Time, cfg Config) (Warning, bool) {
	cfg = cfg.withDefaults()

	w := Warning{
		LotID:        lot.ID.String(),
		Remaining:    lot.Remaining,
		ExpiresOn:    lot.ExpiresOn,
		LowBalance:   lot.Remaining <= cfg.LowBalanceThreshold,
		ExpiringSoon: !lot.ExpiresOn.After(today.AddDate(0, 0, cfg.ExpiryWarningDays)),
	}

	return w, w.LowBalance || w.ExpiringSoon
}
