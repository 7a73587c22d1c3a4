package referral

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// IsEligible reports whether userID may receive a referral payout at time at. The
// rule is evaluated at distribution time, not at the time the user referred anyone.
func IsEligible(ctx context.Context, positions PositionLookup, userID int64, at time.Time) (bool, error) {
	ok, err := positions.HasActivePosition(ctx, userID, at)
	if err != nil {
		return false, errors.WithMessagef(err, "eligibility of user %d", userID)
	}
	return ok, nil
}
