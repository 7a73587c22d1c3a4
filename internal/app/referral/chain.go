package referral

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MaxLevel is the depth of the compensated referral chain.
const MaxLevel = 6

// Upline is one referrer above the buyer; Level 1 is the direct referrer.
type Upline struct {
	Level  int
	UserID int64
}

// ResolveChain walks the referred-by pointers from buyerID and returns at most
// MaxLevel uplines in level order. A dangling code, a missing user or a cycle ends
// the chain where it is found.
func ResolveChain(ctx context.Context, lookup ReferrerLookup, buyerID int64) ([]Upline, error) {
	chain := make([]Upline, 0, MaxLevel)
	visited := map[int64]bool{buyerID: true}

	current := buyerID
	for level := 1; level <= MaxLevel; level++ {
		code, referrerID, err := lookup.ReferrerOf(ctx, current)
		if errors.Cause(err) == ErrUserNotFound {
			logGap(buyerID, current, level, "", "user not found")
			break
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "resolve level %d of user %d", level, buyerID)
		}
		if code == "" {
			break
		}
		if referrerID == 0 {
			logGap(buyerID, current, level, code, "referral code does not resolve")
			break
		}
		if visited[referrerID] {
			logGap(buyerID, current, level, code, "cycle in referral chain")
			break
		}

		visited[referrerID] = true
		chain = append(chain, Upline{Level: level, UserID: referrerID})
		current = referrerID
	}
	return chain, nil
}

// mirrorLookup asks a copy of the referral graph first. A node missing from the
// copy may just not be synced yet, so the ledger answers those hops.
type mirrorLookup struct {
	mirror ReferrerLookup
	ledger ReferrerLookup
}

func (m mirrorLookup) ReferrerOf(ctx context.Context, userID int64) (string, int64, error) {
	code, referrerID, err := m.mirror.ReferrerOf(ctx, userID)
	if err == nil && (code == "" || referrerID != 0) {
		return code, referrerID, nil
	}
	if err != nil && errors.Cause(err) != ErrUserNotFound {
		return "", 0, err
	}
	log.WithField("user_id", userID).Warn("referrer missing from mirror, reading ledger")
	return m.ledger.ReferrerOf(ctx, userID)
}

func logGap(buyerID, userID int64, level int, code, reason string) {
	log.WithFields(log.Fields{
		"buyer_id":       buyerID,
		"user_id":        userID,
		"referral_level": level,
		"referred_by":    code,
	}).Warnf("referral chain truncated: %s", reason)
}
