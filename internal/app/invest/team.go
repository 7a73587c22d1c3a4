package invest

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"server-invest-app/internal/app/referral"
	"server-invest-app/internal/model"
)

type UserRepo interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
	ListReferred(ctx context.Context, code string) ([]model.User, error)
}

// Member is a downline user and how many levels below the root it sits.
type Member struct {
	UserID       int64  `json:"user_id"`
	ReferralCode string `json:"referral_code"`
	Level        int    `json:"level"`
}

// Downline lists the users whose packages pay commissions to userID, level by
// level down to referral.MaxLevel.
func Downline(ctx context.Context, users UserRepo, userID int64) ([]Member, error) {
	root, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}

	members := make([]Member, 0)
	seen := map[int64]bool{root.ID: true}
	codes := []string{root.ReferralCode}
	for level := 1; level <= referral.MaxLevel && len(codes) > 0; level++ {
		var next []string
		for _, code := range codes {
			children, err := users.ListReferred(ctx, code)
			if err != nil {
				return nil, errors.Wrapf(err, "list referred by %s", code)
			}
			for _, u := range children {
				if seen[u.ID] {
					log.Warnf("dirty user data cause circle in relation, user: %d", u.ID)
					continue
				}
				seen[u.ID] = true
				members = append(members, Member{UserID: u.ID, ReferralCode: u.ReferralCode, Level: level})
				next = append(next, u.ReferralCode)
			}
		}
		codes = next
	}
	return members, nil
}
