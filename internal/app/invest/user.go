package invest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"server-invest-app/internal/app/referral"
	"server-invest-app/internal/dao"
	"server-invest-app/internal/model"
)

const referralCodeSeq = "referral_code"

var ErrReferralCodeTaken = errors.New("referral code taken")

// Mirror receives every created user, e.g. the Dgraph referral graph.
type Mirror interface {
	Put(ctx context.Context, u model.User) error
}

// Registrar imports users with referral codes allocated from the counters table.
type Registrar struct {
	DB     *sql.DB
	Prefix string
	Mirror Mirror
}

func FormatCode(prefix string, seq int64) string {
	return fmt.Sprintf("%s%06d", prefix, seq)
}

// Create inserts a user referred by referredBy, which may be empty for a root user.
func (r *Registrar) Create(ctx context.Context, referredBy string) (u model.User, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return u, errors.Wrap(err, "tx begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if referredBy != "" {
		ok, err := dao.User.CodeExists(ctx, tx, referredBy)
		if err != nil {
			return u, errors.Wrap(err, "check referral code")
		}
		if !ok {
			return u, &referral.ValidationError{Reason: fmt.Sprintf("unknown referral code %s", referredBy)}
		}
		u.ReferredBy = &referredBy
	}

	seq, err := dao.Counter.Next(ctx, tx, referralCodeSeq)
	if err != nil {
		return u, errors.Wrap(err, "next referral code")
	}
	u.ReferralCode = FormatCode(r.Prefix, seq)
	u.CreatedAt = time.Now()

	if err = dao.User.Create(ctx, tx, &u); err != nil {
		if isDuplicate(err) {
			return u, ErrReferralCodeTaken
		}
		return u, errors.Wrap(err, "insert user")
	}
	if err = tx.Commit(); err != nil {
		return u, errors.Wrap(err, "tx commit")
	}

	if r.Mirror != nil {
		if err := r.Mirror.Put(ctx, u); err != nil {
			log.Errorf("err: %+v", errors.WithMessage(err, "mirror user"))
		}
	}
	return u, nil
}

func isDuplicate(err error) bool {
	e, ok := errors.Cause(err).(*mysql.MySQLError)
	return ok && e.Number == 1062
}
