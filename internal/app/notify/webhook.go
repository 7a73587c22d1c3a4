package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"server-invest-app/internal/app/referral"
	"server-invest-app/internal/pkg/util"
)

// Webhook posts committed distributions to an external endpoint, signed the way
// util.PostSigned signs bodies.
type Webhook struct {
	URL    string
	Secret string
	Client *http.Client
}

func NewWebhook(url, secret string, timeout time.Duration) *Webhook {
	return &Webhook{
		URL:    url,
		Secret: secret,
		Client: &http.Client{Timeout: timeout},
	}
}

type payout struct {
	UserID int64           `json:"user_id"`
	Level  int             `json:"level"`
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

type event struct {
	PackageID int64    `json:"package_id"`
	BuyerID   int64    `json:"buyer_id"`
	Paid      []payout `json:"paid"`
	Lost      []payout `json:"lost"`
}

func newEvent(res referral.Result) event {
	ev := event{
		PackageID: res.PackageID,
		BuyerID:   res.BuyerID,
		Paid:      make([]payout, 0, len(res.Earnings)),
		Lost:      make([]payout, 0, len(res.LostCommissions)),
	}
	for _, e := range res.Earnings {
		ev.Paid = append(ev.Paid, payout{UserID: e.UserID, Level: e.Level, Amount: e.Amount, Type: e.Type})
	}
	for _, l := range res.LostCommissions {
		ev.Lost = append(ev.Lost, payout{UserID: l.UserID, Level: l.Level, Amount: l.Amount, Reason: l.Reason})
	}
	return ev
}

func (w *Webhook) Notify(ctx context.Context, res referral.Result) error {
	body, err := json.Marshal(newEvent(res))
	if err != nil {
		return errors.Wrap(err, "json marshal")
	}
	return errors.WithMessagef(util.PostSigned(ctx, w.Client, w.URL, w.Secret, string(body)),
		"notify package %d", res.PackageID)
}
