package dgraph

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/dgraph-io/dgo/v200"
	"github.com/dgraph-io/dgo/v200/protos/api"
	"github.com/pkg/errors"

	"server-invest-app/internal/app/referral"
	"server-invest-app/internal/model"
)

// UserResp represent user node returned by dgraph
type UserResp struct {
	ID       int64     `json:"i,omitempty"`
	Code     string    `json:"c,omitempty"`
	Referrer *UserResp `json:"r,omitempty"`
}

const uplineQuery = `
query upline($id: int) {
	data(func: eq(user_id, $id)) {
		c: referred_by
		r: referrer {
			i: user_id
		}
	}
}`

// Graph is the referral graph mirror. It answers one upline hop per query.
type Graph struct {
	dg *dgo.Dgraph
}

func NewGraph(dg *dgo.Dgraph) *Graph {
	return &Graph{dg: dg}
}

var _ referral.ReferrerLookup = (*Graph)(nil)

func (g *Graph) ReferrerOf(ctx context.Context, userID int64) (string, int64, error) {
	resp, err := g.dg.NewReadOnlyTxn().BestEffort().QueryWithVars(ctx, uplineQuery,
		map[string]string{"$id": strconv.FormatInt(userID, 10)})
	if err != nil {
		return "", 0, errors.Wrapf(err, "query upline of %d", userID)
	}
	return decodeReferrer(resp.Json)
}

func decodeReferrer(data []byte) (string, int64, error) {
	type Root struct {
		Users []UserResp `json:"data"`
	}

	var r Root
	if err := json.Unmarshal(data, &r); err != nil {
		return "", 0, errors.Wrap(err, "json unmarshal")
	}
	if len(r.Users) == 0 {
		return "", 0, referral.ErrUserNotFound
	}
	u := r.Users[0]
	if u.Referrer == nil {
		return u.Code, 0, nil
	}
	return u.Code, u.Referrer.ID, nil
}

const putQuery = `
query put($id: int, $ref: string) {
	u as var(func: eq(user_id, $id))
	r as var(func: eq(referral_code, $ref))
}`

type node struct {
	UID          string `json:"uid"`
	UserID       int64  `json:"user_id,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
	ReferredBy   string `json:"referred_by,omitempty"`
	Referrer     *node  `json:"referrer,omitempty"`
}

// Put upserts a user node. Exactly one mutation runs: the link to the referrer is
// added only when the referrer is already mirrored.
func (g *Graph) Put(ctx context.Context, u model.User) error {
	ref := ""
	if u.ReferredBy != nil {
		ref = *u.ReferredBy
	}

	n := node{UID: "uid(u)", UserID: u.ID, ReferralCode: u.ReferralCode, ReferredBy: ref}
	alone, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "json marshal")
	}
	n.Referrer = &node{UID: "uid(r)"}
	linked, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "json marshal")
	}

	req := &api.Request{
		Query: putQuery,
		Vars: map[string]string{
			"$id":  strconv.FormatInt(u.ID, 10),
			"$ref": ref,
		},
		Mutations: []*api.Mutation{
			{SetJson: alone, Cond: "@if(eq(len(r), 0))"},
			{SetJson: linked, Cond: "@if(eq(len(r), 1))"},
		},
		CommitNow: true,
	}
	_, err = g.dg.NewTxn().Do(ctx, req)
	return errors.Wrapf(err, "upsert user %d", u.ID)
}
