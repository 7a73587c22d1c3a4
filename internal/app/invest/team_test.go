package invest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-invest-app/internal/model"
)

type fakeTeam struct {
	users map[int64]model.User
}

func newFakeTeam() *fakeTeam {
	return &fakeTeam{users: make(map[int64]model.User)}
}

func (f *fakeTeam) add(id int64, code, referredBy string) {
	u := model.User{ID: id, ReferralCode: code}
	if referredBy != "" {
		u.ReferredBy = &referredBy
	}
	f.users[id] = u
}

func (f *fakeTeam) GetByID(ctx context.Context, id int64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return u, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeTeam) ListReferred(ctx context.Context, code string) ([]model.User, error) {
	users := make([]model.User, 0)
	for id := int64(1); id <= int64(len(f.users))+1; id++ {
		if u, ok := f.users[id]; ok && u.ReferredBy != nil && *u.ReferredBy == code {
			users = append(users, u)
		}
	}
	return users, nil
}

func TestDownline(t *testing.T) {
	team := newFakeTeam()
	team.add(1, "A", "")
	team.add(2, "B", "A")
	team.add(3, "C", "A")
	team.add(4, "D", "B")
	// 5..11 is a chain below D, deeper than the paying levels
	prev := "D"
	for id := int64(5); id <= 11; id++ {
		code := string(rune('E' + id - 5))
		team.add(id, code, prev)
		prev = code
	}

	members, err := Downline(context.Background(), team, 1)
	require.NoError(t, err)

	levels := make(map[int64]int)
	for _, m := range members {
		levels[m.UserID] = m.Level
	}
	assert.Equal(t, 1, levels[2])
	assert.Equal(t, 1, levels[3])
	assert.Equal(t, 2, levels[4])
	assert.Equal(t, 6, levels[8])
	assert.NotContains(t, levels, int64(9))

	_, err = Downline(context.Background(), team, 99)
	assert.Error(t, err)
}

func TestDownlineCycle(t *testing.T) {
	team := newFakeTeam()
	team.add(1, "A", "B")
	team.add(2, "B", "A")

	members, err := Downline(context.Background(), team, 1)
	require.NoError(t, err)
	assert.Equal(t, []Member{{UserID: 2, ReferralCode: "B", Level: 1}}, members)
}

func TestGetDownlineHandler(t *testing.T) {
	s, r := newTestService(newFakePackages(), newFakeDistributor())
	team := s.Team.(*fakeTeam)
	team.add(1, "A", "")
	team.add(2, "B", "A")

	w, env := do(r, http.MethodGet, "/admin/user/1/downline", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var members []Member
	require.NoError(t, json.Unmarshal(env.Data, &members))
	assert.Equal(t, []Member{{UserID: 2, ReferralCode: "B", Level: 1}}, members)

	w, env = do(r, http.MethodGet, "/admin/user/42/downline", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1005, env.Code)
}
