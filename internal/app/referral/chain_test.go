package referral

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hop struct {
	code string
	id   int64
}

type mapLookup struct {
	hops map[int64]hop
	err  error
}

func (m mapLookup) ReferrerOf(ctx context.Context, userID int64) (string, int64, error) {
	if m.err != nil {
		return "", 0, m.err
	}
	h, ok := m.hops[userID]
	if !ok {
		return "", 0, ErrUserNotFound
	}
	return h.code, h.id, nil
}

// linear builds the chain 1 <- 2 <- ... <- n, user i referred by i-1.
func linear(n int64) mapLookup {
	m := mapLookup{hops: map[int64]hop{1: {}}}
	for i := int64(2); i <= n; i++ {
		m.hops[i] = hop{code: "REF" + string(rune('A'+i-2)), id: i - 1}
	}
	return m
}

func TestResolveChainLength(t *testing.T) {
	ctx := context.Background()
	for n := int64(1); n <= 7; n++ {
		chain, err := ResolveChain(ctx, linear(n), n)
		require.NoError(t, err)
		assert.Len(t, chain, int(n-1))
	}

	chain, err := ResolveChain(ctx, linear(10), 10)
	require.NoError(t, err)
	require.Len(t, chain, MaxLevel)
	for i, up := range chain {
		assert.Equal(t, i+1, up.Level)
		assert.Equal(t, int64(10-i-1), up.UserID)
	}
}

func TestResolveChainDanglingReference(t *testing.T) {
	m := mapLookup{hops: map[int64]hop{
		4: {code: "C", id: 3},
		3: {code: "GONE", id: 0},
	}}
	chain, err := ResolveChain(context.Background(), m, 4)
	require.NoError(t, err)
	assert.Equal(t, []Upline{{Level: 1, UserID: 3}}, chain)
}

func TestResolveChainGapFields(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	m := mapLookup{hops: map[int64]hop{
		4: {code: "C", id: 3},
		3: {code: "GONE", id: 0},
	}}
	_, err := ResolveChain(context.Background(), m, 4)
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.Data["referral_level"])
	assert.Equal(t, "GONE", entry.Data["referred_by"])
	_, clash := entry.Data["level"]
	assert.False(t, clash)
}

func TestResolveChainMissingUser(t *testing.T) {
	m := mapLookup{hops: map[int64]hop{
		4: {code: "C", id: 3},
	}}
	chain, err := ResolveChain(context.Background(), m, 4)
	require.NoError(t, err)
	assert.Equal(t, []Upline{{Level: 1, UserID: 3}}, chain)
}

func TestResolveChainCycle(t *testing.T) {
	m := mapLookup{hops: map[int64]hop{
		1: {code: "B", id: 2},
		2: {code: "C", id: 3},
		3: {code: "A", id: 1},
	}}
	chain, err := ResolveChain(context.Background(), m, 1)
	require.NoError(t, err)
	assert.Equal(t, []Upline{{Level: 1, UserID: 2}, {Level: 2, UserID: 3}}, chain)

	self := mapLookup{hops: map[int64]hop{5: {code: "E", id: 5}}}
	chain, err = ResolveChain(context.Background(), self, 5)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestResolveChainStorageError(t *testing.T) {
	m := mapLookup{err: errors.New("connection reset")}
	_, err := ResolveChain(context.Background(), m, 1)
	assert.Error(t, err)
}
