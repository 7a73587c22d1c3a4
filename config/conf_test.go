package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferralScale(t *testing.T) {
	saved := confPath
	defer func() { confPath = saved }()
	confPath = t.TempDir()

	write := func(body string) {
		require.NoError(t, os.WriteFile(filepath.Join(confPath, "referral.yaml"), []byte(body), 0o644))
	}

	write("chain_source: mysql\nscale: 0\n")
	var r referral
	unmarshal("referral", &r, true)
	require.NotNil(t, r.Scale)
	assert.Equal(t, int32(0), r.AmountScale())

	write("chain_source: mysql\nscale: 4\n")
	r = referral{}
	unmarshal("referral", &r, true)
	assert.Equal(t, int32(4), r.AmountScale())

	write("chain_source: mysql\n")
	r = referral{}
	unmarshal("referral", &r, true)
	assert.Nil(t, r.Scale)
	assert.Equal(t, int32(2), r.AmountScale())
}

func TestOptionalConfigMissing(t *testing.T) {
	saved := confPath
	defer func() { confPath = saved }()
	confPath = t.TempDir()

	var n notify
	assert.NotPanics(t, func() { unmarshal("notify", &n, false) })
	assert.False(t, n.Enabled)
	assert.Panics(t, func() { unmarshal("server", &Server, true) })
}
