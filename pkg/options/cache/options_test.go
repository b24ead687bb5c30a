package cache

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledSkipsValidation(t *testing.T) {
	opts := NewOptions()
	opts.Redis.Host = ""
	assert.False(t, opts.Enabled)
	assert.Empty(t, opts.Validate())
}

func TestValidate(t *testing.T) {
	opts := NewOptions()
	opts.Enabled = true
	assert.Empty(t, opts.Validate())

	opts.TTL = -time.Second
	opts.Redis.Host = ""
	assert.Len(t, opts.Validate(), 2)

	opts.Redis = nil
	assert.Len(t, opts.Validate(), 2)
}

func TestComplete(t *testing.T) {
	opts := &Options{Enabled: true}
	require.NoError(t, opts.Complete())
	require.NotNil(t, opts.Redis)
	assert.Equal(t, "emb:", opts.KeyPrefix)
}

func TestAddFlags(t *testing.T) {
	opts := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--cache.enabled",
		"--cache.ttl=1h",
		"--cache.redis.database=2",
	}))
	assert.True(t, opts.Enabled)
	assert.Equal(t, time.Hour, opts.TTL)
	assert.Equal(t, 2, opts.Redis.Database)
}
