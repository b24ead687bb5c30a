package redis

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-kb/pkg/utils/json"
)

func TestOptionsJSONRedactsPassword(t *testing.T) {
	opts := NewOptions()
	opts.Password = "supersecret"

	data, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "supersecret")
	assert.Contains(t, string(data), "[REDACTED]")
	assert.NotContains(t, opts.String(), "supersecret")

	opts.Password = ""
	data, err = json.Marshal(opts)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"password":""`)
}

func TestOptionsAddr(t *testing.T) {
	opts := NewOptions()
	opts.Host = "::1"
	opts.Port = 6380
	assert.Equal(t, "[::1]:6380", opts.Addr())
}

func TestOptionsCompleteReadsPasswordEnv(t *testing.T) {
	t.Setenv(PasswordEnv, "from-env")

	opts := NewOptions()
	require.NoError(t, opts.Complete())
	assert.Equal(t, "from-env", opts.Password)

	opts.Password = "explicit"
	require.NoError(t, opts.Complete())
	assert.Equal(t, "explicit", opts.Password)
}

func TestOptionsValidate(t *testing.T) {
	assert.Empty(t, NewOptions().Validate())

	opts := NewOptions()
	opts.Host = ""
	opts.Port = 70000
	opts.Database = -1
	opts.ReadTimeout = -1
	assert.Len(t, opts.Validate(), 4)
}

func TestOptionsAddFlags(t *testing.T) {
	opts := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs, "cache")

	require.NoError(t, fs.Parse([]string{"--cache.redis.host=redis.local", "--cache.redis.port=6390"}))
	assert.Equal(t, "redis.local", opts.Host)
	assert.Equal(t, 6390, opts.Port)
}
