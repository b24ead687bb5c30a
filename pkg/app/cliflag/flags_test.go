package cliflag

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedFlagSets(t *testing.T) {
	var fss NamedFlagSets
	fss.FlagSet("kb").Int("kb.top-k", 3, "")
	fss.FlagSet("log").String("log.level", "info", "")
	fss.FlagSet("kb").Int("kb.workers", 4, "")

	assert.Equal(t, []string{"kb", "log"}, fss.Order)
	assert.Len(t, fss.FlagSets, 2)

	fs := pflag.NewFlagSet("root", pflag.ContinueOnError)
	fss.AddTo(fs)
	require.NoError(t, fs.Parse([]string{"--kb.top-k=5", "--log.level=debug"}))

	topK, err := fs.GetInt("kb.top-k")
	require.NoError(t, err)
	assert.Equal(t, 5, topK)
	assert.NotNil(t, fs.Lookup("kb.workers"))
}
