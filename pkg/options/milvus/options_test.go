package milvusopts

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.Empty(t, NewOptions().Validate())
	assert.Empty(t, (*Options)(nil).Validate())

	o := &Options{NList: 8, NProbe: 9}
	errs := o.Validate()
	require.Len(t, errs, 3)
	assert.ErrorContains(t, errs[0], "address is required")
	assert.ErrorContains(t, errs[1], "timeout must be positive")
	assert.ErrorContains(t, errs[2], "nprobe")
}

func TestAddFlags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--milvus.address=milvus:19530", "--milvus.nlist=256", "--milvus.nprobe=32"}))
	assert.Equal(t, "milvus:19530", o.Address)
	assert.Equal(t, 256, o.NList)
	assert.Equal(t, 32, o.NProbe)
}
