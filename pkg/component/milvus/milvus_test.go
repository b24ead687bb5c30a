package milvus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	milvusopts "github.com/kart-io/sentinel-kb/pkg/options/milvus"
)

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := New(nil)
	assert.ErrorContains(t, err, "options is nil")

	opts := milvusopts.NewOptions()
	opts.Address = ""
	opts.NProbe = opts.NList + 1
	_, err = New(opts)
	assert.ErrorContains(t, err, "milvus address is required")
	assert.ErrorContains(t, err, "nprobe")
}
