package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, "", Join())
	assert.Equal(t, "cache.", Join("cache"))
	assert.Equal(t, "a.b.", Join("a", "b"))
}
