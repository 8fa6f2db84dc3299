package clientid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateHasPrefixAndIsNonEmpty(t *testing.T) {
	id := Generate()
	assert.True(t, strings.HasPrefix(id, "nanomqtt-"))
	assert.Greater(t, len(id), len("nanomqtt-"))
}

func TestGenerateProducesDistinctIDs(t *testing.T) {
	assert.NotEqual(t, Generate(), Generate())
}
