package common

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULID(t *testing.T) {
	a, err := NewULID()
	require.NoError(t, err)
	b, err := NewULID()
	require.NoError(t, err)

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)

	_, err = ulid.ParseStrict(a)
	assert.NoError(t, err)
}
