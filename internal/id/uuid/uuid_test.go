// Package uuid includes tests for the UUID generator wrapper.
package uuid

import (
	"testing"

	goUUID "github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestGeneratorNewID ensures generated IDs are unique v7 UUIDs.
func TestGeneratorNewID(t *testing.T) {
	t.Parallel()

	gen := New()
	id1, err := gen.NewID()
	require.NoError(t, err)
	id2, err := gen.NewID()
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	for _, id := range []string{id1, id2} {
		parsed, err := goUUID.Parse(id)
		require.NoError(t, err)
		require.Equal(t, goUUID.Version(7), parsed.Version())
	}
	// v7 IDs created later never sort before earlier ones.
	require.LessOrEqual(t, id1, id2)
}
