package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointID_Deterministic(t *testing.T) {
	assert.Equal(t, PointID(7, 3), PointID(7, 3))
}

func TestPointID_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for doc := int64(1); doc <= 20; doc++ {
		for pos := 0; pos < 20; pos++ {
			id := PointID(doc, pos)
			require.False(t, seen[id], "collision for %d:%d", doc, pos)
			seen[id] = true
		}
	}
	// "1:23" and "12:3" must not collide.
	assert.NotEqual(t, PointID(1, 23), PointID(12, 3))
}

func TestPointID_IsUUID(t *testing.T) {
	parsed, err := uuid.Parse(PointID(42, 0))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}
