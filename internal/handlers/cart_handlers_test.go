package handlers

import (
	"testing"

	"github.com/glowora/glowora-api/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestClampQuantity(t *testing.T) {
	testCases := []struct {
		name      string
		requested int
		stock     int
		expected  int
	}{
		{"within stock", 3, 10, 3},
		{"above stock clamps to stock", 15, 10, 10},
		{"exactly at stock", 10, 10, 10},
		{"below one clamps to one", 0, 10, 1},
		{"negative clamps to one", -4, 10, 1},
		{"single unit stock", 5, 1, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, clampQuantity(tc.requested, tc.stock))
		})
	}
}

func TestOwnerClause(t *testing.T) {
	clause, arg := ownerClause(session.User(42))
	assert.Equal(t, "user_id = ?", clause)
	assert.Equal(t, int64(42), arg)

	clause, arg = ownerClause(session.Guest("abc-123"))
	assert.Equal(t, "guest_token = ?", clause)
	assert.Equal(t, "abc-123", arg)
}
