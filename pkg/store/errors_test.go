package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errConnRefused = errors.New("connection refused")

func isConnRefused(err error) bool {
	return errors.Is(err, errConnRefused)
}

func TestWrapTargetError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantUnavailable bool
	}{
		{"connectivity", errConnRefused, true},
		{"wrapped connectivity", fmt.Errorf("dial: %w", errConnRefused), true},
		{"deadline stays row scoped", context.DeadlineExceeded, false},
		{"other error", errors.New("duplicate key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapTargetError("mongodb", "upsert", tt.err, isConnRefused)
			assert.Equal(t, tt.wantUnavailable, IsTargetUnavailable(err))
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "[mongodb] upsert")
		})
	}

	assert.NoError(t, WrapTargetError("mongodb", "upsert", nil, isConnRefused))
}

func TestWrapTargetErrorDoesNotDoubleWrap(t *testing.T) {
	inner := NewUnavailableError("neo4j", "ping", errConnRefused)
	outer := WrapTargetError("mongodb", "upsert", fmt.Errorf("ctx: %w", inner), nil)

	var targetErr *TargetError
	assert.ErrorAs(t, outer, &targetErr)
	assert.Equal(t, "neo4j", targetErr.Store)
	assert.True(t, IsTargetUnavailable(outer))
}

func TestErrorKinds(t *testing.T) {
	src := NewSourceError("fetch hand", errConnRefused)
	assert.True(t, IsSourceUnavailable(src))
	assert.ErrorIs(t, src, errConnRefused)
	assert.False(t, IsTargetUnavailable(src))

	mapping := NewMappingError("hand", "7", "missing timestamp")
	assert.True(t, IsRowMapping(mapping))
	assert.Equal(t, "cannot map hand row 7: missing timestamp", mapping.Error())

	assert.True(t, IsNotFound(fmt.Errorf("user 9: %w", ErrNotFound)))
}

func TestPartitionKeyString(t *testing.T) {
	key := PartitionKey{OwnerID: 3, Day: "2025-09-14", EntityID: 41}
	assert.Equal(t, "3_2025-09-14_41", key.String())
}
