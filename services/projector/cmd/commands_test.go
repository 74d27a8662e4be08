package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42", "user id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-3", "abc", ""} {
		_, err := parseID(bad, "user id")
		assert.Error(t, err, bad)
	}
}

func TestParseDay(t *testing.T) {
	day, err := parseDay("2025-09-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 14, 0, 0, 0, 0, time.UTC), day)

	_, err = parseDay("14/09/2025")
	assert.Error(t, err)
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"sync"},
		{"query", "volume"},
		{"query", "shared-tables"},
		{"balance"},
		{"transaction"},
		{"activity"},
		{"ranking"},
		{"secret", "set"},
		{"health"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
