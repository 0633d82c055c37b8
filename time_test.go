package auth_test

import (
	"testing"
	"time"

	auth "github.com/nexlify/go-tenant-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	recent := time.Now().Add(-10 * time.Minute)
	stale := time.Now().Add(-48 * time.Hour)

	ok, err := auth.IsWithinThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.IsWithinThresholdPeriod(stale, "24h")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	stale := time.Now().Add(-48 * time.Hour)

	ok, err := auth.IsOutsideThresholdPeriod(stale, "24h")
	require.NoError(t, err)
	assert.True(t, ok)

	recent := time.Now().Add(-time.Minute)
	ok, err = auth.IsOutsideThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestThresholdPeriod_BadPattern(t *testing.T) {
	_, err := auth.IsWithinThresholdPeriod(time.Now(), "one day")
	assert.Error(t, err)

	_, err = auth.IsOutsideThresholdPeriod(time.Now(), "one day")
	assert.Error(t, err)
}
