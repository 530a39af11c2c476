package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/domain/models"
)

func TestParseInterval(t *testing.T) {
	for _, tok := range []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d", "1w", "1M"} {
		iv, err := ParseInterval(tok)
		require.NoError(t, err, tok)
		assert.Equal(t, Interval(tok), iv)
	}

	iv, err := ParseInterval("")
	require.NoError(t, err)
	assert.Equal(t, IV1d, iv, "empty token maps to the default interval")

	for _, tok := range []string{"2d", "1D", "daily", "60", "1mo"} {
		_, err := ParseInterval(tok)
		require.Error(t, err, tok)
		assert.ErrorIs(t, err, models.ErrInvalidEnum)
	}
}
