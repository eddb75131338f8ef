package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8010, cfg.Port)
	assert.Equal(t, "./data/market.db", cfg.DatabasePath)
	assert.NotEmpty(t, cfg.Watchlist)
}

func TestWatchlistParsing(t *testing.T) {
	t.Setenv("WATCHLIST", "aapl, msft ,TSLA,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, cfg.Watchlist)
}

func TestValidateRejectsEmptyDatabasePath(t *testing.T) {
	cfg := &Config{Watchlist: []string{"SPY"}}
	assert.Error(t, cfg.Validate())
}
