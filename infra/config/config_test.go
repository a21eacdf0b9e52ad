package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchbook/domain/book"
)

func TestDefaults(t *testing.T) {
	t.Setenv("MATCHBOOK_CONFIG", "")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "MBK", c.Symbol)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.False(t, c.Kafka.Enabled)

	s, err := c.Strategy()
	require.NoError(t, err)
	assert.Equal(t, book.FillInSequence, s)
}

func TestYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("symbol: XYZ\nfill_strategy: LOWEST_QTY_FIRST\nserver:\n  addr: \":9999\"\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("MATCHBOOK_CONFIG", path)
	t.Setenv("MATCHBOOK_ADDR", ":7777") // env wins over file

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "XYZ", c.Symbol)
	assert.Equal(t, ":7777", c.Server.Addr)

	s, err := c.Strategy()
	require.NoError(t, err)
	assert.Equal(t, book.LowestQtyFirst, s)
}

func TestMissingConfigFileFails(t *testing.T) {
	t.Setenv("MATCHBOOK_CONFIG", filepath.Join(t.TempDir(), "no-such.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestMalformedConfigFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbol: [unclosed"), 0o644))
	t.Setenv("MATCHBOOK_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestUnknownStrategy(t *testing.T) {
	c := defaultConfig()
	c.FillStrategy = "BY_WEIGHT"
	_, err := c.Strategy()
	assert.Error(t, err)
}
