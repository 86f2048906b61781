package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: chronos-test
  env: production
database:
  driver: postgres
  host: db.internal
  port: 5432
  name: chronos
  user: chronos
tracking:
  strict_references: true
  auto_close_after: 12h
`), 0o644))

	require.NoError(t, LoadFromFile(path))
	c := Get()
	require.NotNil(t, c)

	assert.Equal(t, "chronos-test", c.App.Name)
	assert.True(t, c.App.IsProduction())
	assert.Equal(t, "postgres", c.Database.Driver)
	assert.Equal(t, "db.internal", c.Database.Host)
	assert.True(t, c.Tracking.StrictReferences)
	assert.Equal(t, 12*time.Hour, c.Tracking.AutoCloseAfter)

	// Defaults fill in what the file leaves out.
	assert.Equal(t, 8760*time.Hour, c.Tracking.ApplyWindow)
	assert.Equal(t, "0 0 3 * * *", c.Tracking.AutoCloseSchedule)
	assert.Equal(t, 25, c.Database.MaxOpenConns)
	assert.Equal(t, "/metrics", c.Metrics.Path)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
