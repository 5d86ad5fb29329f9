package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shipshape.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	s, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "file", s.Store.Driver)
	assert.Equal(t, ".shipshape", s.Store.Path)
	assert.Equal(t, "none", s.Narrative.Provider)
	assert.True(t, s.Narrative.Redact)
	assert.Equal(t, 60*time.Second, s.Narrative.Timeout)
	assert.Equal(t, 10*time.Minute, s.Assets.CacheTTL)
	assert.Equal(t, 4, s.Assets.CheckLimit)
	assert.Equal(t, "default", s.Report.ID)
	assert.Equal(t, "info", s.Log.Level)
}

func TestFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: sqlite
  path: /var/lib/shipshape/reports.db
assets:
  base_url: https://cdn.example.com/photos
  check_timeout: 3s
narrative:
  provider: http
  endpoint: https://summaries.example.com/v1
`)
	t.Setenv("SHIPSHAPE_STORE_DRIVER", "memory")
	t.Setenv("SHIPSHAPE_NARRATIVE_REDACT", "false")

	s, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Store.Driver, "environment wins over file")
	assert.Equal(t, "/var/lib/shipshape/reports.db", s.Store.Path)
	assert.Equal(t, "https://cdn.example.com/photos", s.Assets.BaseURL)
	assert.Equal(t, 3*time.Second, s.Assets.CheckTimeout)
	assert.Equal(t, "http", s.Narrative.Provider)
	assert.False(t, s.Narrative.Redact)

	o := s.NarrativeOptions()
	assert.Equal(t, "https://summaries.example.com/v1", o.Endpoint)
	assert.InDelta(t, 0.2, o.Settings.Temperature, 1e-9)
}

func TestFlagsOverride(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: sqlite\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("store", "file", "")
	fs.String("report-id", "default", "")
	fs.String("unrelated", "", "")
	require.NoError(t, fs.Parse([]string{"--report-id", "voyage-12"}))

	v := New()
	require.NoError(t, BindFlags(v, fs))
	s, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, "voyage-12", s.Report.ID)
	assert.Equal(t, "sqlite", s.Store.Driver, "unset flag does not shadow the file")
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"bad driver", "store:\n  driver: postgres\n", false},
		{"bad provider", "narrative:\n  provider: oracle\n", false},
		{"http without endpoint", "narrative:\n  provider: http\n", false},
		{"negative limit", "assets:\n  check_limit: -1\n", false},
		{"anthropic", "narrative:\n  provider: anthropic\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(New(), writeConfig(t, tt.body))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
