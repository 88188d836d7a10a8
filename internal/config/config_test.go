package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thud.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"addr":":9000","max_games":10,"heartbeat_interval":"2s"}`), 0o644))
	t.Setenv("THUD_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Addr)
	require.Equal(t, 10, cfg.MaxGames)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, Duration(2*time.Second), cfg.HeartbeatInterval)
	require.Equal(t, Default().ShutdownTimeout, cfg.ShutdownTimeout)
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("THUD_MAX_GAMES", "lots")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Addr = ""
	cfg.LogLevel = "loud"
	cfg.SubscriberBuffer = 0

	err := cfg.Validate()
	require.Error(t, err)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 3)
}
