package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
ListenAddress = "127.0.0.1:9000"
DataDir = "/var/lib/stipend"
Environment = "prod"
AdminToken = "secret"
LaunchTime = "2026-01-01T00:00:00Z"
PeriodLength = "24h"
TokenDecimals = 6
Treasury = "0x00000000000000000000000000000000000000aa"

[[ScheduleTiers]]
BoundaryDays = 100
Budget = "1000"

[[ScheduleTiers]]
BoundaryDays = 200
Budget = "500"

[MintCaps]
PerCall = "100000"
PerDay = "500000"
MaxSupply = "90000000"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.ListenAddress)
	require.Equal(t, "prod", cfg.Environment)
	require.Equal(t, "secret", cfg.AdminToken)
	require.Equal(t, uint8(6), cfg.TokenDecimals)

	clock, err := cfg.Clock()
	require.NoError(t, err)
	launch, _ := time.Parse(time.RFC3339, "2026-01-01T00:00:00Z")
	require.Equal(t, launch.Unix(), clock.Launch())
	require.Equal(t, int64(86400), clock.PeriodLength())

	schedule, err := cfg.Schedule()
	require.NoError(t, err)
	require.Equal(t, int64(200*86400), schedule.TerminalBoundary())
	require.Equal(t, int64(1000), schedule.BudgetForElapsed(0).Int64())
	require.Equal(t, int64(500), schedule.BudgetForElapsed(150*86400).Int64())

	tokenCfg, err := cfg.TokenConfig()
	require.NoError(t, err)
	require.Equal(t, int64(100000), tokenCfg.MaxMintPerCall.Int64())
	require.Equal(t, int64(90000000), tokenCfg.MaxSupply.Int64())
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
LaunchTime = "2026-01-01T00:00:00Z"
NotARealOption = true
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown fields")
}

func TestLoadRequiresLaunchTime(t *testing.T) {
	path := writeConfig(t, `ListenAddress = "127.0.0.1:9000"`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "launch time")
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Default()
	base.LaunchTime = "2026-01-01T00:00:00Z"
	require.NoError(t, base.Validate())

	cfg := base
	cfg.LaunchTime = "not-a-time"
	require.Error(t, cfg.Validate())

	cfg = base
	cfg.PeriodLength = "one day"
	require.Error(t, cfg.Validate())

	cfg = base
	cfg.Treasury = "0x1234"
	require.Error(t, cfg.Validate())

	cfg = base
	cfg.ScheduleTiers = []Tier{{BoundaryDays: 0, Budget: "10"}}
	require.Error(t, cfg.Validate())

	cfg = base
	cfg.ScheduleTiers = []Tier{{BoundaryDays: 10, Budget: "abc"}}
	require.Error(t, cfg.Validate())

	cfg = base
	cfg.MintCaps.PerDay = "-5"
	require.Error(t, cfg.Validate())
}

func TestAdminTokenEnvOverride(t *testing.T) {
	t.Setenv(adminTokenEnv, "from-env")
	path := writeConfig(t, `
LaunchTime = "2026-01-01T00:00:00Z"
AdminToken = "from-file"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.AdminToken)
}

func TestScheduleFallsBackToDefault(t *testing.T) {
	cfg := Default()
	cfg.LaunchTime = "2026-01-01T00:00:00Z"
	schedule, err := cfg.Schedule()
	require.NoError(t, err)
	require.Equal(t, int64(30336), schedule.BudgetForElapsed(0).Int64())
	require.Equal(t, int64(2920*86400), schedule.TerminalBoundary())
}
