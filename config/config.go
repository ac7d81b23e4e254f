package config

import (
	"bytes"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"stipend/core/epoch"
	"stipend/native/token"
)

const adminTokenEnv = "STIPEND_RPC_TOKEN"

// Tier is the on-disk form of one emission schedule step.
type Tier struct {
	BoundaryDays int64  `toml:"BoundaryDays"`
	Budget       string `toml:"Budget"`
}

// MintCaps bounds the token ledger. Zero or empty values disable a cap.
type MintCaps struct {
	PerCall   string `toml:"PerCall"`
	PerDay    string `toml:"PerDay"`
	MaxSupply string `toml:"MaxSupply"`
}

// Config is the daemon configuration loaded from TOML.
type Config struct {
	ListenAddress string   `toml:"ListenAddress"`
	DataDir       string   `toml:"DataDir"`
	Environment   string   `toml:"Environment"`
	AdminToken    string   `toml:"AdminToken"`
	LaunchTime    string   `toml:"LaunchTime"`
	PeriodLength  string   `toml:"PeriodLength"`
	TokenDecimals uint8    `toml:"TokenDecimals"`
	Treasury      string   `toml:"Treasury"`
	ScheduleTiers []Tier   `toml:"ScheduleTiers"`
	MintCaps      MintCaps `toml:"MintCaps"`
}

// Default returns the reference configuration: daily periods and the
// four-tier halving schedule.
func Default() Config {
	return Config{
		ListenAddress: "0.0.0.0:8645",
		DataDir:       "./stipend-data",
		Environment:   "dev",
		PeriodLength:  "24h",
		TokenDecimals: 18,
	}
}

// Load reads and validates the configuration at path.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config: unknown fields %v", undecoded)
	}
	if env := strings.TrimSpace(os.Getenv(adminTokenEnv)); env != "" {
		cfg.AdminToken = env
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate ensures the configuration is self-consistent.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: listen address required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: data dir required")
	}
	if strings.TrimSpace(c.LaunchTime) == "" {
		return fmt.Errorf("config: launch time required")
	}
	if _, err := time.Parse(time.RFC3339, c.LaunchTime); err != nil {
		return fmt.Errorf("config: launch time: %w", err)
	}
	if _, err := time.ParseDuration(c.PeriodLength); err != nil {
		return fmt.Errorf("config: period length: %w", err)
	}
	if trimmed := strings.TrimSpace(c.Treasury); trimmed != "" {
		cleaned := strings.TrimPrefix(trimmed, "0x")
		if len(cleaned) != 40 {
			return fmt.Errorf("config: treasury must be a 20-byte hex address")
		}
	}
	for i, tier := range c.ScheduleTiers {
		if tier.BoundaryDays <= 0 {
			return fmt.Errorf("config: schedule tier %d boundary must be positive", i)
		}
		if _, err := parseAmount(tier.Budget); err != nil {
			return fmt.Errorf("config: schedule tier %d budget: %w", i, err)
		}
	}
	for name, value := range map[string]string{
		"PerCall":   c.MintCaps.PerCall,
		"PerDay":    c.MintCaps.PerDay,
		"MaxSupply": c.MintCaps.MaxSupply,
	} {
		if _, err := parseAmount(value); err != nil {
			return fmt.Errorf("config: mint cap %s: %w", name, err)
		}
	}
	return nil
}

// Clock builds the epoch clock described by the configuration.
func (c Config) Clock() (*epoch.Clock, error) {
	launch, err := time.Parse(time.RFC3339, c.LaunchTime)
	if err != nil {
		return nil, fmt.Errorf("config: launch time: %w", err)
	}
	length, err := time.ParseDuration(c.PeriodLength)
	if err != nil {
		return nil, fmt.Errorf("config: period length: %w", err)
	}
	return epoch.NewClock(launch.Unix(), length)
}

// Schedule builds the emission schedule described by the configuration,
// falling back to the reference halving schedule when no tiers are given.
func (c Config) Schedule() (*epoch.Schedule, error) {
	if len(c.ScheduleTiers) == 0 {
		return epoch.DefaultSchedule(), nil
	}
	tiers := make([]epoch.Tier, len(c.ScheduleTiers))
	for i, tier := range c.ScheduleTiers {
		budget, err := parseAmount(tier.Budget)
		if err != nil {
			return nil, fmt.Errorf("config: schedule tier %d: %w", i, err)
		}
		tiers[i] = epoch.Tier{
			Boundary: tier.BoundaryDays * 24 * 60 * 60,
			Budget:   budget,
		}
	}
	return epoch.NewSchedule(tiers)
}

// TokenConfig builds the ledger mint caps described by the configuration.
func (c Config) TokenConfig() (token.Config, error) {
	perCall, err := parseAmount(c.MintCaps.PerCall)
	if err != nil {
		return token.Config{}, fmt.Errorf("config: mint cap PerCall: %w", err)
	}
	perDay, err := parseAmount(c.MintCaps.PerDay)
	if err != nil {
		return token.Config{}, fmt.Errorf("config: mint cap PerDay: %w", err)
	}
	maxSupply, err := parseAmount(c.MintCaps.MaxSupply)
	if err != nil {
		return token.Config{}, fmt.Errorf("config: mint cap MaxSupply: %w", err)
	}
	return token.Config{
		MaxMintPerCall: perCall,
		MaxMintPerDay:  perDay,
		MaxSupply:      maxSupply,
	}, nil
}

// parseAmount parses a base-10 token amount; empty means zero.
func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if parsed.Sign() < 0 {
		return nil, fmt.Errorf("amount %q cannot be negative", value)
	}
	return parsed, nil
}
