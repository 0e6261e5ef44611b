// Package config loads runtime configuration from defaults, an optional YAML
// file and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileEnv names the variable pointing at an optional YAML file.
const ConfigFileEnv = "CONFIG_FILE"

// Config captures all runtime configuration. Keys match the environment
// variable names lowercased, e.g. DB_MAX_CONNS -> db_max_conns.
type Config struct {
	Port             string `koanf:"port"`
	AuthToken        string `koanf:"auth_token"`
	DBURL            string `koanf:"db_url"`
	AutoMigrate      bool   `koanf:"auto_migrate"`
	LogMode          string `koanf:"log_mode"`
	LogLevel         string `koanf:"log_level"`
	ReadTimeoutSecs  int    `koanf:"server_read_timeout"`
	WriteTimeoutSecs int    `koanf:"server_write_timeout"`
	IdleTimeoutSecs  int    `koanf:"server_idle_timeout"`

	DBMaxConns        int `koanf:"db_max_conns"`
	DBMinConns        int `koanf:"db_min_conns"`
	DBMaxIdleSecs     int `koanf:"db_max_conn_idle_secs"`
	DBMaxLifeSecs     int `koanf:"db_max_conn_lifetime_secs"`
	DBConnTimeoutSecs int `koanf:"db_conn_timeout_secs"`
	DBStatementCache  int `koanf:"db_statement_cache_capacity"`

	ScoreVersion            string  `koanf:"score_version"`
	MinPlausibleHours       float64 `koanf:"min_plausible_hours"`
	ShiftListDefaultLimit   int     `koanf:"shift_list_default_limit"`
	ShiftListMaxLimit       int     `koanf:"shift_list_max_limit"`
	LeaderboardDefaultLimit int     `koanf:"leaderboard_default_limit"`
	LeaderboardMaxLimit     int     `koanf:"leaderboard_max_limit"`
	RescoreBatchSize        int     `koanf:"rescore_batch_size"`
	RescoreConcurrency      int     `koanf:"rescore_concurrency"`
}

// Default returns the configuration used when nothing overrides a key.
func Default() Config {
	return Config{
		Port:                    "8080",
		LogMode:                 "prod",
		LogLevel:                "info",
		ReadTimeoutSecs:         15,
		WriteTimeoutSecs:        15,
		IdleTimeoutSecs:         60,
		DBMaxConns:              20,
		DBMinConns:              2,
		DBMaxIdleSecs:           300,
		DBMaxLifeSecs:           3600,
		DBConnTimeoutSecs:       10,
		DBStatementCache:        256,
		ScoreVersion:            "v1",
		MinPlausibleHours:       0.25,
		ShiftListDefaultLimit:   25,
		ShiftListMaxLimit:       200,
		LeaderboardDefaultLimit: 10,
		LeaderboardMaxLimit:     100,
		RescoreBatchSize:        500,
		RescoreConcurrency:      4,
	}
}

// Load layers defaults, the YAML file named by CONFIG_FILE (if any) and the
// environment, in increasing precedence, then validates the result.
func Load() (Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	known := knownKeys()
	envProvider := env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := known[key]; !ok {
			return ""
		}
		return key
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateServer adds the checks only the HTTP server needs on top of Validate.
func (c Config) ValidateServer() error {
	if c.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}
	return c.Validate()
}

// Validate checks the keys every command needs. Errors name the environment
// variable.
func (c Config) Validate() error {
	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if c.ScoreVersion == "" {
		return fmt.Errorf("SCORE_VERSION must not be empty")
	}
	if c.MinPlausibleHours < 0 {
		return fmt.Errorf("MIN_PLAUSIBLE_HOURS must be non-negative")
	}
	if c.ShiftListDefaultLimit <= 0 || c.ShiftListDefaultLimit > c.ShiftListMaxLimit {
		return fmt.Errorf("SHIFT_LIST_DEFAULT_LIMIT must be in [1, SHIFT_LIST_MAX_LIMIT]")
	}
	if c.LeaderboardDefaultLimit <= 0 || c.LeaderboardDefaultLimit > c.LeaderboardMaxLimit {
		return fmt.Errorf("LEADERBOARD_DEFAULT_LIMIT must be in [1, LEADERBOARD_MAX_LIMIT]")
	}
	if c.RescoreBatchSize <= 0 {
		return fmt.Errorf("RESCORE_BATCH_SIZE must be positive")
	}
	if c.RescoreConcurrency <= 0 {
		return fmt.Errorf("RESCORE_CONCURRENCY must be positive")
	}
	return nil
}

func knownKeys() map[string]struct{} {
	return map[string]struct{}{
		"port": {}, "auth_token": {}, "db_url": {}, "auto_migrate": {},
		"log_mode": {}, "log_level": {},
		"server_read_timeout": {}, "server_write_timeout": {}, "server_idle_timeout": {},
		"db_max_conns": {}, "db_min_conns": {}, "db_max_conn_idle_secs": {},
		"db_max_conn_lifetime_secs": {}, "db_conn_timeout_secs": {}, "db_statement_cache_capacity": {},
		"score_version": {}, "min_plausible_hours": {},
		"shift_list_default_limit": {}, "shift_list_max_limit": {},
		"leaderboard_default_limit": {}, "leaderboard_max_limit": {},
		"rescore_batch_size": {}, "rescore_concurrency": {},
	}
}
