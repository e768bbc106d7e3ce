// Package config binds the utilization-tracking engine's recognized
// configuration options to Viper, layered flag over env-var over config
// file, and validates the result before the server or replay command
// proceeds.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/scality/utapi/schema"
)

// Redis describes how to reach the backing Redis-protocol store.
type Redis struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Log mirrors the engine's log{level, dumpLevel} option.
type Log struct {
	Level     string
	DumpLevel bool
}

// Credential is one access key the signed ListMetrics endpoint accepts.
type Credential struct {
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	AccountID string `mapstructure:"accountId"`
}

// Config is the full recognized option set:
// { redis: {host,port}, workers, log: {level, dumpLevel}, component, metrics? }.
type Config struct {
	Redis     Redis
	Workers   int
	Log       Log
	Component string
	// Metrics is the configured granularity set. Empty means "every
	// granularity present in the event", per the client's fan-out rule.
	Metrics []schema.Level

	// Port is the HTTP listen port for the ListMetrics server.
	Port int

	// Credentials is the static access-key table the SigV4 authenticator
	// verifies inbound requests against. Only reachable through the config
	// file or environment, never a flag: secrets do not belong in process
	// argument lists.
	Credentials []Credential
}

// Default returns the engine's baseline configuration before flags, env,
// or a config file are layered on top.
func Default() Config {
	return Config{
		Redis:   Redis{Host: "127.0.0.1", Port: 6379},
		Workers: 5,
		Log:     Log{Level: "info", DumpLevel: false},
		Port:    8100,
	}
}

// Load reads v into a Config, falling back to Default for any unset value.
// v is expected to have already had flags bound and a config file (if any)
// read into it by the caller.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	if host := v.GetString("redis.host"); host != "" {
		cfg.Redis.Host = host
	}
	if port := v.GetInt("redis.port"); port != 0 {
		cfg.Redis.Port = port
	}
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")

	if workers := v.GetInt("workers"); workers != 0 {
		cfg.Workers = workers
	}

	if level := v.GetString("log.level"); level != "" {
		cfg.Log.Level = level
	}
	cfg.Log.DumpLevel = v.GetBool("log.dumpLevel")

	cfg.Component = v.GetString("component")

	if raw := v.GetStringSlice("metrics"); len(raw) > 0 {
		levels := make([]schema.Level, 0, len(raw))
		for _, s := range raw {
			levels = append(levels, schema.Level(strings.TrimSpace(s)))
		}
		cfg.Metrics = levels
	}

	if port := v.GetInt("port"); port != 0 {
		cfg.Port = port
	}

	if err := v.UnmarshalKey("credentials", &cfg.Credentials); err != nil {
		return cfg, fmt.Errorf("config: credentials: %w", err)
	}

	return cfg, Validate(cfg)
}

// Validate enforces the startup preconditions: component is mandatory,
// and any configured metrics entry must be a recognized granularity.
func Validate(cfg Config) error {
	if cfg.Component == "" {
		return fmt.Errorf("config: component is required")
	}
	for _, lvl := range cfg.Metrics {
		switch lvl {
		case schema.LevelBucket, schema.LevelAccount, schema.LevelService:
		default:
			return fmt.Errorf("config: unrecognized metrics level %q", lvl)
		}
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive")
	}
	for i, c := range cfg.Credentials {
		if c.AccessKey == "" || c.SecretKey == "" {
			return fmt.Errorf("config: credentials[%d] is missing accessKey or secretKey", i)
		}
	}
	return nil
}
