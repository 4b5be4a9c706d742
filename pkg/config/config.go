package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Schemas   SchemasConfig   `koanf:"schemas"`
	Factory   FactoryConfig   `koanf:"factory"`
	Exchange  ExchangeConfig  `koanf:"exchange"`
	Store     StoreConfig     `koanf:"store"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type SchemasConfig struct {
	// Paths lists YAML schema definition files loaded into the registry
	// on startup, in addition to the built-in claim schemas.
	Paths []string `koanf:"paths"`
}

type FactoryConfig struct {
	Seed            int64   `koanf:"seed"`
	Count           int     `koanf:"count"`
	NullProbability float64 `koanf:"null_probability"`
	SeqMin          int     `koanf:"seq_min"`
	SeqMax          int     `koanf:"seq_max"`
}

type ExchangeConfig struct {
	BaseURL        string `koanf:"base_url"`
	ResponseSchema string `koanf:"response_schema"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
	RetryAttempts  int    `koanf:"retry_attempts"`
	IsDebug        bool   `koanf:"is_debug"`
	IgnoreSAS      bool   `koanf:"ignore_sas"`
	WebPricing     bool   `koanf:"web_pricing"`
}

type StoreConfig struct {
	// Path is the SQLite database file; empty disables result persistence.
	Path string `koanf:"path"`
}

// Global k instance
var k = koanf.New(".")

func Load(path string) (*Config, error) {
	return load(path, nil)
}

// LoadWithCLI loads configuration honoring --config and --set flags on top
// of file and environment sources.
func LoadWithCLI(args []string) (*Config, error) {
	path, overrides, err := parseCLIOverrides(args)
	if err != nil {
		return nil, err
	}
	return load(path, overrides)
}

func load(path string, overrides map[string]any) (*Config, error) {
	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("telemetry.exporter", "stdout")

	k.Set("factory.seed", 1)
	k.Set("factory.count", 1)
	k.Set("factory.null_probability", 0.25)
	k.Set("factory.seq_min", 0)
	k.Set("factory.seq_max", 5)

	k.Set("exchange.base_url", "http://localhost:8080")
	k.Set("exchange.response_schema", "exchange.response")
	k.Set("exchange.timeout_seconds", 30)
	k.Set("exchange.retry_attempts", 1)

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (CLAIMFORGE_EXCHANGE_BASE_URL -> exchange.base_url)
	if err := k.Load(env.Provider("CLAIMFORGE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "CLAIMFORGE_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, err
	}

	// 3. CLI --set overrides win over everything
	for key, value := range overrides {
		k.Set(key, value)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func parseCLIOverrides(args []string) (string, map[string]any, error) {
	path := ""
	overrides := map[string]any{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			i++
			if i >= len(args) {
				return "", nil, fmt.Errorf("--config requires a path")
			}
			path = args[i]
		case "--set":
			i++
			if i >= len(args) {
				return "", nil, fmt.Errorf("--set requires key=value")
			}
			key, value, ok := strings.Cut(args[i], "=")
			if !ok || key == "" {
				return "", nil, fmt.Errorf("invalid --set %q, want key=value", args[i])
			}
			overrides[key] = parseOverrideValue(value)
		}
	}
	return path, overrides, nil
}

// parseOverrideValue interprets JSON scalars and objects so --set can carry
// booleans, numbers and structured values; anything else stays a string.
func parseOverrideValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err == nil {
		return value
	}
	return raw
}
