// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string
	Env         string
	MetricsAddr string
	LogLevel    string
	LogFormat   string `yaml:"log_format"` // json|console
}

// Chain describes how the scanner reaches the contract-query endpoint.
type Chain struct {
	Provider  string `yaml:"provider"` // rpc|lcd|ws
	RpcURL    string `yaml:"rpc_url"`
	LcdURL    string `yaml:"lcd_url"`
	WsURL     string `yaml:"ws_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Scan holds the per-scan defaults the command layer does not ask for.
type Scan struct {
	BatchSize      int    `yaml:"batch_size"`
	Mode           string `yaml:"mode"`
	ExcludeAddress string `yaml:"exclude_address"`
	OutputDir      string `yaml:"output_dir"`
	FailuresPath   string `yaml:"failures_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App   App   `yaml:"app"`
	Chain Chain `yaml:"chain"`
	Scan  Scan  `yaml:"scan"`
}

const (
	DefaultRpcURL    = "https://sei-m.rpc.n0ok.net/"
	DefaultTimeoutMs = 10000
	DefaultBatchSize = 25
	DefaultMode      = "count"
	// DefaultExcludeAddress is the Pallet marketplace contract; listed tokens are held by it.
	DefaultExcludeAddress = "sei152u2u0lqc27428cuf8dx48k8saua74m6nql5kgvsu4rfeqm547rsnhy4y9"
)

// Default returns a config usable without any file on disk.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Save validates cfg and writes it as YAML, creating parent directories.
// An existing file is only replaced when overwrite is set.
func Save(path string, cfg *Config, overwrite bool) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return file.Close()
}

// ApplyEnv overlays endpoint and exclusion settings from the environment,
// reading a .env file first when one is present.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load() // best-effort
	c.Chain.RpcURL = getEnv("SEI_RPC_URL", c.Chain.RpcURL)
	c.Chain.LcdURL = getEnv("SEI_LCD_URL", c.Chain.LcdURL)
	c.Chain.WsURL = getEnv("SEI_WS_URL", c.Chain.WsURL)
	c.Chain.Provider = strings.ToLower(getEnv("OWNERSCAN_PROVIDER", c.Chain.Provider))
	c.Scan.ExcludeAddress = getEnv("OWNERSCAN_EXCLUDE_ADDRESS", c.Scan.ExcludeAddress)
}

// Validate reports settings that would make every scan fail.
func (c *Config) Validate() error {
	switch c.Chain.Provider {
	case "rpc":
		if c.Chain.RpcURL == "" {
			return errors.New("chain.rpc_url is required for the rpc provider")
		}
	case "lcd":
		if c.Chain.LcdURL == "" {
			return errors.New("chain.lcd_url is required for the lcd provider")
		}
	case "ws":
		if c.Chain.WsURL == "" && c.Chain.RpcURL == "" {
			return errors.New("chain.ws_url or chain.rpc_url is required for the ws provider")
		}
	default:
		return fmt.Errorf("unknown chain provider %q", c.Chain.Provider)
	}
	if c.Scan.BatchSize < 1 {
		return fmt.Errorf("scan.batch_size must be positive, got %d", c.Scan.BatchSize)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Chain.Provider == "" {
		c.Chain.Provider = "rpc"
	}
	c.Chain.Provider = strings.ToLower(c.Chain.Provider)
	if c.Chain.Provider == "rpc" && c.Chain.RpcURL == "" {
		c.Chain.RpcURL = DefaultRpcURL
	}
	if c.Chain.TimeoutMs <= 0 {
		c.Chain.TimeoutMs = DefaultTimeoutMs
	}
	if c.Scan.BatchSize <= 0 {
		c.Scan.BatchSize = DefaultBatchSize
	}
	if c.Scan.Mode == "" {
		c.Scan.Mode = DefaultMode
	}
	if c.Scan.ExcludeAddress == "" {
		c.Scan.ExcludeAddress = DefaultExcludeAddress
	}
	if c.Scan.OutputDir == "" {
		c.Scan.OutputDir = "."
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
