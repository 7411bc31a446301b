package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "ownerscan-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.MetricsAddr != ":9108" {
		t.Fatalf("unexpected App.MetricsAddr: %s", cfg.App.MetricsAddr)
	}
	if cfg.App.LogLevel != "debug" || cfg.App.LogFormat != "console" {
		t.Fatalf("unexpected logging settings: %+v", cfg.App)
	}
	if cfg.Chain.Provider != "lcd" {
		t.Fatalf("unexpected Chain.Provider: %s", cfg.Chain.Provider)
	}
	if cfg.Chain.LcdURL != "https://rest.sei-apis.com" {
		t.Fatalf("unexpected Chain.LcdURL: %s", cfg.Chain.LcdURL)
	}
	if cfg.Chain.RpcURL != "" {
		t.Fatalf("expected rpc url to stay empty for lcd provider, got %s", cfg.Chain.RpcURL)
	}
	if cfg.Chain.TimeoutMs != 4000 {
		t.Fatalf("unexpected Chain.TimeoutMs: %d", cfg.Chain.TimeoutMs)
	}
	if cfg.Scan.BatchSize != 50 {
		t.Fatalf("unexpected Scan.BatchSize: %d", cfg.Scan.BatchSize)
	}
	if cfg.Scan.Mode != "unique" {
		t.Fatalf("unexpected Scan.Mode: %s", cfg.Scan.Mode)
	}
	if cfg.Scan.ExcludeAddress != "sei1excluded" {
		t.Fatalf("unexpected Scan.ExcludeAddress: %s", cfg.Scan.ExcludeAddress)
	}
	if cfg.Scan.OutputDir != "out" || cfg.Scan.FailuresPath != "out/failures.jsonl" {
		t.Fatalf("unexpected output paths: %+v", cfg.Scan)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Chain.Provider != "rpc" || cfg.Chain.RpcURL != DefaultRpcURL {
		t.Fatalf("unexpected chain defaults: %+v", cfg.Chain)
	}
	if cfg.Scan.BatchSize != DefaultBatchSize {
		t.Fatalf("expected batch size %d, got %d", DefaultBatchSize, cfg.Scan.BatchSize)
	}
	if cfg.Scan.ExcludeAddress != DefaultExcludeAddress {
		t.Fatalf("unexpected exclude address %s", cfg.Scan.ExcludeAddress)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := Default()
	cfg.Chain.Provider = "grpc"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown provider")
	}

	cfg = Default()
	cfg.Chain.Provider = "lcd"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for lcd provider without url")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SEI_RPC_URL", "http://localhost:26657")
	t.Setenv("OWNERSCAN_PROVIDER", "WS")
	t.Setenv("OWNERSCAN_EXCLUDE_ADDRESS", "sei1market")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Chain.RpcURL != "http://localhost:26657" {
		t.Fatalf("expected env rpc url, got %s", cfg.Chain.RpcURL)
	}
	if cfg.Chain.Provider != "ws" {
		t.Fatalf("expected provider ws, got %s", cfg.Chain.Provider)
	}
	if cfg.Scan.ExcludeAddress != "sei1market" {
		t.Fatalf("expected env exclude address, got %s", cfg.Scan.ExcludeAddress)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Scan.Mode = "tokens"
	if err := Save(path, cfg, false); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Scan.Mode != "tokens" {
		t.Fatalf("expected saved mode tokens, got %s", loaded.Scan.Mode)
	}
}

func TestSaveKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("scan:\n  mode: unique\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Save(path, Default(), false); !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected os.ErrExist, got %v", err)
	}
	if err := Save(path, Default(), true); err != nil {
		t.Fatalf("Save with overwrite returned error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Scan.Mode != DefaultMode {
		t.Fatalf("expected overwritten mode %s, got %s", DefaultMode, loaded.Scan.Mode)
	}
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Chain.Provider = "grpc"
	if err := Save(filepath.Join(t.TempDir(), "config.yaml"), cfg, false); err == nil {
		t.Fatalf("expected invalid config to be rejected")
	}
}
