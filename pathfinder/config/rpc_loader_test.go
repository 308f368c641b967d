package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/Cogwheel-Validator/spectra-swap/pathfinder/config"
)

// helper to reset env vars with PATHFINDER_ prefix between tests
func unsetPathfinderEnv() {
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "PATHFINDER_") {
			if idx := strings.Index(e, "="); idx != -1 {
				_ = os.Unsetenv(e[:idx])
			}
		}
	}
}

// chdirTemp runs the test in an empty dir so godotenv.Load() finds no .env file
func chdirTemp(t *testing.T) {
	t.Helper()
	origWd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	_ = os.Chdir(t.TempDir())
}

func TestLoadRPCPathfinderConfig_FromEnv_Defaults(t *testing.T) {
	unsetPathfinderEnv()
	chdirTemp(t)

	cfg, err := LoadRPCPathfinderConfig(nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != DefaultPort || cfg.Host != "0.0.0.0" {
		t.Errorf("unexpected port/host: %v %v", cfg.Port, cfg.Host)
	}
	if cfg.ChainID != 1 {
		t.Errorf("expected mainnet default, got %d", cfg.ChainID)
	}
	if len(cfg.OneInchURLs) != 1 || len(cfg.ZeroXURLs) != 1 {
		t.Errorf("expected default provider urls, got %v %v", cfg.OneInchURLs, cfg.ZeroXURLs)
	}
}

func TestLoadRPCPathfinderConfig_FromEnv_Success(t *testing.T) {
	unsetPathfinderEnv()
	chdirTemp(t)
	t.Setenv("PATHFINDER_PORT", "8080")
	t.Setenv("PATHFINDER_HOST", "127.0.0.1")
	t.Setenv("PATHFINDER_CHAIN_ID", "10")
	t.Setenv("PATHFINDER_ZEROX_URLS", "https://optimism.api.0x.org,https://backup.example.com")
	t.Setenv("PATHFINDER_ZEROX_API_KEY", "secret")

	cfg, err := LoadRPCPathfinderConfig(nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != 8080 || cfg.Host != "127.0.0.1" {
		t.Errorf("unexpected port/host: %v %v", cfg.Port, cfg.Host)
	}
	if cfg.ChainID != 10 {
		t.Errorf("expected chain 10, got %d", cfg.ChainID)
	}
	if len(cfg.ZeroXURLs) != 2 {
		t.Errorf("expected 2 0x urls, got %d", len(cfg.ZeroXURLs))
	}
	if cfg.ZeroXAPIKey != "secret" {
		t.Errorf("expected api key from env")
	}
}

func TestLoadRPCPathfinderConfig_FromEnv_UnsupportedChain(t *testing.T) {
	unsetPathfinderEnv()
	chdirTemp(t)
	t.Setenv("PATHFINDER_CHAIN_ID", "56")

	_, err := LoadRPCPathfinderConfig(nil)
	if err == nil {
		t.Fatalf("expected error for unsupported chain, got nil")
	}
}

func TestLoadRPCPathfinderConfig_FromFile_Success(t *testing.T) {
	unsetPathfinderEnv()

	dir := t.TempDir()
	path := filepath.Join(dir, "pathfinder.toml")
	content := `
port = 9090
host = "127.0.0.1"
allowed_origins = ["https://app.example.com"]
chain_id = 137
oneinch_urls = ["https://api.1inch.io"]
zerox_urls = ["https://polygon.api.0x.org"]
registry_path = "generated/registry.toml"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing temp config: %v", err)
	}

	cfg, err := LoadRPCPathfinderConfig(&path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != 9090 || cfg.ChainID != 137 {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("unexpected allowed origins: %+v", cfg.AllowedOrigins)
	}
	if cfg.RegistryPath != "generated/registry.toml" {
		t.Errorf("unexpected registry path: %q", cfg.RegistryPath)
	}
}

func TestLoadRPCPathfinderConfig_FromFile_InvalidURL(t *testing.T) {
	unsetPathfinderEnv()

	path := filepath.Join(t.TempDir(), "pathfinder.toml")
	if err := os.WriteFile(path, []byte(`zerox_urls = ["not a url"]`), 0o600); err != nil {
		t.Fatalf("failed writing temp config: %v", err)
	}
	if _, err := LoadRPCPathfinderConfig(&path); err == nil {
		t.Fatalf("expected error for invalid url")
	}
}

func TestLoadRPCPathfinderConfig_FromFile_WrongExtension(t *testing.T) {
	unsetPathfinderEnv()
	p := "config.yaml"
	_, err := LoadRPCPathfinderConfig(&p)
	if err == nil {
		t.Fatalf("expected error for non-toml file")
	}
}
