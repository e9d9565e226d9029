package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all triaged server configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	ListenAddr string `json:"listen_addr"`
	DataDir    string `json:"data_dir"`
	LogLevel   string `json:"log_level"`
	GatePolicy string `json:"gate_policy"` // hard | soft
	ReloadCron string `json:"reload_cron"` // empty disables scheduled reloads
	MCP        bool   `json:"mcp"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr: ":4200",
		DataDir:    "data",
		LogLevel:   "info",
		GatePolicy: "hard",
	}
}

func triagoDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".triago"
	}
	return filepath.Join(home, ".triago")
}

func settingsPath() string {
	return filepath.Join(triagoDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("TRIAGO_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TRIAGO_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TRIAGO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TRIAGO_GATE_POLICY"); v != "" {
		cfg.GatePolicy = v
	}
	if v := os.Getenv("TRIAGO_RELOAD_CRON"); v != "" {
		cfg.ReloadCron = v
	}
	if v := os.Getenv("TRIAGO_MCP"); v != "" {
		cfg.MCP = v == "true" || v == "1"
	}

	return cfg
}
