package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type config struct {
	Listen       string
	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
	BufferSize   int
	QueueSize    int
}

func defaultConfig() config {
	return config{
		Listen:       ":5025", // conventional SCPI raw socket port
		Manufacturer: "SCPISIM",
		Model:        "DMM-1",
		Serial:       "0",
		Firmware:     "1.0",
		BufferSize:   1024,
		QueueSize:    16,
	}
}

type fileConfig struct {
	Listen       string `toml:"listen"`
	Manufacturer string `toml:"manufacturer"`
	Model        string `toml:"model"`
	Serial       string `toml:"serial"`
	Firmware     string `toml:"firmware"`
	BufferSize   int    `toml:"buffer_size"`
	QueueSize    int    `toml:"queue_size"`
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("listen") {
		addr := strings.TrimSpace(raw.Listen)
		if addr != "" {
			cfg.Listen = addr
		}
	}
	if meta.IsDefined("manufacturer") {
		cfg.Manufacturer = strings.TrimSpace(raw.Manufacturer)
	}
	if meta.IsDefined("model") {
		cfg.Model = strings.TrimSpace(raw.Model)
	}
	if meta.IsDefined("serial") {
		cfg.Serial = strings.TrimSpace(raw.Serial)
	}
	if meta.IsDefined("firmware") {
		cfg.Firmware = strings.TrimSpace(raw.Firmware)
	}
	if meta.IsDefined("buffer_size") {
		if raw.BufferSize <= 0 {
			return config{}, fmt.Errorf("buffer_size must be positive, got %d", raw.BufferSize)
		}
		cfg.BufferSize = raw.BufferSize
	}
	if meta.IsDefined("queue_size") {
		if raw.QueueSize <= 0 {
			return config{}, fmt.Errorf("queue_size must be positive, got %d", raw.QueueSize)
		}
		cfg.QueueSize = raw.QueueSize
	}

	return cfg, nil
}
