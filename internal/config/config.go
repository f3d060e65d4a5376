// Package config handles sceneflat configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/sceneflat/internal/export"
	"github.com/Faultbox/sceneflat/internal/logger"
	"github.com/Faultbox/sceneflat/internal/scene"
)

// Config holds all settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds export settings.
type ExportConfig struct {
	Format        string `yaml:"format"`     // header or binary; empty picks by output extension
	NodeOrder     string `yaml:"node_order"` // parents_first or source
	CheckTextures bool   `yaml:"check_textures"`
}

// DataConfig holds game data file paths.
type DataConfig struct {
	GRFPaths []string `yaml:"grf_paths"` // archives searched for models and textures
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Format:        "",
			NodeOrder:     scene.OrderParentsFirst.String(),
			CheckTextures: false,
		},
		Data: DataConfig{
			GRFPaths: nil,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if c.Export.Format != "" {
		if _, err := export.ParseFormat(c.Export.Format); err != nil {
			return fmt.Errorf("export.format: %w", err)
		}
	}
	if _, err := scene.ParseNodeOrder(c.Export.NodeOrder); err != nil {
		return fmt.Errorf("export.node_order: %w", err)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
