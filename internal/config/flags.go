package config

import (
	"flag"
	"strings"
)

// Flags holds command-line overrides for one subcommand.
type Flags struct {
	Config        string
	Debug         bool
	Format        string
	NodeOrder     string
	CheckTextures bool
	GRF           pathList
	LogFile       string
}

// Register adds the shared flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Format, "format", "", "Output format: header or binary")
	fs.StringVar(&f.NodeOrder, "order", "", "Node order: parents_first or source")
	fs.BoolVar(&f.CheckTextures, "check-textures", false, "Warn about missing or unreadable textures")
	fs.Var(&f.GRF, "grf", "GRF archive to search (repeatable)")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Format != "" {
		cfg.Export.Format = f.Format
	}
	if f.NodeOrder != "" {
		cfg.Export.NodeOrder = f.NodeOrder
	}
	if f.CheckTextures {
		cfg.Export.CheckTextures = true
	}
	if len(f.GRF) > 0 {
		cfg.Data.GRFPaths = append([]string(nil), f.GRF...)
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
}

// pathList is a repeatable string flag.
type pathList []string

func (p *pathList) String() string {
	return strings.Join(*p, ",")
}

func (p *pathList) Set(v string) error {
	*p = append(*p, v)
	return nil
}
