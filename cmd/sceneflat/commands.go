package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/sceneflat/internal/assets"
	"github.com/Faultbox/sceneflat/internal/config"
	"github.com/Faultbox/sceneflat/internal/export"
	"github.com/Faultbox/sceneflat/internal/logger"
	"github.com/Faultbox/sceneflat/internal/scene"
	"github.com/Faultbox/sceneflat/internal/source"
	"github.com/Faultbox/sceneflat/internal/texinfo"
	"github.com/Faultbox/sceneflat/pkg/formats"
	"github.com/Faultbox/sceneflat/pkg/grf"
)

// setup parses the shared flags, loads the config and starts logging.
func setup(fs *flag.FlagSet, args []string) (*config.Config, error) {
	var flags config.Flags
	flags.Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openAssets opens the configured GRF archives. The returned close
// function logs cache usage.
func openAssets(cfg *config.Config) (*assets.Manager, func(), error) {
	m, err := assets.Open(cfg.Data.GRFPaths)
	if err != nil {
		return nil, nil, err
	}
	return m, func() {
		hits, misses := m.CacheStats()
		logger.Debug("archives closed", zap.Int("cache_hits", hits), zap.Int("cache_misses", misses))
		if err := m.Close(); err != nil {
			logger.Warn("closing archives", zap.Error(err))
		}
	}, nil
}

func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: sceneflat %s\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

func cmdExport(args []string, stdout io.Writer) error {
	fs := newFlagSet("export", "export [options] <scene> <output>")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}
	input, output := fs.Arg(0), fs.Arg(1)

	var format export.Format
	if cfg.Export.Format != "" {
		if format, err = export.ParseFormat(cfg.Export.Format); err != nil {
			return err
		}
	}
	order, err := scene.ParseNodeOrder(cfg.Export.NodeOrder)
	if err != nil {
		return err
	}

	archives, closeArchives, err := openAssets(cfg)
	if err != nil {
		return err
	}
	defer closeArchives()

	src, err := source.Open(input, source.OpenOptions{Assets: archives})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := export.Run(ctx, src, export.Request{
		Output:        output,
		Format:        format,
		Order:         order,
		CheckTextures: cfg.Export.CheckTextures,
		Textures: texinfo.Options{
			BaseDir: filepath.Dir(input),
			Assets:  archives,
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Wrote %s (%s, %d bytes)\n", output, stats.Format, stats.Bytes)
	fmt.Fprintf(stdout, "  Meshes:   %d\n", stats.Meshes)
	fmt.Fprintf(stdout, "  Nodes:    %d\n", stats.Nodes)
	fmt.Fprintf(stdout, "  Vertices: %d\n", stats.Vertices)
	fmt.Fprintf(stdout, "  Polygons: %d\n", stats.Polygons)
	fmt.Fprintf(stdout, "  Textures: %d\n", stats.Textures)
	if stats.MissingTextures > 0 {
		fmt.Fprintf(stdout, "  Missing textures: %d\n", stats.MissingTextures)
	}
	return nil
}

func cmdInspect(args []string, stdout io.Writer) error {
	fs := newFlagSet("inspect", "inspect <file.scb>")
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	scb, err := formats.ParseSCBFile(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "File:     %s\n", fs.Arg(0))
	fmt.Fprintf(stdout, "Version:  %d\n", scb.Version)
	fmt.Fprintf(stdout, "Nodes:    %d\n", len(scb.Nodes))
	fmt.Fprintf(stdout, "Bones:    %d\n", len(scb.Bones))
	fmt.Fprintf(stdout, "Meshes:   %d\n", len(scb.Meshes))
	fmt.Fprintf(stdout, "Vertices: %d\n", scb.VertexCount())
	fmt.Fprintf(stdout, "Polygons: %d\n", scb.PolygonCount())
	fmt.Fprintf(stdout, "Material: ambient=%q diffuse=%q specular=%q\n",
		scb.Material.Ambient, scb.Material.Diffuse, scb.Material.Specular)

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Nodes:")
	for i, n := range scb.Nodes {
		fmt.Fprintf(stdout, "  %3d %-32s parent=%s mesh=%s\n", i, n.Name, indexString(n.Parent), indexString(n.Mesh))
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Meshes:")
	for i, m := range scb.Meshes {
		fmt.Fprintf(stdout, "  %3d %-32s vertices=%d polygons=%d\n", i, m.Name, len(m.Vertices), len(m.Polygons))
	}
	return nil
}

func indexString(i uint16) string {
	if i == formats.SCBNoIndex {
		return "-"
	}
	return fmt.Sprint(i)
}

func cmdTextures(args []string, stdout io.Writer) error {
	fs := newFlagSet("textures", "textures [options] <scene>")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	input := fs.Arg(0)

	archives, closeArchives, err := openAssets(cfg)
	if err != nil {
		return err
	}
	defer closeArchives()

	src, err := source.Open(input, source.OpenOptions{Assets: archives})
	if err != nil {
		return err
	}
	opts := texinfo.Options{BaseDir: filepath.Dir(input), Assets: archives}

	missing := 0
	for _, img := range src.Images() {
		info, err := texinfo.Probe(img.Filepath, opts)
		if err != nil {
			missing++
			fmt.Fprintf(stdout, "  %-48s MISSING (%v)\n", img.Filepath, err)
			continue
		}
		where := "disk"
		if info.Archive != "" {
			where = info.Archive
		}
		fmt.Fprintf(stdout, "  %-48s %-5s %5dx%-5d %s\n", img.Filepath, info.Format, info.Width, info.Height, where)
	}

	fmt.Fprintf(stdout, "\n%d textures, %d missing\n", len(src.Images()), missing)
	return nil
}

func cmdModels(args []string, stdout io.Writer) error {
	fs := newFlagSet("models", "models [-n N] <file.grf> [pattern]")
	limit := fs.Int("n", 0, "Limit output to N models (0 = all)")
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errUsage
	}

	archive, err := grf.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	pattern := "*"
	if fs.NArg() > 1 {
		pattern = fs.Arg(1)
	}

	count := 0
	for _, f := range archive.Glob(pattern) {
		if !strings.HasSuffix(f, ".rsm") {
			continue
		}
		fmt.Fprintln(stdout, f)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	fmt.Fprintf(stdout, "\n%d models\n", count)
	return nil
}

func cmdConfig(args []string, stdout io.Writer) error {
	fs := newFlagSet("config", "config [-o path]")
	out := fs.String("o", "", "Write to this path instead of the user config directory")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg := config.Default()
	path := *out
	if path == "" {
		var err error
		if path, err = cfg.Save(); err != nil {
			return err
		}
	} else if err := cfg.SaveTo(path); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}
