package export

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/sceneflat/internal/logger"
	"github.com/Faultbox/sceneflat/internal/scene"
	"github.com/Faultbox/sceneflat/internal/source"
	"github.com/Faultbox/sceneflat/internal/texinfo"
)

// Request describes one export.
type Request struct {
	// Output is the destination path. Required.
	Output string
	// Format selects the emitter; empty picks by Output extension.
	Format Format
	Order  scene.NodeOrder
	// CheckTextures probes every texture and logs a warning for each one
	// that is missing or unreadable. It never fails the export.
	CheckTextures bool
	Textures      texinfo.Options
}

// Stats summarizes a finished export.
type Stats struct {
	Format   Format
	Meshes   int
	Nodes    int
	Vertices int
	Polygons int
	Textures int
	Bytes    int64
	// MissingTextures counts textures that failed the check.
	MissingTextures int
}

// Run flattens src and writes it to req.Output. Either the complete
// artifact is written or nothing is.
func Run(ctx context.Context, src source.Scene, req Request) (Stats, error) {
	start := time.Now()

	format := req.Format
	if format == "" {
		format = FormatForPath(req.Output)
	}
	emitter, err := NewEmitter(format, req.Output)
	if err != nil {
		return Stats{}, err
	}

	flat, err := scene.Flatten(src, scene.Options{Variant: format.Variant(), Order: req.Order})
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		Format:   format,
		Meshes:   len(flat.Meshes),
		Nodes:    len(flat.Nodes),
		Vertices: flat.VertexCount(),
		Polygons: flat.PolygonCount(),
		Textures: len(flat.Textures),
	}
	logger.Debug("scene flattened",
		zap.Stringer("variant", flat.Variant),
		zap.Int("meshes", stats.Meshes),
		zap.Int("nodes", stats.Nodes),
		zap.Int("vertices", stats.Vertices),
		zap.Int("polygons", stats.Polygons))

	if req.CheckTextures {
		stats.MissingTextures = checkTextures(flat.Textures, req.Textures)
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	n, err := WriteFile(req.Output, emitter, flat)
	if err != nil {
		return stats, err
	}
	stats.Bytes = n

	logger.Info("scene exported",
		zap.String("path", req.Output),
		zap.String("format", string(format)),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", time.Since(start)))
	return stats, nil
}

func checkTextures(textures []scene.Texture, opts texinfo.Options) int {
	missing := 0
	for _, t := range textures {
		info, err := texinfo.Probe(t.Path, opts)
		if err != nil {
			missing++
			logger.Warn("texture check failed", zap.String("texture", t.Path), zap.Error(err))
			continue
		}
		logger.Debug("texture ok",
			zap.String("texture", t.Path),
			zap.String("format", info.Format),
			zap.Int("width", info.Width),
			zap.Int("height", info.Height))
	}
	return missing
}
