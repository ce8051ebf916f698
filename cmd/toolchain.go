package cmd

import (
	"fmt"

	"github.com/agentic-research/fsmap/internal/config"
	"github.com/agentic-research/fsmap/internal/exiftool"
	"github.com/agentic-research/fsmap/internal/extract"
	"github.com/agentic-research/fsmap/internal/jsonmeta"
	"github.com/agentic-research/fsmap/internal/outline"
	"github.com/agentic-research/fsmap/internal/pdftext"
	"github.com/go-git/go-billy/v5"
	log "github.com/sirupsen/logrus"
)

// toolchain is the extractor registry of one run plus the co-process
// behind it.
type toolchain struct {
	reg  *extract.Registry
	exif *exiftool.Client
}

// newToolchain registers every extractor cfg enables. In-process
// extractors read through fs; exiftool and pdftohtml are handed paths and
// always read the host. Nothing is started here; exiftool launches on its
// first request.
func newToolchain(cfg *config.Config, logger log.FieldLogger, fs billy.Filesystem, extractors bool) (*toolchain, error) {
	tc := &toolchain{
		reg: extract.NewRegistry(extract.WithOverride(cfg.AllowOverride), extract.WithRegistryLogger(logger)),
	}
	if !extractors {
		return tc, nil
	}

	var xs []extract.Extractor
	if !cfg.Exiftool.Disabled {
		opts := []exiftool.Option{exiftool.WithLogger(logger)}
		if !cfg.PDFText.Disabled {
			opts = append(opts, exiftool.WithTextExtractor(pdftext.New(cfg.PDFText, pdftext.WithLogger(logger))))
		}
		tc.exif = exiftool.New(cfg.Exiftool, opts...)
		xs = append(xs, tc.exif)
	}
	if !cfg.Outline.Disabled {
		xs = append(xs, outline.New(outline.WithFS(fs), outline.WithLogger(logger)))
	}
	if !cfg.JSON.Disabled {
		j, err := jsonmeta.New(cfg.JSON, jsonmeta.WithFS(fs), jsonmeta.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("json extractor: %w", err)
		}
		xs = append(xs, j)
	}

	for _, x := range xs {
		if err := tc.reg.Register(x); err != nil {
			return nil, err
		}
	}
	logger.WithField("suffixes", tc.reg.Suffixes()).Debugf("registered %d suffixes", tc.reg.Len())
	return tc, nil
}

// Close stops the co-process if it was started.
func (tc *toolchain) Close() error {
	if tc == nil || tc.exif == nil {
		return nil
	}
	if err := tc.exif.Close(); err != nil {
		return fmt.Errorf("stop exiftool: %w", err)
	}
	return nil
}
