// Package source loads configured dictionaries from disk and publishes them
// into a catalog.
package source

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dictlookup/internal/config"
	"dictlookup/internal/dictionary"
	"dictlookup/internal/source/arrowipc"
	"dictlookup/internal/source/csv"
	"dictlookup/internal/source/json"
)

// Load reads one dictionary using the reader for spec.Format.
func Load(ctx context.Context, spec config.Dictionary) (*dictionary.Dictionary, error) {
	var (
		d   *dictionary.Dictionary
		err error
	)
	switch spec.Format {
	case config.FormatCSV, "":
		d, err = csv.Read(ctx, spec)
	case config.FormatJSON:
		d, err = json.Read(ctx, spec)
	case config.FormatArrow:
		d, err = arrowipc.Read(ctx, spec)
	default:
		return nil, fmt.Errorf("dictionary %s: unknown format %q", spec.Name, spec.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("loading dictionary %s from %s: %w", spec.Name, spec.Path, err)
	}
	return d, nil
}

// LoadAll loads every spec concurrently and adds the results to c. The first
// failure cancels the remaining loads; nothing is published unless every
// dictionary loaded.
func LoadAll(ctx context.Context, c *dictionary.Catalog, specs []config.Dictionary, logger zerolog.Logger) error {
	loaded := make([]*dictionary.Dictionary, len(specs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, spec := range specs {
		g.Go(func() error {
			start := time.Now()
			d, err := Load(gCtx, spec)
			if err != nil {
				return err
			}
			logger.Info().
				Str("dictionary", spec.Name).
				Str("format", spec.Format).
				Int("rows", d.Len()).
				Dur("took", time.Since(start)).
				Msg("dictionary loaded")
			loaded[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, d := range loaded {
		if err := c.Add(d); err != nil {
			return err
		}
	}
	return nil
}
