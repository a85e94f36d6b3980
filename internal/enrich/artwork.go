package enrich

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ademuri/unwrapped/internal/analysis"
	"github.com/ademuri/unwrapped/internal/catalog"
)

// fetchArtwork downloads a cover for every listed album into ArtworkDir and
// records the file path on the stat. Albums that appear in both rankings are
// fetched once.
func (e *Enricher) fetchArtwork(ctx context.Context, rankings ...[]analysis.AlbumStat) error {
	if e.src.Artwork == nil || e.cfg.ArtworkDir == "" {
		return nil
	}
	if err := os.MkdirAll(e.cfg.ArtworkDir, 0o755); err != nil {
		return fmt.Errorf("creating artwork directory: %w", err)
	}

	paths := make(map[albumKey]string)
	for _, ranking := range rankings {
		for i := range ranking {
			if err := ctx.Err(); err != nil {
				return err
			}
			a := &ranking[i]
			key := albumKey{title: a.Title, artist: a.Artist}
			path, done := paths[key]
			if !done {
				path = e.saveArtwork(ctx, a.Artist, a.Title)
				paths[key] = path
			}
			a.Artwork = path
		}
	}
	return nil
}

func (e *Enricher) saveArtwork(ctx context.Context, artist, album string) string {
	data, err := e.src.Artwork.FetchArtwork(ctx, artist, album)
	if errors.Is(err, catalog.ErrNotFound) {
		return ""
	}
	if err != nil {
		logger.Warn("Artwork lookup failed", zap.String("artist", artist), zap.String("album", album), zap.Error(err))
		return ""
	}

	path := filepath.Join(e.cfg.ArtworkDir, artworkFilename(artist, album))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warn("Writing artwork", zap.String("path", path), zap.Error(err))
		return ""
	}
	return path
}

var unsafeFilename = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")

func artworkFilename(artist, album string) string {
	return unsafeFilename.Replace(artist+" - "+album) + ".jpg"
}
