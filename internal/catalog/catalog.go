// Package catalog looks up album, genre and artwork metadata for artists and
// songs in third-party music catalogs.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"go.uber.org/zap"
)

// ErrNotFound means the catalog has no confident match. Callers treat the
// value as absent.
var ErrNotFound = errors.New("not found in catalog")

// MinSimilarity is the lowest Jaro-Winkler similarity accepted between a
// requested name and a catalog candidate.
const MinSimilarity = 0.85

type Album struct {
	ID       string
	Name     string
	Artist   string
	ImageURL string
}

// AlbumSource resolves the album a song was released on.
type AlbumSource interface {
	LookupAlbum(ctx context.Context, track, artist string) (Album, error)
}

type GenreSource interface {
	LookupGenres(ctx context.Context, artist string) ([]string, error)
}

type ArtworkSource interface {
	FetchArtwork(ctx context.Context, artist, album string) ([]byte, error)
}

var logger = zap.NewNop()

// InitializeLogger sets the logger for the catalog package.
func InitializeLogger(l *zap.Logger) {
	logger = l
}

var jaroWinkler = &metrics.JaroWinkler{CaseSensitive: false}

// Similarity compares two names ignoring case and surrounding whitespace.
func Similarity(a, b string) float64 {
	return strutil.Similarity(normalize(a), normalize(b), jaroWinkler)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// bestMatch returns the index of the highest scoring candidate, or -1 when no
// candidate reaches MinSimilarity. Earlier candidates win ties, since catalogs
// return results in relevance order.
func bestMatch(n int, score func(i int) float64) (int, float64) {
	best, bestScore := -1, 0.0
	for i := 0; i < n; i++ {
		s := score(i)
		if s < MinSimilarity {
			continue
		}
		if best == -1 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}
