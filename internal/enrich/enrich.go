// Package enrich resolves sampled songs to albums, looks up genres for top
// artists and optionally asks for recommendations. Lookup failures are logged
// and leave the value absent; they never fail the summary.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/ademuri/unwrapped/internal/aggregate"
	"github.com/ademuri/unwrapped/internal/analysis"
	"github.com/ademuri/unwrapped/internal/catalog"
	"github.com/ademuri/unwrapped/internal/store"
)

const (
	DefaultSampleRate      = analysis.DefaultSampleRate
	DefaultTopGenres       = 5
	DefaultRefreshInterval = 30 * 24 * time.Hour
)

var logger = zap.NewNop()

// InitializeLogger sets the logger for the enrich package.
func InitializeLogger(l *zap.Logger) {
	logger = l
}

// Cache is the subset of store.Store used to remember lookups.
type Cache interface {
	GetSongAlbum(artist, track string, maxAge time.Duration) (store.SongAlbum, bool, error)
	SaveSongAlbum(a store.SongAlbum) error
	GetArtistGenres(artist, source string, maxAge time.Duration) (store.ArtistGenres, bool, error)
	SaveArtistGenres(g store.ArtistGenres) error
	GetArtistsNeedingGenreUpdate(source string, interval time.Duration) ([]string, error)
}

type Recommender interface {
	Recommend(ctx context.Context, topArtists []string) (string, error)
}

// Sources are the collaborators an Enricher calls. Any of them may be nil,
// which skips that part of the enrichment.
type Sources struct {
	Albums      catalog.AlbumSource
	Genres      catalog.GenreSource
	Artwork     catalog.ArtworkSource
	Recommender Recommender
	Cache       Cache
}

type Config struct {
	SampleRate float64
	TopAlbums  int
	TopGenres  int
	// GenreSource names the genre collaborator in the cache.
	GenreSource     string
	RefreshInterval time.Duration
	// ArtworkDir receives cover images for the top albums. Empty skips
	// artwork.
	ArtworkDir string
	Recommend  bool
}

func DefaultConfig() Config {
	return Config{
		SampleRate:      DefaultSampleRate,
		TopAlbums:       5,
		TopGenres:       DefaultTopGenres,
		GenreSource:     "spotify",
		RefreshInterval: DefaultRefreshInterval,
	}
}

func (c Config) Validate() error {
	if !(c.SampleRate > 0 && c.SampleRate <= 1) {
		return &analysis.ConfigurationError{Key: "sample_rate", Reason: fmt.Sprintf("%v is not in (0, 1]", c.SampleRate)}
	}
	if c.TopAlbums < 1 {
		return &analysis.ConfigurationError{Key: "top_albums", Reason: fmt.Sprintf("%d is not positive", c.TopAlbums)}
	}
	if c.TopGenres < 1 {
		return &analysis.ConfigurationError{Key: "top_genres", Reason: fmt.Sprintf("%d is not positive", c.TopGenres)}
	}
	if c.RefreshInterval < 0 {
		return &analysis.ConfigurationError{Key: "refresh_interval", Reason: fmt.Sprintf("%s is negative", c.RefreshInterval)}
	}
	return nil
}

type Enricher struct {
	cfg Config
	rng *rand.Rand
	src Sources
}

// New builds an Enricher. rng decides which songs are sampled, so a seeded
// source gives repeatable reports.
func New(cfg Config, rng *rand.Rand, src Sources) (*Enricher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("enrich: nil random source")
	}
	return &Enricher{cfg: cfg, rng: rng, src: src}, nil
}

// Enrich runs every configured lookup against a finalized aggregator.
// topArtists is the song artist ranking the genres and recommendation are
// based on.
func (e *Enricher) Enrich(ctx context.Context, agg aggregate.Aggregator, topArtists []analysis.Stat) (*analysis.Enrichment, error) {
	pairs, err := agg.SongPairs()
	if err != nil {
		return nil, err
	}

	out := &analysis.Enrichment{SampleRate: e.cfg.SampleRate}

	if e.src.Albums != nil {
		albums, sampled, resolved, err := e.resolveAlbums(ctx, pairs)
		if err != nil {
			return nil, err
		}
		out.SampledSongs = sampled
		out.ResolvedSongs = resolved
		out.AlbumsByPlays, out.AlbumsByHours = albums.top(e.cfg.TopAlbums)
		if err := e.fetchArtwork(ctx, out.AlbumsByPlays, out.AlbumsByHours); err != nil {
			return nil, err
		}
	}

	if e.src.Genres != nil {
		genres, err := e.artistGenres(ctx, topArtists)
		if err != nil {
			return nil, err
		}
		out.ArtistGenres = genres
		out.TopGenres = topGenres(topArtists, genres, e.cfg.TopGenres)
	}

	if e.cfg.Recommend && e.src.Recommender != nil && len(topArtists) > 0 {
		out.Recommendation = e.recommend(ctx, topArtists)
	}

	logger.Info("Enriched summary",
		zap.Int("song_pairs", len(pairs)),
		zap.Int("sampled", out.SampledSongs),
		zap.Int("resolved", out.ResolvedSongs),
		zap.Int("artists_with_genres", len(out.ArtistGenres)))
	return out, nil
}

// resolveAlbums samples every song pair with probability SampleRate and
// credits the pair's plays and minutes to its album. Pairs are visited in
// artist, track order so the same seed samples the same songs.
func (e *Enricher) resolveAlbums(ctx context.Context, pairs []aggregate.SongPair) (*albumTally, int, int, error) {
	albums := newAlbumTally()
	sampled, resolved := 0, 0
	for _, p := range pairs {
		if e.rng.Float64() >= e.cfg.SampleRate {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, 0, 0, err
		}
		sampled++
		album, ok := e.lookupAlbum(ctx, p.Artist, p.Track)
		if !ok {
			continue
		}
		resolved++
		albums.add(album, p)
	}
	return albums, sampled, resolved, nil
}

func (e *Enricher) lookupAlbum(ctx context.Context, artist, track string) (store.SongAlbum, bool) {
	if e.src.Cache != nil {
		cached, ok, err := e.src.Cache.GetSongAlbum(artist, track, e.cfg.RefreshInterval)
		if err != nil {
			logger.Warn("Reading album cache", zap.String("artist", artist), zap.String("track", track), zap.Error(err))
		} else if ok {
			return cached, cached.Found
		}
	}

	album, err := e.src.Albums.LookupAlbum(ctx, track, artist)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		logger.Warn("Album lookup failed", zap.String("artist", artist), zap.String("track", track), zap.Error(err))
		return store.SongAlbum{}, false
	}

	entry := store.SongAlbum{Artist: artist, Track: track}
	if err == nil {
		entry.Album = album.Name
		entry.AlbumArtist = album.Artist
		entry.ImageURL = album.ImageURL
		entry.Found = true
	}
	if e.src.Cache != nil {
		if err := e.src.Cache.SaveSongAlbum(entry); err != nil {
			logger.Warn("Writing album cache", zap.String("artist", artist), zap.String("track", track), zap.Error(err))
		}
	}
	return entry, entry.Found
}

func (e *Enricher) artistGenres(ctx context.Context, artists []analysis.Stat) ([]analysis.ArtistGenres, error) {
	var out []analysis.ArtistGenres
	for _, a := range artists {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		genres := e.lookupGenres(ctx, a.Name)
		if len(genres) == 0 {
			continue
		}
		out = append(out, analysis.ArtistGenres{Artist: a.Name, Genres: genres})
	}
	return out, nil
}

func (e *Enricher) lookupGenres(ctx context.Context, artist string) []string {
	if e.src.Cache != nil {
		cached, ok, err := e.src.Cache.GetArtistGenres(artist, e.cfg.GenreSource, e.cfg.RefreshInterval)
		if err != nil {
			logger.Warn("Reading genre cache", zap.String("artist", artist), zap.Error(err))
		} else if ok {
			return cached.Genres
		}
	}

	genres, _ := e.fetchGenres(ctx, artist)
	return genres
}

// fetchGenres asks the genre source and caches the answer. ok is false when
// the lookup failed and nothing was cached.
func (e *Enricher) fetchGenres(ctx context.Context, artist string) (genres []string, ok bool) {
	genres, err := e.src.Genres.LookupGenres(ctx, artist)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		logger.Warn("Genre lookup failed", zap.String("artist", artist), zap.Error(err))
		return nil, false
	}

	if e.src.Cache != nil {
		entry := store.ArtistGenres{
			Artist: artist,
			Source: e.cfg.GenreSource,
			Genres: genres,
			Found:  err == nil,
		}
		if err := e.src.Cache.SaveArtistGenres(entry); err != nil {
			logger.Warn("Writing genre cache", zap.String("artist", artist), zap.Error(err))
		}
	}
	return genres, true
}

// RefreshGenres looks up every cached artist whose genres are older than the
// refresh interval again, and returns how many were updated.
func (e *Enricher) RefreshGenres(ctx context.Context) (int, error) {
	if e.src.Cache == nil || e.src.Genres == nil {
		return 0, errors.New("refreshing genres needs a cache and a genre source")
	}
	artists, err := e.src.Cache.GetArtistsNeedingGenreUpdate(e.cfg.GenreSource, e.cfg.RefreshInterval)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, artist := range artists {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		if _, ok := e.fetchGenres(ctx, artist); ok {
			updated++
		}
	}
	logger.Info("Refreshed genres",
		zap.String("source", e.cfg.GenreSource),
		zap.Int("stale", len(artists)),
		zap.Int("updated", updated))
	return updated, nil
}

// recommend is called at most once per Enrich.
func (e *Enricher) recommend(ctx context.Context, artists []analysis.Stat) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	text, err := e.src.Recommender.Recommend(ctx, names)
	if err != nil {
		logger.Warn("Recommendation failed", zap.Error(err))
		return ""
	}
	return text
}
