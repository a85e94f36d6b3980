package analysis

import (
	"fmt"

	"github.com/ademuri/unwrapped/internal/aggregate"
	"github.com/ademuri/unwrapped/internal/frequent"
	"github.com/ademuri/unwrapped/internal/history"
)

const (
	DefaultTopArtists  = 5
	DefaultTopTracks   = 10
	DefaultTopPodcasts = 5
	DefaultTopAlbums   = 5
	DefaultSampleRate  = 0.01
	DefaultSeed        = 1
)

// ConfigurationError reports an invalid setting. It is returned before any
// input is read.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Key, e.Reason)
}

// Config holds everything a session needs to turn history files into a
// summary.
type Config struct {
	Window           history.Window
	PodcastThreshold float64

	Strategy           aggregate.Strategy
	ArtistLgMaxMapSize int
	TrackLgMaxMapSize  int
	Workers            int

	TopArtists  int
	TopTracks   int
	TopPodcasts int
	TopAlbums   int

	// SampleRate is the probability that a song is looked up in the catalog
	// when building album rankings.
	SampleRate float64
	Seed       int64
}

func DefaultConfig() Config {
	return Config{
		Window:             history.DefaultWindow(history.DefaultYear),
		PodcastThreshold:   aggregate.DefaultPodcastThreshold,
		Strategy:           aggregate.StrategyExact,
		ArtistLgMaxMapSize: aggregate.DefaultArtistLgMaxMapSize,
		TrackLgMaxMapSize:  aggregate.DefaultTrackLgMaxMapSize,
		Workers:            1,
		TopArtists:         DefaultTopArtists,
		TopTracks:          DefaultTopTracks,
		TopPodcasts:        DefaultTopPodcasts,
		TopAlbums:          DefaultTopAlbums,
		SampleRate:         DefaultSampleRate,
		Seed:               DefaultSeed,
	}
}

func (c Config) Validate() error {
	if err := c.Window.Validate(); err != nil {
		return &ConfigurationError{Key: "window", Reason: err.Error()}
	}
	if !(c.PodcastThreshold >= 0) {
		return &ConfigurationError{Key: "podcast_threshold", Reason: fmt.Sprintf("%v is not a non-negative number of minutes", c.PodcastThreshold)}
	}
	strategy, err := aggregate.ParseStrategy(string(c.Strategy))
	if err != nil {
		return &ConfigurationError{Key: "strategy", Reason: err.Error()}
	}
	if strategy == aggregate.StrategySketch {
		for key, lg := range map[string]int{"artist_lg_k": c.ArtistLgMaxMapSize, "track_lg_k": c.TrackLgMaxMapSize} {
			if lg < frequent.MinLgMaxMapSize || lg > frequent.MaxLgMaxMapSize {
				return &ConfigurationError{Key: key, Reason: fmt.Sprintf("%d is outside [%d, %d]", lg, frequent.MinLgMaxMapSize, frequent.MaxLgMaxMapSize)}
			}
		}
	}
	if c.Workers < 1 {
		return &ConfigurationError{Key: "workers", Reason: fmt.Sprintf("%d is less than 1", c.Workers)}
	}
	for key, k := range map[string]int{
		"top_artists":  c.TopArtists,
		"top_tracks":   c.TopTracks,
		"top_podcasts": c.TopPodcasts,
		"top_albums":   c.TopAlbums,
	} {
		if k < 1 {
			return &ConfigurationError{Key: key, Reason: fmt.Sprintf("%d is less than 1", k)}
		}
	}
	if !(c.SampleRate > 0 && c.SampleRate <= 1) {
		return &ConfigurationError{Key: "sample_rate", Reason: fmt.Sprintf("%v is not in (0, 1]", c.SampleRate)}
	}
	return nil
}

func (c Config) aggregatorOptions() aggregate.Options {
	return aggregate.Options{
		Classifier:         aggregate.Classifier{PodcastThreshold: c.PodcastThreshold},
		Window:             c.Window,
		ArtistLgMaxMapSize: c.ArtistLgMaxMapSize,
		TrackLgMaxMapSize:  c.TrackLgMaxMapSize,
	}
}

// NewAggregator returns an empty aggregator for the configured strategy.
func (c Config) NewAggregator() (aggregate.Aggregator, error) {
	return aggregate.New(c.Strategy, c.aggregatorOptions())
}

// K returns the configured ranking length for a category and kind.
func (c Config) K(cat aggregate.Category, kind aggregate.Kind) int {
	if cat == aggregate.Podcast {
		return c.TopPodcasts
	}
	switch kind {
	case aggregate.Artist:
		return c.TopArtists
	case aggregate.Album:
		return c.TopAlbums
	}
	return c.TopTracks
}
