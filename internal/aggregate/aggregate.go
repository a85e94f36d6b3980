// Package aggregate folds playback records into per-entity play counts and
// listening time, split by category, and extracts top-K rankings from the
// result. Two strategies share one interface: Exact keeps every entity and
// Approximate keeps bounded frequent-items sketches per month.
package aggregate

import (
	"fmt"
	"math"
	"strings"

	"github.com/ademuri/unwrapped/internal/history"
)

// Aggregator accumulates records until Finalize, after which it is read-only.
// Aggregators are not safe for concurrent use; see IngestParallel.
type Aggregator interface {
	Strategy() Strategy
	// Ingest folds a batch into the running state. Ingesting the same batch
	// twice counts it twice.
	Ingest(batch []history.Record) error
	// Merge adds the state of another un-finalized aggregator of the same
	// strategy. other must not be used afterwards.
	Merge(other Aggregator) error
	Finalize() error
	Finalized() bool

	// Items returns every candidate entity for q with its value in the
	// metric's unit: a play count or minutes.
	Items(q Query) ([]Item, error)
	Distinct(c Category, k Kind) (uint64, error)
	Totals(c Category) (Totals, error)
	// SongPairs returns per (artist, track) song tallies, used to build album
	// rankings after catalog lookups.
	SongPairs() ([]SongPair, error)
}

type Item struct {
	Name  string
	Value float64
}

type Totals struct {
	Plays   int64
	Minutes float64
}

type SongPair struct {
	Artist  string
	Track   string
	Plays   int64
	Minutes float64
}

type Strategy string

const (
	StrategyExact  Strategy = "exact"
	StrategySketch Strategy = "sketch"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case StrategyExact:
		return StrategyExact, nil
	case StrategySketch:
		return StrategySketch, nil
	}
	return "", fmt.Errorf("unknown strategy %q, want %q or %q", s, StrategyExact, StrategySketch)
}

const (
	DefaultArtistLgMaxMapSize = 7
	DefaultTrackLgMaxMapSize  = 10
)

// Options configure a new aggregator. Window and the map sizes are only used
// by the sketch strategy.
type Options struct {
	Classifier         Classifier
	Window             history.Window
	ArtistLgMaxMapSize int
	TrackLgMaxMapSize  int
}

func DefaultOptions(year int) Options {
	return Options{
		Classifier:         DefaultClassifier(),
		Window:             history.DefaultWindow(year),
		ArtistLgMaxMapSize: DefaultArtistLgMaxMapSize,
		TrackLgMaxMapSize:  DefaultTrackLgMaxMapSize,
	}
}

// New returns an empty aggregator for the strategy.
func New(s Strategy, opts Options) (Aggregator, error) {
	parsed, err := ParseStrategy(string(s))
	if err != nil {
		return nil, err
	}
	if parsed == StrategySketch {
		return NewApproximate(opts)
	}
	return NewExact(opts.Classifier), nil
}

// tally keeps time in milliseconds so that sums do not depend on the order
// in which records and partial aggregates are added.
type tally struct {
	plays  int64
	millis int64
}

func (t *tally) add(o tally) {
	t.plays += o.plays
	t.millis += o.millis
}

func (t tally) minutes() float64 {
	return float64(t.millis) / 60000
}

func recordTally(minutes float64) tally {
	return tally{plays: 1, millis: durationMillis(minutes)}
}

func durationMillis(minutes float64) int64 {
	if math.IsNaN(minutes) || minutes <= 0 {
		return 0
	}
	return int64(math.Round(minutes * 60000))
}

// entityName returns the record's key for kind, or "" when unknown.
func entityName(r history.Record, k Kind) string {
	switch k {
	case Artist:
		return r.Artist
	case Track:
		return r.Track
	case Album:
		return r.Album
	}
	return ""
}
