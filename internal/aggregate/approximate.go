package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/axiomhq/hyperloglog"
	"go.uber.org/zap"

	"github.com/ademuri/unwrapped/internal/frequent"
	"github.com/ademuri/unwrapped/internal/history"
)

const pairSeparator = "\x00"

// monthSketches holds one frequent-items sketch per (category, kind, metric)
// for a single month, plus the song pair sketches.
type monthSketches struct {
	items [numCategories][numKinds][numMetrics]*frequent.Sketch
	pairs [numMetrics]*frequent.Sketch
}

// Approximate trades exactness for bounded memory. Each admissible month gets
// its own sketches; Finalize unions them into yearly sketches. Rankings only
// include entities whose lower bound is above the sketch error, so when the
// map size is small relative to the number of heavy entities, fewer entities
// come back than were asked for.
type Approximate struct {
	classifier Classifier
	window     history.Window
	artistLg   int
	trackLg    int

	// parts[0] is filled by Ingest; Merge appends the parts of other
	// aggregators so that Finalize can union everything at once.
	parts    []map[time.Month]*monthSketches
	distinct [numCategories][numKinds]*hyperloglog.Sketch
	totals   [numCategories]tally

	yearly      [numCategories][numKinds][numMetrics]*frequent.Sketch
	yearlyPairs [numMetrics]*frequent.Sketch
	finalized   bool
}

func NewApproximate(opts Options) (*Approximate, error) {
	if err := opts.Window.Validate(); err != nil {
		return nil, err
	}
	for _, lg := range []int{opts.ArtistLgMaxMapSize, opts.TrackLgMaxMapSize} {
		if lg < frequent.MinLgMaxMapSize || lg > frequent.MaxLgMaxMapSize {
			return nil, fmt.Errorf("sketch map size %d out of range [%d, %d]", lg, frequent.MinLgMaxMapSize, frequent.MaxLgMaxMapSize)
		}
	}
	a := &Approximate{
		classifier: opts.Classifier,
		window:     opts.Window,
		artistLg:   opts.ArtistLgMaxMapSize,
		trackLg:    opts.TrackLgMaxMapSize,
		parts:      []map[time.Month]*monthSketches{{}},
	}
	for c := range a.distinct {
		for k := range a.distinct[c] {
			a.distinct[c][k] = hyperloglog.New()
		}
	}
	return a, nil
}

func (a *Approximate) Strategy() Strategy { return StrategySketch }

func (a *Approximate) Finalized() bool { return a.finalized }

func (a *Approximate) lgFor(k Kind) int {
	if k == Artist {
		return a.artistLg
	}
	return a.trackLg
}

func (a *Approximate) month(m time.Month) (*monthSketches, error) {
	if b, ok := a.parts[0][m]; ok {
		return b, nil
	}
	b := &monthSketches{}
	var err error
	for c := range b.items {
		for k := range b.items[c] {
			for i := range b.items[c][k] {
				if b.items[c][k][i], err = frequent.New(a.lgFor(Kind(k))); err != nil {
					return nil, err
				}
			}
		}
	}
	for i := range b.pairs {
		if b.pairs[i], err = frequent.New(a.trackLg); err != nil {
			return nil, err
		}
	}
	a.parts[0][m] = b
	return b, nil
}

// Ingest rejects the whole batch if any record falls outside the window.
func (a *Approximate) Ingest(batch []history.Record) error {
	if a.finalized {
		return &StateError{Op: "ingest", Err: ErrFinalized}
	}
	for i, r := range batch {
		if !a.window.Contains(r.EndTime) {
			return fmt.Errorf("record %d at %s is outside %s", i, r.EndTime.Format(time.RFC3339), a.window)
		}
	}

	for _, r := range batch {
		b, err := a.month(r.EndTime.Month())
		if err != nil {
			return err
		}
		cat := a.classifier.Classify(r.Minutes)
		t := recordTally(r.Minutes)
		a.totals[cat].add(t)
		weights := [numMetrics]int64{Plays: 1, Minutes: minutesWeight(r.Minutes)}

		for _, k := range Kinds {
			name := entityName(r, k)
			if name == "" {
				continue
			}
			a.distinct[cat][k].Insert([]byte(name))
			for m, w := range weights {
				if w <= 0 {
					continue
				}
				if err := b.items[cat][k][m].Update(name, w); err != nil {
					return err
				}
			}
		}

		if cat == Song {
			key := r.Artist + pairSeparator + r.Track
			for m, w := range weights {
				if w <= 0 {
					continue
				}
				if err := b.pairs[m].Update(key, w); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// minutesWeight rounds listening time up to whole minutes, since sketch
// weights are integers.
func minutesWeight(minutes float64) int64 {
	if math.IsNaN(minutes) || minutes <= 0 {
		return 0
	}
	return int64(math.Ceil(minutes))
}

func (a *Approximate) Merge(other Aggregator) error {
	if a.finalized {
		return &StateError{Op: "merge", Err: ErrFinalized}
	}
	o, ok := other.(*Approximate)
	if !ok {
		return fmt.Errorf("cannot merge %s aggregator into %s aggregator", other.Strategy(), a.Strategy())
	}
	if o.finalized {
		return &StateError{Op: "merge", Err: ErrFinalized}
	}
	if o == a {
		return fmt.Errorf("cannot merge an aggregator into itself")
	}
	if o.artistLg != a.artistLg || o.trackLg != a.trackLg {
		return fmt.Errorf("cannot merge sketches of different sizes")
	}

	for c := range a.distinct {
		a.totals[c].add(o.totals[c])
		for k := range a.distinct[c] {
			if err := a.distinct[c][k].Merge(o.distinct[c][k]); err != nil {
				return fmt.Errorf("merging distinct counts: %w", err)
			}
		}
	}
	a.parts = append(a.parts, o.parts...)
	o.parts = nil
	return nil
}

// Finalize unions every month's sketches into yearly sketches.
func (a *Approximate) Finalize() error {
	if a.finalized {
		return &StateError{Op: "finalize", Err: ErrFinalized}
	}

	perTable := 0
	for c := range a.yearly {
		for k := range a.yearly[c] {
			for m := range a.yearly[c][k] {
				var inputs []*frequent.Sketch
				for _, part := range a.parts {
					for _, b := range part {
						inputs = append(inputs, b.items[c][k][m])
					}
				}
				perTable = len(inputs)
				y, err := frequent.Union(a.lgFor(Kind(k)), inputs...)
				if err != nil {
					return err
				}
				a.yearly[c][k][m] = y
			}
		}
	}
	for m := range a.yearlyPairs {
		var inputs []*frequent.Sketch
		for _, part := range a.parts {
			for _, b := range part {
				inputs = append(inputs, b.pairs[m])
			}
		}
		y, err := frequent.Union(a.trackLg, inputs...)
		if err != nil {
			return err
		}
		a.yearlyPairs[m] = y
	}

	logger.Debug("Merged monthly sketches",
		zap.Int("parts", len(a.parts)),
		zap.Int("month_sketches", perTable),
		zap.Int64("song_artist_error", a.yearly[Song][Artist][Plays].MaximumError()))
	a.parts = nil
	a.finalized = true
	return nil
}

func (a *Approximate) Items(q Query) ([]Item, error) {
	if !a.finalized {
		return nil, &StateError{Op: "items", Err: ErrNotFinalized}
	}
	rows := a.yearly[q.Category][q.Kind][q.Metric].FrequentItems(frequent.NoFalsePositives)
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, Item{Name: row.Item, Value: float64(row.Estimate)})
	}
	return items, nil
}

// MaximumError is the error bound of the yearly sketch behind q, in the
// metric's unit.
func (a *Approximate) MaximumError(q Query) (int64, error) {
	if !a.finalized {
		return 0, &StateError{Op: "maximum error", Err: ErrNotFinalized}
	}
	return a.yearly[q.Category][q.Kind][q.Metric].MaximumError(), nil
}

func (a *Approximate) Distinct(c Category, k Kind) (uint64, error) {
	if !a.finalized {
		return 0, &StateError{Op: "distinct", Err: ErrNotFinalized}
	}
	return a.distinct[c][k].Estimate(), nil
}

func (a *Approximate) Totals(c Category) (Totals, error) {
	if !a.finalized {
		return Totals{}, &StateError{Op: "totals", Err: ErrNotFinalized}
	}
	return Totals{Plays: a.totals[c].plays, Minutes: a.totals[c].minutes()}, nil
}

// SongPairs only returns pairs that survived in the yearly play sketch. Plays
// and minutes are both upper bounds. Pairs are sorted by artist and then track.
func (a *Approximate) SongPairs() ([]SongPair, error) {
	if !a.finalized {
		return nil, &StateError{Op: "song pairs", Err: ErrNotFinalized}
	}
	rows := a.yearlyPairs[Plays].FrequentItems(frequent.NoFalsePositives)
	pairs := make([]SongPair, 0, len(rows))
	for _, row := range rows {
		artist, track, _ := strings.Cut(row.Item, pairSeparator)
		pairs = append(pairs, SongPair{
			Artist:  artist,
			Track:   track,
			Plays:   row.UpperBound,
			Minutes: float64(a.yearlyPairs[Minutes].UpperBound(row.Item)),
		})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Artist != pairs[j].Artist {
			return pairs[i].Artist < pairs[j].Artist
		}
		return pairs[i].Track < pairs[j].Track
	})
	return pairs, nil
}
