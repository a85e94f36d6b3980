package aggregate

import (
	"fmt"
	"sort"

	"github.com/ademuri/unwrapped/internal/history"
)

type pairKey struct {
	artist string
	track  string
}

// Exact keeps a tally for every entity it has seen. Memory grows with the
// number of distinct artists, tracks and albums.
type Exact struct {
	classifier Classifier
	tables     [numCategories][numKinds]map[string]*tally
	pairs      map[pairKey]*tally
	totals     [numCategories]tally
	finalized  bool
}

func NewExact(c Classifier) *Exact {
	e := &Exact{
		classifier: c,
		pairs:      make(map[pairKey]*tally),
	}
	for i := range e.tables {
		for k := range e.tables[i] {
			e.tables[i][k] = make(map[string]*tally)
		}
	}
	return e
}

func (e *Exact) Strategy() Strategy { return StrategyExact }

func (e *Exact) Finalized() bool { return e.finalized }

func (e *Exact) Ingest(batch []history.Record) error {
	if e.finalized {
		return &StateError{Op: "ingest", Err: ErrFinalized}
	}
	for _, r := range batch {
		cat := e.classifier.Classify(r.Minutes)
		t := recordTally(r.Minutes)
		e.totals[cat].add(t)
		for _, k := range Kinds {
			name := entityName(r, k)
			if name == "" {
				continue
			}
			addTally(e.tables[cat][k], name, t)
		}
		if cat == Song {
			key := pairKey{artist: r.Artist, track: r.Track}
			if p, ok := e.pairs[key]; ok {
				p.add(t)
			} else {
				e.pairs[key] = &tally{plays: t.plays, millis: t.millis}
			}
		}
	}
	return nil
}

func addTally(table map[string]*tally, name string, t tally) {
	if existing, ok := table[name]; ok {
		existing.add(t)
		return
	}
	table[name] = &tally{plays: t.plays, millis: t.millis}
}

func (e *Exact) Merge(other Aggregator) error {
	if e.finalized {
		return &StateError{Op: "merge", Err: ErrFinalized}
	}
	o, ok := other.(*Exact)
	if !ok {
		return fmt.Errorf("cannot merge %s aggregator into %s aggregator", other.Strategy(), e.Strategy())
	}
	if o.finalized {
		return &StateError{Op: "merge", Err: ErrFinalized}
	}
	if o == e {
		return fmt.Errorf("cannot merge an aggregator into itself")
	}
	for c := range o.tables {
		e.totals[c].add(o.totals[c])
		for k := range o.tables[c] {
			for name, t := range o.tables[c][k] {
				addTally(e.tables[c][k], name, *t)
			}
		}
	}
	for key, t := range o.pairs {
		if p, ok := e.pairs[key]; ok {
			p.add(*t)
		} else {
			e.pairs[key] = &tally{plays: t.plays, millis: t.millis}
		}
	}
	return nil
}

func (e *Exact) Finalize() error {
	if e.finalized {
		return &StateError{Op: "finalize", Err: ErrFinalized}
	}
	e.finalized = true
	return nil
}

func (e *Exact) Items(q Query) ([]Item, error) {
	if !e.finalized {
		return nil, &StateError{Op: "items", Err: ErrNotFinalized}
	}
	table := e.tables[q.Category][q.Kind]
	items := make([]Item, 0, len(table))
	for name, t := range table {
		v := float64(t.plays)
		if q.Metric == Minutes {
			v = t.minutes()
		}
		items = append(items, Item{Name: name, Value: v})
	}
	return items, nil
}

func (e *Exact) Distinct(c Category, k Kind) (uint64, error) {
	if !e.finalized {
		return 0, &StateError{Op: "distinct", Err: ErrNotFinalized}
	}
	return uint64(len(e.tables[c][k])), nil
}

func (e *Exact) Totals(c Category) (Totals, error) {
	if !e.finalized {
		return Totals{}, &StateError{Op: "totals", Err: ErrNotFinalized}
	}
	return Totals{Plays: e.totals[c].plays, Minutes: e.totals[c].minutes()}, nil
}

// SongPairs is sorted by artist and then track.
func (e *Exact) SongPairs() ([]SongPair, error) {
	if !e.finalized {
		return nil, &StateError{Op: "song pairs", Err: ErrNotFinalized}
	}
	pairs := make([]SongPair, 0, len(e.pairs))
	for key, t := range e.pairs {
		pairs = append(pairs, SongPair{
			Artist:  key.artist,
			Track:   key.track,
			Plays:   t.plays,
			Minutes: t.minutes(),
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
