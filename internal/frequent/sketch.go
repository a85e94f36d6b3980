// Package frequent implements a weighted frequent-items sketch in the
// Misra-Gries family. The sketch keeps at most 0.75*2^lgMaxMapSize counters.
// When it overflows, the median counter value is subtracted from every
// counter, counters that reach zero are dropped and the median is added to
// the sketch's offset. For every item:
//
//	LowerBound(item) <= true weight <= UpperBound(item)
//
// and the gap is at most MaximumError, which is the accumulated offset.
package frequent

import (
	"errors"
	"fmt"
	"sort"
)

const (
	MinLgMaxMapSize = 3
	MaxLgMaxMapSize = 26
)

var ErrInvalidWeight = errors.New("weight must be positive")

// ErrorType selects which side of the error band FrequentItems filters on.
type ErrorType int

const (
	// NoFalsePositives returns items whose lower bound is above the maximum
	// error. Every returned item is truly frequent; some frequent items may be
	// missing.
	NoFalsePositives ErrorType = iota
	// NoFalseNegatives returns items whose upper bound is above the maximum
	// error. Every frequent item is returned, along with some that are not.
	NoFalseNegatives
)

func (e ErrorType) String() string {
	switch e {
	case NoFalsePositives:
		return "no-false-positives"
	case NoFalseNegatives:
		return "no-false-negatives"
	}
	return fmt.Sprintf("ErrorType(%d)", int(e))
}

// Row is one item returned by FrequentItems.
type Row struct {
	Item       string
	Estimate   int64
	LowerBound int64
	UpperBound int64
}

// Sketch is not safe for concurrent use.
type Sketch struct {
	lgMaxMapSize int
	capacity     int
	counts       map[string]int64
	offset       int64
	streamWeight int64
}

func New(lgMaxMapSize int) (*Sketch, error) {
	if lgMaxMapSize < MinLgMaxMapSize || lgMaxMapSize > MaxLgMaxMapSize {
		return nil, fmt.Errorf("lg max map size %d out of range [%d, %d]", lgMaxMapSize, MinLgMaxMapSize, MaxLgMaxMapSize)
	}
	capacity := 3 * (1 << lgMaxMapSize) / 4
	return &Sketch{
		lgMaxMapSize: lgMaxMapSize,
		capacity:     capacity,
		counts:       make(map[string]int64, capacity+1),
	}, nil
}

func (s *Sketch) LgMaxMapSize() int { return s.lgMaxMapSize }

// Capacity is the maximum number of counters kept after a purge.
func (s *Sketch) Capacity() int { return s.capacity }

func (s *Sketch) NumActive() int { return len(s.counts) }

func (s *Sketch) StreamWeight() int64 { return s.streamWeight }

func (s *Sketch) IsEmpty() bool { return s.streamWeight == 0 }

// MaximumError bounds UpperBound-LowerBound for every item.
func (s *Sketch) MaximumError() int64 { return s.offset }

// Update adds weight occurrences of item.
func (s *Sketch) Update(item string, weight int64) error {
	if weight <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWeight, weight)
	}
	s.streamWeight += weight
	s.counts[item] += weight
	if len(s.counts) > s.capacity {
		s.purge()
	}
	return nil
}

// Estimate is the upper bound for tracked items and zero otherwise.
func (s *Sketch) Estimate(item string) int64 {
	c, ok := s.counts[item]
	if !ok {
		return 0
	}
	return c + s.offset
}

func (s *Sketch) LowerBound(item string) int64 {
	return s.counts[item]
}

func (s *Sketch) UpperBound(item string) int64 {
	return s.counts[item] + s.offset
}

// Merge folds other into s. Counters and offsets are summed before a single
// purge. Pairwise merges of many sketches can purge at different points
// depending on order; use Union to fold a set of sketches.
func (s *Sketch) Merge(other *Sketch) {
	if other == nil || other.IsEmpty() {
		return
	}
	for item, c := range other.counts {
		s.counts[item] += c
	}
	s.offset += other.offset
	s.streamWeight += other.streamWeight
	s.purge()
}

// Union folds every sketch into a new sketch with the given map size. The
// counters of all inputs are summed first and purged once, so the result is
// the same for any ordering of sketches.
func Union(lgMaxMapSize int, sketches ...*Sketch) (*Sketch, error) {
	out, err := New(lgMaxMapSize)
	if err != nil {
		return nil, err
	}
	for _, s := range sketches {
		if s == nil {
			continue
		}
		for item, c := range s.counts {
			out.counts[item] += c
		}
		out.offset += s.offset
		out.streamWeight += s.streamWeight
	}
	out.purge()
	return out, nil
}

// FrequentItems returns items whose bound exceeds the maximum error, sorted
// by estimate descending and then by item ascending.
func (s *Sketch) FrequentItems(errorType ErrorType) []Row {
	threshold := s.offset
	var rows []Row
	for item, c := range s.counts {
		lower, upper := c, c+s.offset
		keep := lower > threshold
		if errorType == NoFalseNegatives {
			keep = upper > threshold
		}
		if !keep {
			continue
		}
		rows = append(rows, Row{
			Item:       item,
			Estimate:   upper,
			LowerBound: lower,
			UpperBound: upper,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Estimate != rows[j].Estimate {
			return rows[i].Estimate > rows[j].Estimate
		}
		return rows[i].Item < rows[j].Item
	})
	return rows
}

func (s *Sketch) String() string {
	return fmt.Sprintf("frequent.Sketch{lg=%d active=%d weight=%d maxError=%d}",
		s.lgMaxMapSize, len(s.counts), s.streamWeight, s.offset)
}

// purge runs until the number of counters fits the capacity. Each round
// removes at least half of the counters.
func (s *Sketch) purge() {
	for len(s.counts) > s.capacity {
		values := make([]int64, 0, len(s.counts))
		for _, c := range s.counts {
			values = append(values, c)
		}
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
		median := values[len(values)/2]

		for item, c := range s.counts {
			if c <= median {
				delete(s.counts, item)
			} else {
				s.counts[item] = c - median
			}
		}
		s.offset += median
	}
}
