package aggregate

import (
	"fmt"
	"sort"
)

// Ranked is one row of a top-K result. Value is a play count for Plays and
// hours for Minutes.
type Ranked struct {
	Name  string
	Value float64
}

type Result struct {
	Query   Query
	Entries []Ranked
}

// Unit names the unit of Ranked values for the query's metric.
func (r Result) Unit() string {
	if r.Query.Metric == Minutes {
		return "hours"
	}
	return "plays"
}

// FormatValue renders v in the result's unit.
func (r Result) FormatValue(v float64) string {
	if r.Query.Metric == Minutes {
		return fmt.Sprintf("%.3f", v)
	}
	return fmt.Sprintf("%d", int64(v))
}

// TopK returns at most k entities for q, highest value first. Equal values
// are ordered by name so that results are deterministic.
func TopK(agg Aggregator, q Query, k int) (Result, error) {
	if k < 1 {
		return Result{}, fmt.Errorf("top %d: %w", k, ErrInvalidK)
	}
	items, err := agg.Items(q)
	if err != nil {
		return Result{}, err
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Value != items[j].Value {
			return items[i].Value > items[j].Value
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > k {
		items = items[:k]
	}

	result := Result{Query: q, Entries: make([]Ranked, 0, len(items))}
	for _, item := range items {
		v := item.Value
		if q.Metric == Minutes {
			v = v / 60
		}
		result.Entries = append(result.Entries, Ranked{Name: item.Name, Value: v})
	}
	return result, nil
}
