package aggregate

import (
	"fmt"
	"strings"
)

// Kind is the entity a table is keyed by. For podcasts the artist is the
// show and the track is the episode.
type Kind int

const (
	Artist Kind = iota
	Track
	// Album is only populated when the input carries album names.
	Album
	numKinds
)

var Kinds = []Kind{Artist, Track, Album}

func (k Kind) String() string {
	switch k {
	case Artist:
		return "artist"
	case Track:
		return "track"
	case Album:
		return "album"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Metric is what entities are ranked by.
type Metric int

const (
	Plays Metric = iota
	Minutes
	numMetrics
)

var Metrics = []Metric{Plays, Minutes}

func (m Metric) String() string {
	switch m {
	case Plays:
		return "plays"
	case Minutes:
		return "minutes"
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// ParseMetric accepts the names used on the command line.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "plays", "count", "playcount":
		return Plays, nil
	case "time", "minutes", "hours", "duration":
		return Minutes, nil
	}
	return 0, fmt.Errorf("unknown metric %q", s)
}

// Query selects one ranked table.
type Query struct {
	Category Category
	Kind     Kind
	Metric   Metric
}

func (q Query) String() string {
	return fmt.Sprintf("%s %ss by %s", q.Category, q.Kind, q.Metric)
}
