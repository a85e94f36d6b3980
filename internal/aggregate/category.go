package aggregate

import "fmt"

// Category splits listening into songs and podcasts.
type Category int

const (
	Song Category = iota
	Podcast
	numCategories
)

// Categories in presentation order.
var Categories = []Category{Song, Podcast}

func (c Category) String() string {
	switch c {
	case Song:
		return "song"
	case Podcast:
		return "podcast"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

const DefaultPodcastThreshold = 10.0

// Classifier decides the category of a record from its duration alone. Long
// listens are podcasts, everything else is a song, including zero, negative
// and NaN durations.
type Classifier struct {
	PodcastThreshold float64
}

func DefaultClassifier() Classifier {
	return Classifier{PodcastThreshold: DefaultPodcastThreshold}
}

func (c Classifier) Classify(minutes float64) Category {
	if minutes > c.PodcastThreshold {
		return Podcast
	}
	return Song
}
