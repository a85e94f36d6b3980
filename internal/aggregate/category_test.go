package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	c := DefaultClassifier()
	tests := []struct {
		minutes float64
		want    Category
	}{
		{3, Song},
		{10.0, Song},
		{10.0001, Podcast},
		{11.67, Podcast},
		{0, Song},
		{-4, Song},
		{math.NaN(), Song},
		{math.Inf(1), Podcast},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, c.Classify(tt.minutes), "minutes=%v", tt.minutes)
		// Same input, same answer.
		require.Equal(t, c.Classify(tt.minutes), c.Classify(tt.minutes))
	}
}

func TestClassifyCustomThreshold(t *testing.T) {
	c := Classifier{PodcastThreshold: 20}
	require.Equal(t, Song, c.Classify(15))
	require.Equal(t, Podcast, c.Classify(20.5))
}

func TestParseMetricAndStrategy(t *testing.T) {
	m, err := ParseMetric("time")
	require.NoError(t, err)
	require.Equal(t, Minutes, m)
	m, err = ParseMetric("Plays")
	require.NoError(t, err)
	require.Equal(t, Plays, m)
	_, err = ParseMetric("bpm")
	require.Error(t, err)

	s, err := ParseStrategy("SKETCH")
	require.NoError(t, err)
	require.Equal(t, StrategySketch, s)
	_, err = ParseStrategy("magic")
	require.Error(t, err)

	agg, err := New("Sketch", DefaultOptions(2023))
	require.NoError(t, err)
	require.Equal(t, StrategySketch, agg.Strategy())
	_, err = New("magic", DefaultOptions(2023))
	require.Error(t, err)
}
