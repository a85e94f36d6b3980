package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ademuri/unwrapped/internal/history"
)

func TestTopKOrderingAndTies(t *testing.T) {
	batch := []history.Record{
		rec("Zed", "1", 120000, "2023-01-01"),
		rec("Zed", "2", 120000, "2023-01-01"),
		rec("Abe", "3", 120000, "2023-01-01"),
		rec("Abe", "4", 120000, "2023-01-01"),
		rec("Mia", "5", 120000, "2023-01-01"),
		rec("Bo", "6", 120000, "2023-01-01"),
		rec("Bo", "7", 120000, "2023-01-01"),
		rec("Bo", "8", 120000, "2023-01-01"),
	}
	agg := finalized(t, NewExact(DefaultClassifier()), batch)

	top, err := TopK(agg, Query{Category: Song, Kind: Artist, Metric: Plays}, 3)
	require.NoError(t, err)
	require.Equal(t, []Ranked{
		{Name: "Bo", Value: 3},
		{Name: "Abe", Value: 2},
		{Name: "Zed", Value: 2},
	}, top.Entries)
	require.Equal(t, "plays", top.Unit())
	require.Equal(t, "3", top.FormatValue(top.Entries[0].Value))

	top, err = TopK(agg, Query{Category: Song, Kind: Artist, Metric: Minutes}, 10)
	require.NoError(t, err)
	require.Len(t, top.Entries, 4)
	require.Equal(t, "hours", top.Unit())
	require.InDelta(t, 0.1, top.Entries[0].Value, 1e-9)
	require.Equal(t, "0.100", top.FormatValue(top.Entries[0].Value))
	for i := 1; i < len(top.Entries); i++ {
		require.GreaterOrEqual(t, top.Entries[i-1].Value, top.Entries[i].Value)
	}
}

func TestTopKSizeBound(t *testing.T) {
	agg := finalized(t, NewExact(DefaultClassifier()), randomBatches(8, 2, 100)...)
	for _, k := range []int{1, 5, 1000} {
		top, err := TopK(agg, Query{Category: Song, Kind: Track, Metric: Plays}, k)
		require.NoError(t, err)
		require.LessOrEqual(t, len(top.Entries), k)
	}
}

func TestTopKEmptyAndInvalid(t *testing.T) {
	agg := finalized(t, NewExact(DefaultClassifier()))
	top, err := TopK(agg, Query{Category: Podcast, Kind: Artist, Metric: Plays}, 5)
	require.NoError(t, err)
	require.Empty(t, top.Entries)

	_, err = TopK(agg, Query{}, 0)
	require.ErrorIs(t, err, ErrInvalidK)
}

func TestFormatHoursThreeDecimals(t *testing.T) {
	r := Result{Query: Query{Category: Podcast, Kind: Artist, Metric: Minutes}}
	require.Equal(t, "0.194", r.FormatValue(11.0/60+40.0/3600))
	require.Equal(t, "2.000", r.FormatValue(2))
}
