package aggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ademuri/unwrapped/internal/history"
)

func TestExactScenario(t *testing.T) {
	agg := finalized(t, NewExact(DefaultClassifier()), scenarioBatch())

	top, err := TopK(agg, Query{Category: Song, Kind: Artist, Metric: Plays}, 1)
	require.NoError(t, err)
	require.Equal(t, []Ranked{{Name: "Artist A", Value: 2}}, top.Entries)

	top, err = TopK(agg, Query{Category: Podcast, Kind: Artist, Metric: Minutes}, 1)
	require.NoError(t, err)
	require.Len(t, top.Entries, 1)
	require.Equal(t, "Artist B", top.Entries[0].Name)
	require.InDelta(t, 11.6667/60, top.Entries[0].Value, 0.0001)

	songs, err := agg.Totals(Song)
	require.NoError(t, err)
	require.Equal(t, int64(2), songs.Plays)
	require.InDelta(t, 13.0, songs.Minutes, 1e-9)

	n, err := agg.Distinct(Song, Track)
	require.NoError(t, err)
	require.Equal(t, uint64(2), n)
	n, err = agg.Distinct(Song, Album)
	require.NoError(t, err)
	require.Equal(t, uint64(0), n)
}

func TestExactCategoriesAreDisjoint(t *testing.T) {
	agg := finalized(t, NewExact(DefaultClassifier()), randomBatches(1, 4, 200)...)

	for _, k := range Kinds {
		songs, err := agg.Items(Query{Category: Song, Kind: k, Metric: Plays})
		require.NoError(t, err)
		podcasts, err := agg.Items(Query{Category: Podcast, Kind: k, Metric: Plays})
		require.NoError(t, err)

		var total float64
		for _, it := range songs {
			total += it.Value
		}
		for _, it := range podcasts {
			total += it.Value
		}
		require.Equal(t, float64(800), total, k.String())
	}
}

func TestExactLifecycle(t *testing.T) {
	agg := NewExact(DefaultClassifier())
	require.NoError(t, agg.Ingest(scenarioBatch()))

	_, err := agg.Items(Query{})
	require.ErrorIs(t, err, ErrNotFinalized)
	var stateErr *StateError
	require.True(t, errors.As(err, &stateErr))
	require.Equal(t, "items", stateErr.Op)

	_, err = TopK(agg, Query{}, 3)
	require.ErrorIs(t, err, ErrNotFinalized)

	require.NoError(t, agg.Finalize())
	require.True(t, agg.Finalized())
	require.ErrorIs(t, agg.Ingest(scenarioBatch()), ErrFinalized)
	require.ErrorIs(t, agg.Finalize(), ErrFinalized)
	require.ErrorIs(t, agg.Merge(NewExact(DefaultClassifier())), ErrFinalized)
}

func TestExactIngestTwiceDoubleCounts(t *testing.T) {
	agg := finalized(t, NewExact(DefaultClassifier()), scenarioBatch(), scenarioBatch())
	top, err := TopK(agg, Query{Category: Song, Kind: Artist, Metric: Plays}, 1)
	require.NoError(t, err)
	require.Equal(t, float64(4), top.Entries[0].Value)
}

func TestExactMergeIsAssociative(t *testing.T) {
	batches := randomBatches(2, 3, 300)
	build := func(b []history.Record) *Exact {
		e := NewExact(DefaultClassifier())
		require.NoError(t, e.Ingest(b))
		return e
	}

	// (a + b) + c
	left := build(batches[0])
	require.NoError(t, left.Merge(build(batches[1])))
	require.NoError(t, left.Merge(build(batches[2])))

	// a + (b + c)
	bc := build(batches[1])
	require.NoError(t, bc.Merge(build(batches[2])))
	right := build(batches[0])
	require.NoError(t, right.Merge(bc))

	sequential := build(nil)
	for _, b := range batches {
		require.NoError(t, sequential.Ingest(b))
	}

	for _, agg := range []*Exact{left, right, sequential} {
		require.NoError(t, agg.Finalize())
	}
	for _, c := range Categories {
		for _, k := range Kinds {
			for _, m := range Metrics {
				q := Query{Category: c, Kind: k, Metric: m}
				want, err := TopK(sequential, q, 1000)
				require.NoError(t, err)
				got, err := TopK(left, q, 1000)
				require.NoError(t, err)
				require.Equal(t, want, got, q.String())
				got, err = TopK(right, q, 1000)
				require.NoError(t, err)
				require.Equal(t, want, got, q.String())
			}
		}
	}

	wantPairs, err := sequential.SongPairs()
	require.NoError(t, err)
	gotPairs, err := left.SongPairs()
	require.NoError(t, err)
	require.Equal(t, wantPairs, gotPairs)
}

func TestExactMergeRejectsOtherStrategy(t *testing.T) {
	agg := NewExact(DefaultClassifier())
	require.Error(t, agg.Merge(newApproximate(t)))
	require.Error(t, agg.Merge(agg))
}

func TestExactSongPairs(t *testing.T) {
	batch := append(scenarioBatch(), rec("Artist A", "Track 1", 120000, "2023-05-01"))
	agg := finalized(t, NewExact(DefaultClassifier()), batch)

	pairs, err := agg.SongPairs()
	require.NoError(t, err)
	require.Equal(t, []SongPair{
		{Artist: "Artist A", Track: "Track 1", Plays: 2, Minutes: 5},
		{Artist: "Artist A", Track: "Track 2", Plays: 1, Minutes: 10},
	}, pairs)
}

func TestExactAlbums(t *testing.T) {
	batch := []history.Record{
		{Artist: "A", Track: "1", Album: "First", EndTime: rec("", "", 0, "2023-01-01").EndTime, Minutes: 3},
		{Artist: "A", Track: "2", Album: "First", EndTime: rec("", "", 0, "2023-01-02").EndTime, Minutes: 4},
		{Artist: "A", Track: "3", EndTime: rec("", "", 0, "2023-01-03").EndTime, Minutes: 4},
	}
	agg := finalized(t, NewExact(DefaultClassifier()), batch)
	top, err := TopK(agg, Query{Category: Song, Kind: Album, Metric: Plays}, 5)
	require.NoError(t, err)
	require.Equal(t, []Ranked{{Name: "First", Value: 2}}, top.Entries)
}
