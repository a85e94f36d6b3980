package aggregate

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ademuri/unwrapped/internal/history"
)

func TestApproximateScenario(t *testing.T) {
	agg := finalized(t, newApproximate(t), scenarioBatch())

	top, err := TopK(agg, Query{Category: Song, Kind: Artist, Metric: Plays}, 1)
	require.NoError(t, err)
	require.Equal(t, []Ranked{{Name: "Artist A", Value: 2}}, top.Entries)

	// Sketch weights round minutes up: 11.67 minutes counts as 12.
	top, err = TopK(agg, Query{Category: Podcast, Kind: Artist, Metric: Minutes}, 1)
	require.NoError(t, err)
	require.Equal(t, []Ranked{{Name: "Artist B", Value: 12.0 / 60}}, top.Entries)

	songs, err := agg.Totals(Song)
	require.NoError(t, err)
	require.Equal(t, int64(2), songs.Plays)

	// HyperLogLog estimates may be off by one even this small.
	n, err := agg.Distinct(Song, Track)
	require.NoError(t, err)
	require.InDelta(t, 2, float64(n), 1)
}

func TestApproximateMatchesExactWhenSmall(t *testing.T) {
	// With few entities no sketch ever purges, so the answers are exact up to
	// rounding of minutes.
	batches := randomBatches(4, 2, 30)
	opts := DefaultOptions(2023)
	opts.ArtistLgMaxMapSize = 10
	approx, err := NewApproximate(opts)
	require.NoError(t, err)
	finalized(t, approx, batches...)
	exact := finalized(t, NewExact(DefaultClassifier()), batches...)

	for _, c := range Categories {
		for _, k := range Kinds {
			q := Query{Category: c, Kind: k, Metric: Plays}
			want, err := TopK(exact, q, 10)
			require.NoError(t, err)
			got, err := TopK(approx, q, 10)
			require.NoError(t, err)
			require.Equal(t, want, got, q.String())
		}
	}
}

func TestApproximateNoFalsePositives(t *testing.T) {
	// Half of the listens go to one artist, the rest are spread thin.
	rng := rand.New(rand.NewSource(5))
	var batch []history.Record
	for i := 0; i < 4000; i++ {
		artist, track := "Heavy", "Hit"
		if i%2 == 1 {
			n := rng.Intn(200)
			artist, track = fmt.Sprintf("Artist %03d", n), fmt.Sprintf("Track %03d", n)
		}
		batch = append(batch, history.Record{
			Artist:  artist,
			Track:   track,
			EndTime: time.Date(2023, time.Month(1+i%10), 1+i%28, 0, 0, 0, 0, time.UTC),
			Minutes: 3,
		})
	}

	opts := DefaultOptions(2023)
	opts.ArtistLgMaxMapSize = 3
	opts.TrackLgMaxMapSize = 3
	approx, err := NewApproximate(opts)
	require.NoError(t, err)
	finalized(t, approx, batch)
	exact := finalized(t, NewExact(DefaultClassifier()), batch)

	for _, k := range []Kind{Artist, Track} {
		q := Query{Category: Song, Kind: k, Metric: Plays}
		truth := map[string]float64{}
		items, err := exact.Items(q)
		require.NoError(t, err)
		for _, it := range items {
			truth[it.Name] = it.Value
		}

		maxErr, err := approx.MaximumError(q)
		require.NoError(t, err)
		require.Greater(t, maxErr, int64(0))
		got, err := approx.Items(q)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		for _, it := range got {
			require.Greater(t, truth[it.Name], float64(maxErr), it.Name)
			// Estimates are upper bounds.
			require.GreaterOrEqual(t, it.Value, truth[it.Name], it.Name)
		}

		top, err := TopK(approx, q, 1)
		require.NoError(t, err)
		require.Contains(t, []string{"Heavy", "Hit"}, top.Entries[0].Name)
	}
}

func TestApproximateMergeIsCommutative(t *testing.T) {
	batches := randomBatches(6, 3, 400)
	opts := DefaultOptions(2023)
	opts.ArtistLgMaxMapSize = 3
	opts.TrackLgMaxMapSize = 4

	build := func(b []history.Record) *Approximate {
		a, err := NewApproximate(opts)
		require.NoError(t, err)
		require.NoError(t, a.Ingest(b))
		return a
	}

	ab := build(batches[0])
	require.NoError(t, ab.Merge(build(batches[1])))
	require.NoError(t, ab.Merge(build(batches[2])))
	require.NoError(t, ab.Finalize())

	ba := build(batches[2])
	require.NoError(t, ba.Merge(build(batches[1])))
	require.NoError(t, ba.Merge(build(batches[0])))
	require.NoError(t, ba.Finalize())

	for _, c := range Categories {
		for _, k := range Kinds {
			for _, m := range Metrics {
				q := Query{Category: c, Kind: k, Metric: m}
				want, err := TopK(ab, q, 20)
				require.NoError(t, err)
				got, err := TopK(ba, q, 20)
				require.NoError(t, err)
				require.Equal(t, want, got, q.String())
			}
		}
	}
}

func TestApproximateRejectsOutOfWindow(t *testing.T) {
	a := newApproximate(t)
	batch := []history.Record{
		rec("A", "in", 180000, "2023-02-01"),
		rec("A", "out", 180000, "2023-12-01"),
	}
	require.Error(t, a.Ingest(batch))
	require.NoError(t, a.Finalize())
	totals, err := a.Totals(Song)
	require.NoError(t, err)
	require.Equal(t, int64(0), totals.Plays)
}

func TestApproximateLifecycle(t *testing.T) {
	a := newApproximate(t)
	_, err := a.Items(Query{})
	require.ErrorIs(t, err, ErrNotFinalized)
	_, err = a.SongPairs()
	require.ErrorIs(t, err, ErrNotFinalized)

	require.NoError(t, a.Finalize())
	require.ErrorIs(t, a.Ingest(nil), ErrFinalized)

	items, err := a.Items(Query{Category: Podcast, Kind: Track, Metric: Minutes})
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestNewApproximateValidates(t *testing.T) {
	opts := DefaultOptions(2023)
	opts.TrackLgMaxMapSize = 2
	_, err := NewApproximate(opts)
	require.Error(t, err)

	opts = DefaultOptions(2023)
	opts.Window.FirstMonth = time.December
	_, err = NewApproximate(opts)
	require.Error(t, err)
}

func TestApproximateSongPairs(t *testing.T) {
	batch := append(scenarioBatch(), rec("Artist A", "Track 1", 120000, "2023-05-01"))
	agg := finalized(t, newApproximate(t), batch)

	pairs, err := agg.SongPairs()
	require.NoError(t, err)
	require.Equal(t, []SongPair{
		{Artist: "Artist A", Track: "Track 1", Plays: 2, Minutes: 5},
		{Artist: "Artist A", Track: "Track 2", Plays: 1, Minutes: 10},
	}, pairs)
}

func TestApproximateSongPairsAreUpperBounds(t *testing.T) {
	batches := randomBatches(21, 6, 200)
	var hits []history.Record
	for i := 0; i < 300; i++ {
		hits = append(hits, rec("Artist Hit", "Hit Track", 150000, "2023-06-01"))
	}
	batches = append(batches, hits)
	exact := finalized(t, NewExact(DefaultClassifier()), batches...)

	opts := DefaultOptions(2023)
	opts.TrackLgMaxMapSize = 6
	sketch, err := NewApproximate(opts)
	require.NoError(t, err)
	finalized(t, sketch, batches...)

	truth := map[[2]string]SongPair{}
	exactPairs, err := exact.SongPairs()
	require.NoError(t, err)
	for _, p := range exactPairs {
		truth[[2]string{p.Artist, p.Track}] = p
	}

	pairs, err := sketch.SongPairs()
	require.NoError(t, err)
	require.NotEmpty(t, pairs)
	for i, p := range pairs {
		want := truth[[2]string{p.Artist, p.Track}]
		require.GreaterOrEqual(t, p.Plays, want.Plays, "%s / %s", p.Artist, p.Track)
		require.GreaterOrEqual(t, p.Minutes, want.Minutes, "%s / %s", p.Artist, p.Track)
		if i > 0 {
			prev := pairs[i-1]
			require.True(t, prev.Artist < p.Artist || (prev.Artist == p.Artist && prev.Track < p.Track))
		}
	}
}
