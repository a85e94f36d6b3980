package aggregate

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ademuri/unwrapped/internal/history"
)

func rec(artist, track string, ms int, day string) history.Record {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return history.Record{Artist: artist, Track: track, EndTime: t, Minutes: float64(ms) / 60000}
}

// scenarioBatch is three listens: two songs by Artist A and one podcast
// episode of Artist B.
func scenarioBatch() []history.Record {
	return []history.Record{
		rec("Artist A", "Track 1", 180000, "2023-03-01"),
		rec("Artist A", "Track 2", 600000, "2023-03-02"),
		rec("Artist B", "Track 3", 700000, "2023-04-01"),
	}
}

// randomBatches builds a skewed listening history across the default window.
func randomBatches(seed int64, batches, perBatch int) [][]history.Record {
	rng := rand.New(rand.NewSource(seed))
	out := make([][]history.Record, batches)
	for b := range out {
		for i := 0; i < perBatch; i++ {
			artist := int(40 * rng.Float64() * rng.Float64())
			track := int(400 * rng.Float64() * rng.Float64())
			ms := 60000 + rng.Intn(5*60000)
			if rng.Intn(20) == 0 {
				ms = 15*60000 + rng.Intn(30*60000)
			}
			out[b] = append(out[b], history.Record{
				Artist:  fmt.Sprintf("Artist %02d", artist),
				Track:   fmt.Sprintf("Track %03d", track),
				Album:   fmt.Sprintf("Album %02d", track%25),
				EndTime: time.Date(2023, time.Month(1+rng.Intn(10)), 1+rng.Intn(28), rng.Intn(24), 0, 0, 0, time.UTC),
				Minutes: float64(ms) / 60000,
			})
		}
	}
	return out
}

func finalized(t *testing.T, agg Aggregator, batches ...[]history.Record) Aggregator {
	t.Helper()
	for _, b := range batches {
		require.NoError(t, agg.Ingest(b))
	}
	require.NoError(t, agg.Finalize())
	return agg
}

func newApproximate(t *testing.T) *Approximate {
	t.Helper()
	a, err := NewApproximate(DefaultOptions(2023))
	require.NoError(t, err)
	return a
}
