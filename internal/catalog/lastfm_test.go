package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/ademuri/lastfm-go/lastfm"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func fakeLastFM(topTags func(string) ([]Tag, error)) *LastFM {
	l := newLastFM(topTags)
	l.limiter = rate.NewLimiter(rate.Inf, 1)
	return l
}

func TestLastFMGenres(t *testing.T) {
	l := fakeLastFM(func(artist string) ([]Tag, error) {
		require.Equal(t, "Portishead", artist)
		return []Tag{
			{Name: "electronic", Count: 60},
			{Name: "Trip-Hop", Count: 100},
			{Name: "trip-hop", Count: 90},
			{Name: "seen live", Count: 3},
			{Name: "female vocalists", Count: 40},
		}, nil
	})
	genres, err := l.LookupGenres(context.Background(), "Portishead")
	require.NoError(t, err)
	require.Equal(t, []string{"trip-hop", "electronic", "female vocalists"}, genres)
}

func TestLastFMNotFound(t *testing.T) {
	l := fakeLastFM(func(string) ([]Tag, error) {
		return nil, &lastfm.LastfmError{Code: lastfmInvalidParameters}
	})
	_, err := l.LookupGenres(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLastFMRetriesTemporaryErrors(t *testing.T) {
	calls := 0
	l := fakeLastFM(func(string) ([]Tag, error) {
		calls++
		if calls == 1 {
			return nil, &lastfm.LastfmError{Code: lastfmServiceOffline}
		}
		return []Tag{{Name: "jazz", Count: 100}}, nil
	})
	genres, err := l.LookupGenres(context.Background(), "Coltrane")
	require.NoError(t, err)
	require.Equal(t, []string{"jazz"}, genres)
	require.Equal(t, 2, calls)
}

func TestLastFMOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	l := fakeLastFM(func(string) ([]Tag, error) { return nil, boom })
	_, err := l.LookupGenres(context.Background(), "x")
	require.ErrorIs(t, err, boom)
}

func TestGenresFromTagsLimit(t *testing.T) {
	tags := []Tag{{"a", 90}, {"b", 80}, {"c", 70}}
	require.Equal(t, []string{"a", "b"}, genresFromTags(tags, 2, 0))
	require.Empty(t, genresFromTags(nil, 5, 0))
}

func TestSimilarity(t *testing.T) {
	require.Equal(t, 1.0, Similarity("The  Beatles", "the beatles"))
	require.Less(t, Similarity("The Beatles", "Metallica"), MinSimilarity)

	i, _ := bestMatch(3, func(i int) float64 { return []float64{0.5, 0.9, 0.9}[i] })
	require.Equal(t, 1, i)
	i, _ = bestMatch(2, func(i int) float64 { return 0.1 })
	require.Equal(t, -1, i)
}
