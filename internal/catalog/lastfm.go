package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ademuri/lastfm-go/lastfm"
	"github.com/avast/retry-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Last.fm error codes.
const (
	lastfmInvalidParameters  = 6
	lastfmOperationFailed    = 8
	lastfmServiceOffline     = 11
	lastfmTemporaryError     = 16
	lastfmRateLimitExceeded  = 29
	DefaultLastFMGenres      = 5
	DefaultLastFMMinTagCount = 10
)

// Tag is one Last.fm tag with its weight. Last.fm weights run from 0 to 100.
type Tag struct {
	Name  string
	Count int
}

// LastFM uses an artist's top Last.fm tags as its genres.
type LastFM struct {
	topTags func(artist string) ([]Tag, error)
	limiter *rate.Limiter

	MaxGenres   int
	MinTagCount int
}

func NewLastFM(apiKey, secret string) (*LastFM, error) {
	if apiKey == "" || secret == "" {
		return nil, errors.New("last.fm api key and secret are required")
	}
	client := lastfm.New(apiKey, secret)
	return newLastFM(func(artist string) ([]Tag, error) {
		topTags, err := client.Artist.GetTopTags(lastfm.P{
			"artist":      artist,
			"autocorrect": 1,
		})
		if err != nil {
			return nil, err
		}
		var tags []Tag
		for _, t := range topTags.Tags {
			c, _ := strconv.Atoi(t.Count)
			tags = append(tags, Tag{Name: t.Name, Count: c})
		}
		return tags, nil
	}), nil
}

func newLastFM(topTags func(artist string) ([]Tag, error)) *LastFM {
	return &LastFM{
		topTags:     topTags,
		limiter:     rate.NewLimiter(rate.Every(1*time.Second), 1),
		MaxGenres:   DefaultLastFMGenres,
		MinTagCount: DefaultLastFMMinTagCount,
	}
}

func lastfmRetryable(err error) bool {
	var lerr *lastfm.LastfmError
	if !errors.As(err, &lerr) {
		return false
	}
	switch lerr.Code {
	case lastfmOperationFailed, lastfmServiceOffline, lastfmTemporaryError, lastfmRateLimitExceeded:
		logger.Info("last.fm errored, retrying", zap.Error(lerr))
		return true
	}
	return false
}

// LookupGenres returns the artist's heaviest tags, lower-cased.
func (l *LastFM) LookupGenres(ctx context.Context, artist string) ([]string, error) {
	var tags []Tag
	err := retry.Do(
		func() error {
			if err := l.limiter.Wait(ctx); err != nil {
				return err
			}
			var err error
			tags, err = l.topTags(artist)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.LastErrorOnly(true),
		retry.RetryIf(lastfmRetryable),
	)
	if err != nil {
		var lerr *lastfm.LastfmError
		if errors.As(err, &lerr) && lerr.Code == lastfmInvalidParameters {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching tags for artist %s: %w", artist, err)
	}
	return genresFromTags(tags, l.MaxGenres, l.MinTagCount), nil
}

func genresFromTags(tags []Tag, limit, minCount int) []string {
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Count > tags[j].Count })
	seen := map[string]bool{}
	var genres []string
	for _, t := range tags {
		if len(genres) >= limit {
			break
		}
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" || t.Count < minCount || seen[name] {
			continue
		}
		seen[name] = true
		genres = append(genres, name)
	}
	return genres
}
