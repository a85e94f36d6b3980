package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	DefaultSpotifyAPIURL   = "https://api.spotify.com/v1/"
	DefaultSpotifyTokenURL = "https://accounts.spotify.com/api/token"
	searchLimit            = 10
	maxResponseBytes       = 10 << 20
)

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	// APIURL and TokenURL default to the public Spotify endpoints.
	APIURL   string
	TokenURL string
	Market   string

	RequestsPerSecond float64
	RetryAttempts     uint
	RetryDelay        time.Duration
	// Consecutive failures before the breaker opens, and how long it stays
	// open.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// HTTPClient is used for token, API and artwork requests when set.
	HTTPClient *http.Client
}

func DefaultSpotifyConfig(clientID, clientSecret string) SpotifyConfig {
	return SpotifyConfig{
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		APIURL:            DefaultSpotifyAPIURL,
		TokenURL:          DefaultSpotifyTokenURL,
		Market:            "GB",
		RequestsPerSecond: 5,
		RetryAttempts:     4,
		RetryDelay:        time.Second,
		BreakerFailures:   5,
		BreakerTimeout:    30 * time.Second,
	}
}

// Spotify is a client for the Spotify Web API search endpoints, authorized
// with the client credentials flow. It implements AlbumSource, GenreSource
// and ArtworkSource.
type Spotify struct {
	http    *http.Client
	images  *http.Client
	apiURL  string
	market  string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]

	retryAttempts uint
	retryDelay    time.Duration
}

func NewSpotify(cfg SpotifyConfig) (*Spotify, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify client id and secret are required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultSpotifyAPIURL
	}
	if !strings.HasSuffix(cfg.APIURL, "/") {
		cfg.APIURL += "/"
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultSpotifyTokenURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	ctx := context.Background()
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}

	// Artwork is served from a CDN that must not see the API token.
	images := cfg.HTTPClient
	if images == nil {
		images = &http.Client{Timeout: 30 * time.Second}
	}

	s := &Spotify{
		http:          cc.Client(ctx),
		images:        images,
		apiURL:        cfg.APIURL,
		market:        cfg.Market,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}
	s.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "spotify",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker changed state",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// 4xx responses other than 429 do not trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || !isRetryable(err)
		},
	})
	return s, nil
}

// StatusError is a non-200 response from Spotify.
type StatusError struct {
	Code       int
	URL        string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spotify returned status %d for %s", e.Code, e.URL)
}

func isRetryable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusTooManyRequests || se.Code/100 == 5
}

func retryDelay(n uint, err error, config *retry.Config) time.Duration {
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > 0 {
		return se.RetryAfter
	}
	return retry.BackOffDelay(n, err, config)
}

// fetch GETs rawURL with rate limiting, retries for 429 and 5xx responses and
// a circuit breaker around the service.
func (s *Spotify) fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
			var err error
			body, err = s.breaker.Execute(func() ([]byte, error) {
				return s.get(ctx, client, rawURL)
			})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.retryAttempts),
		retry.Delay(s.retryDelay),
		retry.MaxDelay(time.Minute),
		retry.DelayType(retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			logger.Info("Spotify request failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	return body, err
}

func (s *Spotify) get(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{Code: resp.StatusCode, URL: rawURL}
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			se.RetryAfter = time.Duration(seconds) * time.Second
		}
		return nil, se
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

func (s *Spotify) search(ctx context.Context, query, kind string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", kind)
	params.Set("limit", strconv.Itoa(searchLimit))
	if s.market != "" {
		params.Set("market", s.market)
	}

	body, err := s.fetch(ctx, s.http, s.apiURL+"search?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("searching spotify for %s %q: %w", kind, query, err)
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding spotify search: %w", err)
	}
	return &resp, nil
}

// LookupAlbum finds the album of the best matching track. Both the track and
// the artist name have to match.
func (s *Spotify) LookupAlbum(ctx context.Context, track, artist string) (Album, error) {
	resp, err := s.search(ctx, fmt.Sprintf("track:%s artist:%s", track, artist), "track")
	if err != nil {
		return Album{}, err
	}
	if resp.Tracks == nil {
		return Album{}, ErrNotFound
	}
	items := resp.Tracks.Items
	i, score := bestMatch(len(items), func(i int) float64 {
		if items[i].Album == nil {
			return 0
		}
		return min(Similarity(track, items[i].Name), artistScore(artist, items[i].Artists))
	})
	if i < 0 {
		return Album{}, ErrNotFound
	}

	album := items[i].Album
	logger.Debug("Resolved album",
		zap.String("track", track),
		zap.String("artist", artist),
		zap.String("album", album.Name),
		zap.Float64("similarity", score))
	return Album{
		ID:       album.ID,
		Name:     album.Name,
		Artist:   albumArtist(album, artist),
		ImageURL: largestImage(album.Images),
	}, nil
}

func albumArtist(album *spotifyAlbum, fallback string) string {
	if len(album.Artists) > 0 && album.Artists[0] != nil && album.Artists[0].Name != "" {
		return album.Artists[0].Name
	}
	return fallback
}

// LookupGenres returns the genres of the best matching artist, which may be
// empty.
func (s *Spotify) LookupGenres(ctx context.Context, artist string) ([]string, error) {
	resp, err := s.search(ctx, artist, "artist")
	if err != nil {
		return nil, err
	}
	if resp.Artists == nil {
		return nil, ErrNotFound
	}
	items := resp.Artists.Items
	i, _ := bestMatch(len(items), func(i int) float64 {
		return Similarity(artist, items[i].Name)
	})
	if i < 0 {
		return nil, ErrNotFound
	}
	return items[i].Genres, nil
}

// FetchArtwork downloads the largest cover image of the best matching album.
func (s *Spotify) FetchArtwork(ctx context.Context, artist, album string) ([]byte, error) {
	resp, err := s.search(ctx, fmt.Sprintf("album:%s artist:%s", album, artist), "album")
	if err != nil {
		return nil, err
	}
	if resp.Albums == nil {
		return nil, ErrNotFound
	}
	items := resp.Albums.Items
	i, _ := bestMatch(len(items), func(i int) float64 {
		return min(Similarity(album, items[i].Name), artistScore(artist, items[i].Artists))
	})
	if i < 0 {
		return nil, ErrNotFound
	}
	imageURL := largestImage(items[i].Images)
	if imageURL == "" {
		return nil, ErrNotFound
	}

	image, err := s.fetch(ctx, s.images, imageURL)
	if err != nil {
		return nil, fmt.Errorf("downloading artwork for %s by %s: %w", album, artist, err)
	}
	return image, nil
}
