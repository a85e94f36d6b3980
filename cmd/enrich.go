/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/unwrapped/internal/analysis"
	"github.com/ademuri/unwrapped/internal/catalog"
	"github.com/ademuri/unwrapped/internal/enrich"
	"github.com/ademuri/unwrapped/internal/recommend"
	"github.com/ademuri/unwrapped/internal/store"
)

const (
	genreSourceSpotify = "spotify"
	genreSourceLastFM  = "lastfm"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <file or directory...>",
	Short: "Looks up albums, genres and recommendations",
	Long: `Samples songs from the history and resolves their albums in the Spotify
catalog, looks up genres for the top artists and, with --recommend, asks OpenAI
for similar artists. Lookups are cached in the database.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := printEnrichment(cmd.Context(), os.Stdout, args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var refreshGenresCmd = &cobra.Command{
	Use:   "refresh-genres",
	Short: "Looks up cached artist genres again once they are stale",
	Long: `Re-reads genres for every artist in the database whose cached genres are
older than --refresh_interval, using the configured --genre_source.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := refreshGenres(cmd.Context(), os.Stdout)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(refreshGenresCmd)

	var artworkDir string
	rootCmd.PersistentFlags().StringVar(&artworkDir, "artwork_dir", "", "Directory to save top album covers to")
	viper.BindPFlag("artwork_dir", rootCmd.PersistentFlags().Lookup("artwork_dir"))

	var recommendArtists bool
	rootCmd.PersistentFlags().BoolVar(&recommendArtists, "recommend", false, "Ask OpenAI for artist recommendations")
	viper.BindPFlag("recommend", rootCmd.PersistentFlags().Lookup("recommend"))

	var refresh time.Duration
	rootCmd.PersistentFlags().DurationVar(&refresh, "refresh_interval", enrich.DefaultRefreshInterval, "How long cached lookups stay valid")
	viper.BindPFlag("refresh_interval", rootCmd.PersistentFlags().Lookup("refresh_interval"))

	var topGenres int
	rootCmd.PersistentFlags().IntVar(&topGenres, "top_genres", enrich.DefaultTopGenres, "Number of top genres")
	viper.BindPFlag("top_genres", rootCmd.PersistentFlags().Lookup("top_genres"))
}

func enrichConfig(cfg analysis.Config) enrich.Config {
	return enrich.Config{
		SampleRate:      cfg.SampleRate,
		TopAlbums:       cfg.TopAlbums,
		TopGenres:       viper.GetInt("top_genres"),
		GenreSource:     viper.GetString("genre_source"),
		RefreshInterval: viper.GetDuration("refresh_interval"),
		ArtworkDir:      viper.GetString("artwork_dir"),
		Recommend:       viper.GetBool("recommend"),
	}
}

// enrichSources builds the collaborators the current settings allow.
func enrichSources(cache enrich.Cache) (enrich.Sources, error) {
	src := enrich.Sources{Cache: cache}

	id, secret := viper.GetString("spotify_client_id"), viper.GetString("spotify_client_secret")
	if id != "" && secret != "" {
		spotifyConfig := catalog.DefaultSpotifyConfig(id, secret)
		if u := viper.GetString("spotify_api_url"); u != "" {
			spotifyConfig.APIURL = u
		}
		if u := viper.GetString("spotify_token_url"); u != "" {
			spotifyConfig.TokenURL = u
		}
		spotify, err := catalog.NewSpotify(spotifyConfig)
		if err != nil {
			return enrich.Sources{}, err
		}
		src.Albums = spotify
		src.Artwork = spotify
		if viper.GetString("genre_source") == genreSourceSpotify {
			src.Genres = spotify
		}
	}

	switch viper.GetString("genre_source") {
	case genreSourceSpotify:
	case genreSourceLastFM:
		lastFM, err := catalog.NewLastFM(viper.GetString("api_key"), viper.GetString("secret"))
		if err != nil {
			return enrich.Sources{}, fmt.Errorf("genre_source lastfm: %w", err)
		}
		src.Genres = lastFM
	default:
		return enrich.Sources{}, &analysis.ConfigurationError{
			Key:    "genre_source",
			Reason: fmt.Sprintf("%q is not %s or %s", viper.GetString("genre_source"), genreSourceSpotify, genreSourceLastFM),
		}
	}

	if viper.GetBool("recommend") {
		r, err := recommend.New(recommend.Config{
			APIKey: viper.GetString("openai_api_key"),
			Model:  viper.GetString("openai_model"),
		})
		if err != nil {
			return enrich.Sources{}, fmt.Errorf("recommend: %w", err)
		}
		src.Recommender = r
	}

	if src.Albums == nil && src.Genres == nil && src.Recommender == nil {
		return enrich.Sources{}, errors.New("enrichment needs spotify_client_id and spotify_client_secret, or api_key and secret with --genre_source lastfm")
	}
	return src, nil
}

// enrichSummary runs every lookup for a finalized session and attaches the
// result to summary.
func enrichSummary(ctx context.Context, session *analysis.Session, summary *analysis.Summary) error {
	db, err := store.New(viper.GetString("database"))
	if err != nil {
		return err
	}
	defer db.Close()

	src, err := enrichSources(db)
	if err != nil {
		return err
	}
	cfg := session.Config()
	e, err := enrich.New(enrichConfig(cfg), rand.New(rand.NewSource(cfg.Seed)), src)
	if err != nil {
		return err
	}
	enrichment, err := e.Enrich(ctx, session.Aggregator(), summary.Songs.TopArtistsByPlays)
	if err != nil {
		return err
	}
	summary.Enrichment = enrichment
	return nil
}

func printEnrichment(ctx context.Context, out io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := analysisConfig()
	if err != nil {
		return err
	}
	session, err := runSession(ctx, cfg, args)
	if err != nil {
		return err
	}
	summary, err := session.Summary()
	if err != nil {
		return err
	}
	if err := enrichSummary(ctx, session, summary); err != nil {
		return err
	}

	for _, a := range enrichmentAnalyses(summary.Enrichment) {
		fmt.Fprintln(out, a)
	}
	if summary.Enrichment.Recommendation != "" {
		fmt.Fprintf(out, "## Recommended artists\n%s\n", summary.Enrichment.Recommendation)
	}
	return nil
}

// enrichmentAnalyses renders the album and genre rankings as tables.
func enrichmentAnalyses(e *analysis.Enrichment) []Analysis {
	sampled := fmt.Sprintf("Resolved %d of %d sampled songs (sample rate %v)", e.ResolvedSongs, e.SampledSongs, e.SampleRate)

	byPlays := Analysis{results: [][]string{{"#", "Album", "Artist", "Plays"}}, summary: sampled}
	for i, a := range e.AlbumsByPlays {
		byPlays.results = append(byPlays.results, []string{strconv.Itoa(i + 1), a.Title, a.Artist, strconv.FormatInt(a.Plays, 10)})
	}
	byHours := Analysis{results: [][]string{{"#", "Album", "Artist", "Hours"}}, summary: sampled}
	for i, a := range e.AlbumsByHours {
		byHours.results = append(byHours.results, []string{strconv.Itoa(i + 1), a.Title, a.Artist, fmt.Sprintf("%.3f", a.Hours)})
	}

	genres := Analysis{results: [][]string{{"Artist", "Genres"}}}
	for _, ag := range e.ArtistGenres {
		genres.results = append(genres.results, []string{ag.Artist, strings.Join(ag.Genres, ", ")})
	}
	var top []string
	for _, g := range e.TopGenres {
		top = append(top, fmt.Sprintf("%s (%.0f%%)", g.Genre, g.Weight*100))
	}
	genres.summary = "Top genres: " + strings.Join(top, ", ")

	return []Analysis{byPlays, byHours, genres}
}

func refreshGenres(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := store.New(viper.GetString("database"))
	if err != nil {
		return err
	}
	defer db.Close()

	src, err := enrichSources(db)
	if err != nil {
		return err
	}
	cfg := enrich.DefaultConfig()
	cfg.GenreSource = viper.GetString("genre_source")
	cfg.RefreshInterval = viper.GetDuration("refresh_interval")
	e, err := enrich.New(cfg, rand.New(rand.NewSource(viper.GetInt64("seed"))), src)
	if err != nil {
		return err
	}
	updated, err := e.RefreshGenres(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Refreshed genres for %d artists\n", updated)
	return nil
}
