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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/ademuri/unwrapped/internal/aggregate"
	"github.com/ademuri/unwrapped/internal/analysis"
	"github.com/ademuri/unwrapped/internal/history"
	"github.com/ademuri/unwrapped/internal/recommend"
)

var cfgFile string
var databasePath string
var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "unwrapped",
	Short: "Summarizes exported streaming history",
	Long: `Reads Spotify streaming history exports and ranks the top artists, tracks,
podcasts and albums of the year by plays and by listening time.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is $HOME/.unwrapped.yaml)")

	rootCmd.PersistentFlags().StringVarP(
		&databasePath, "database", "d", "./unwrapped.db", "Path to the SQLite database")
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))

	rootCmd.PersistentFlags().StringVar(&logLevel, "log_level", "warn", "Log level: debug, info, warn or error")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log_level"))

	// Window and aggregation
	var year, firstMonth, lastMonth, workers int
	var minMinutes, podcastThreshold float64
	var strategy string
	rootCmd.PersistentFlags().IntVar(&year, "year", history.DefaultYear, "Year to summarize")
	viper.BindPFlag("year", rootCmd.PersistentFlags().Lookup("year"))
	rootCmd.PersistentFlags().IntVar(&firstMonth, "first_month", 1, "First month of the window")
	viper.BindPFlag("first_month", rootCmd.PersistentFlags().Lookup("first_month"))
	rootCmd.PersistentFlags().IntVar(&lastMonth, "last_month", 10, "Last month of the window")
	viper.BindPFlag("last_month", rootCmd.PersistentFlags().Lookup("last_month"))
	var period string
	rootCmd.PersistentFlags().StringVar(&period, "period", "", "Overrides the window: '2023', '2023-03' or '2023-01..2023-06'")
	viper.BindPFlag("period", rootCmd.PersistentFlags().Lookup("period"))
	rootCmd.PersistentFlags().Float64Var(&minMinutes, "min_minutes", history.DefaultMinMinutes, "Listens must be longer than this many minutes")
	viper.BindPFlag("min_minutes", rootCmd.PersistentFlags().Lookup("min_minutes"))
	rootCmd.PersistentFlags().Float64Var(&podcastThreshold, "podcast_threshold", aggregate.DefaultPodcastThreshold, "Listens longer than this many minutes are podcasts")
	viper.BindPFlag("podcast_threshold", rootCmd.PersistentFlags().Lookup("podcast_threshold"))
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", string(aggregate.StrategyExact), "Aggregation strategy: exact or sketch")
	viper.BindPFlag("strategy", rootCmd.PersistentFlags().Lookup("strategy"))
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 1, "Number of files to aggregate in parallel")
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))

	var artistLgK, trackLgK int
	rootCmd.PersistentFlags().IntVar(&artistLgK, "artist_lg_k", aggregate.DefaultArtistLgMaxMapSize, "log2 of the artist sketch map size")
	viper.BindPFlag("artist_lg_k", rootCmd.PersistentFlags().Lookup("artist_lg_k"))
	rootCmd.PersistentFlags().IntVar(&trackLgK, "track_lg_k", aggregate.DefaultTrackLgMaxMapSize, "log2 of the track sketch map size")
	viper.BindPFlag("track_lg_k", rootCmd.PersistentFlags().Lookup("track_lg_k"))

	var topArtists, topTracks, topPodcasts, topAlbums int
	rootCmd.PersistentFlags().IntVar(&topArtists, "top_artists", analysis.DefaultTopArtists, "Number of top artists")
	viper.BindPFlag("top_artists", rootCmd.PersistentFlags().Lookup("top_artists"))
	rootCmd.PersistentFlags().IntVar(&topTracks, "top_tracks", analysis.DefaultTopTracks, "Number of top tracks")
	viper.BindPFlag("top_tracks", rootCmd.PersistentFlags().Lookup("top_tracks"))
	rootCmd.PersistentFlags().IntVar(&topPodcasts, "top_podcasts", analysis.DefaultTopPodcasts, "Number of top podcasts and episodes")
	viper.BindPFlag("top_podcasts", rootCmd.PersistentFlags().Lookup("top_podcasts"))
	rootCmd.PersistentFlags().IntVar(&topAlbums, "top_albums", analysis.DefaultTopAlbums, "Number of top albums")
	viper.BindPFlag("top_albums", rootCmd.PersistentFlags().Lookup("top_albums"))

	// Enrichment
	var sampleRate float64
	var seed int64
	rootCmd.PersistentFlags().Float64Var(&sampleRate, "sample_rate", analysis.DefaultSampleRate, "Share of songs looked up in the catalog")
	viper.BindPFlag("sample_rate", rootCmd.PersistentFlags().Lookup("sample_rate"))
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", analysis.DefaultSeed, "Seed for song sampling")
	viper.BindPFlag("seed", rootCmd.PersistentFlags().Lookup("seed"))

	var spotifyID, spotifySecret, genreSource string
	rootCmd.PersistentFlags().StringVar(&spotifyID, "spotify_client_id", "", "Spotify client ID")
	viper.BindPFlag("spotify_client_id", rootCmd.PersistentFlags().Lookup("spotify_client_id"))
	rootCmd.PersistentFlags().StringVar(&spotifySecret, "spotify_client_secret", "", "Spotify client secret")
	viper.BindPFlag("spotify_client_secret", rootCmd.PersistentFlags().Lookup("spotify_client_secret"))
	rootCmd.PersistentFlags().StringVar(&genreSource, "genre_source", genreSourceSpotify, "Where genres come from: spotify or lastfm")
	viper.BindPFlag("genre_source", rootCmd.PersistentFlags().Lookup("genre_source"))

	var lastFmApiKey, lastFmSecret string
	rootCmd.PersistentFlags().StringVar(&lastFmApiKey, "api_key", "", "last.fm API key")
	viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api_key"))
	rootCmd.PersistentFlags().StringVar(&lastFmSecret, "secret", "", "last.fm secret")
	viper.BindPFlag("secret", rootCmd.PersistentFlags().Lookup("secret"))

	var openaiKey, openaiModel string
	rootCmd.PersistentFlags().StringVar(&openaiKey, "openai_api_key", "", "OpenAI API key")
	viper.BindPFlag("openai_api_key", rootCmd.PersistentFlags().Lookup("openai_api_key"))
	rootCmd.PersistentFlags().StringVar(&openaiModel, "openai_model", recommend.DefaultModel, "OpenAI model for recommendations")
	viper.BindPFlag("openai_model", rootCmd.PersistentFlags().Lookup("openai_model"))

	// Email
	var sendgridKey, from string
	rootCmd.PersistentFlags().StringVar(&sendgridKey, "sendgrid_api_key", "", "SendGrid API key")
	viper.BindPFlag("sendgrid_api_key", rootCmd.PersistentFlags().Lookup("sendgrid_api_key"))
	rootCmd.PersistentFlags().StringVar(&from, "from", "", "From email address")
	viper.BindPFlag("from", rootCmd.PersistentFlags().Lookup("from"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".unwrapped" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".unwrapped")
	}

	// UNWRAPPED_SPOTIFY_CLIENT_ID and friends.
	viper.SetEnvPrefix("unwrapped")
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// See https://github.com/spf13/viper/pull/852
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			rootCmd.Flags().Set(f.Name, viper.GetString(f.Name))
		}
	})
}
