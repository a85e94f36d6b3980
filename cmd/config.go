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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/viper"

	"github.com/ademuri/unwrapped/internal/aggregate"
	"github.com/ademuri/unwrapped/internal/analysis"
	"github.com/ademuri/unwrapped/internal/history"
)

// analysisConfig reads the session settings from flags, the config file and
// the environment.
func analysisConfig() (analysis.Config, error) {
	strategy, err := aggregate.ParseStrategy(viper.GetString("strategy"))
	if err != nil {
		return analysis.Config{}, &analysis.ConfigurationError{Key: "strategy", Reason: err.Error()}
	}
	cfg := analysis.Config{
		Window: history.Window{
			Year:       viper.GetInt("year"),
			FirstMonth: time.Month(viper.GetInt("first_month")),
			LastMonth:  time.Month(viper.GetInt("last_month")),
			MinMinutes: viper.GetFloat64("min_minutes"),
		},
		PodcastThreshold:   viper.GetFloat64("podcast_threshold"),
		Strategy:           strategy,
		ArtistLgMaxMapSize: viper.GetInt("artist_lg_k"),
		TrackLgMaxMapSize:  viper.GetInt("track_lg_k"),
		Workers:            viper.GetInt("workers"),
		TopArtists:         viper.GetInt("top_artists"),
		TopTracks:          viper.GetInt("top_tracks"),
		TopPodcasts:        viper.GetInt("top_podcasts"),
		TopAlbums:          viper.GetInt("top_albums"),
		SampleRate:         viper.GetFloat64("sample_rate"),
		Seed:               viper.GetInt64("seed"),
	}
	if period := viper.GetString("period"); period != "" {
		w, err := parseWindow(period, cfg.Window)
		if err != nil {
			return analysis.Config{}, &analysis.ConfigurationError{Key: "period", Reason: err.Error()}
		}
		cfg.Window = w
	}
	if err := cfg.Validate(); err != nil {
		return analysis.Config{}, err
	}
	return cfg, nil
}

// historyFiles expands directories to the JSON files inside them.
func historyFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", arg, err)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no history files found in %v", args)
	}
	return files, nil
}

// runSession reads every history file into a finalized session.
func runSession(ctx context.Context, cfg analysis.Config, args []string) (*analysis.Session, error) {
	files, err := historyFiles(args)
	if err != nil {
		return nil, err
	}
	session, err := analysis.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	if err := session.IngestFiles(ctx, files); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	if err := session.Finalize(); err != nil {
		return nil, err
	}
	return session, nil
}
