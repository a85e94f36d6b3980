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
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/unwrapped/internal/aggregate"
)

var topNumber int
var topCmd = &cobra.Command{
	Use:   "top <artists|tracks|albums|podcasts|episodes> <file or directory...>",
	Short: "Ranks one kind of entity",
	Long: `Ranks artists, tracks, albums, podcasts or podcast episodes by plays or by
listening time. Albums need the extended history export.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		err := printTop(cmd.Context(), os.Stdout, args[0], viper.GetString("by"), topNumber, args[1:])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(topCmd)

	topCmd.Flags().IntVarP(&topNumber, "number", "n", 0, "number of results to return (default from top_* settings)")

	var by string
	topCmd.Flags().StringVar(&by, "by", "plays", "Rank by plays or time")
	viper.BindPFlag("by", topCmd.Flags().Lookup("by"))
}

// parseTopQuery maps a command line entity and metric to a table.
func parseTopQuery(entity, by string) (aggregate.Query, error) {
	metric, err := aggregate.ParseMetric(by)
	if err != nil {
		return aggregate.Query{}, err
	}
	q := aggregate.Query{Metric: metric}
	switch strings.ToLower(entity) {
	case "artist", "artists":
		q.Category, q.Kind = aggregate.Song, aggregate.Artist
	case "track", "tracks", "song", "songs":
		q.Category, q.Kind = aggregate.Song, aggregate.Track
	case "album", "albums":
		q.Category, q.Kind = aggregate.Song, aggregate.Album
	case "podcast", "podcasts", "show", "shows":
		q.Category, q.Kind = aggregate.Podcast, aggregate.Artist
	case "episode", "episodes":
		q.Category, q.Kind = aggregate.Podcast, aggregate.Track
	default:
		return aggregate.Query{}, fmt.Errorf("Invalid entity %q: expected artists, tracks, albums, podcasts or episodes", entity)
	}
	return q, nil
}

func printTop(ctx context.Context, out io.Writer, entity, by string, number int, args []string) error {
	q, err := parseTopQuery(entity, by)
	if err != nil {
		return err
	}
	if number < 0 {
		return fmt.Errorf("number must be positive, got %d", number)
	}
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

	a, err := TopAnalyzer{Query: q, K: number}.GetResults(session)
	if err != nil {
		return err
	}
	fmt.Fprint(out, a)
	return nil
}
