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

	"github.com/spf13/cobra"

	"github.com/ademuri/unwrapped/internal/analysis"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <file or directory...>",
	Short: "Prints every top list for the window",
	Long: `Reads the history files and prints the top artists, tracks, albums, podcasts
and episodes by plays and by listening time.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := printSummary(cmd.Context(), os.Stdout, args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func printSummary(ctx context.Context, out io.Writer, args []string) error {
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
	return writeSummary(out, session)
}

func writeSummary(out io.Writer, session *analysis.Session) error {
	cfg := session.Config()
	stats := session.Stats()
	fmt.Fprintf(out, "Unwrapped %s\n", cfg.Window)
	fmt.Fprintf(out, "Read %d records from %d files, kept %d (%s strategy)\n\n",
		stats.Read, session.Files(), stats.Kept, cfg.Strategy)

	analyzers, err := summaryAnalyzers(session)
	if err != nil {
		return err
	}
	for _, analyzer := range analyzers {
		a, err := analyzer.GetResults(session)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "## %s\n", analyzer.GetName())
		fmt.Fprintln(out, a)
	}
	return nil
}
