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
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/unwrapped/internal/store"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Lists reports saved with 'report --save'",
	Long:  ``,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := listRuns(os.Stdout, viper.GetString("database"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var showRunCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Prints a saved report",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := showRun(os.Stdout, viper.GetString("database"), args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var deleteRunCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Deletes a saved report",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := deleteRun(viper.GetString("database"), args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(showRunCmd)
	runsCmd.AddCommand(deleteRunCmd)
}

func listRuns(out io.Writer, dbPath string) error {
	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tPERIOD\tSTRATEGY\tFILES\tRECORDS")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.Created.Format("2006-01-02 15:04"), r.Period, r.Strategy, r.Files, r.Records)
	}
	return w.Flush()
}

func showRun(out io.Writer, dbPath string, idString string) error {
	id, err := parseRunID(idString)
	if err != nil {
		return err
	}
	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := db.GetRun(id)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, r.Report)
	return err
}

func deleteRun(dbPath string, idString string) error {
	id, err := parseRunID(idString)
	if err != nil {
		return err
	}
	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.DeleteRun(id)
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("Invalid run id %q", s)
	}
	return id, nil
}
