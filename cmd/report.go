package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ademuri/unwrapped/internal/analysis"
	"github.com/ademuri/unwrapped/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report <file or directory...>",
	Short: "Generates a YAML summary report",
	Long: `Reads the history files and writes a YAML report of totals, top lists and
listening patterns. With --enrich, albums and genres are looked up too. With
--save, the report is stored in the database; see 'runs'.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := runReport(cmd.Context(), os.Stdout, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	var enrichReport, save bool
	reportCmd.Flags().BoolVar(&enrichReport, "enrich", false, "Add album, genre and recommendation lookups")
	viper.BindPFlag("enrich", reportCmd.Flags().Lookup("enrich"))
	reportCmd.Flags().BoolVar(&save, "save", false, "Save the report in the database")
	viper.BindPFlag("save", reportCmd.Flags().Lookup("save"))
}

func runReport(ctx context.Context, out io.Writer, args []string) error {
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

	report, err := session.Summary()
	if err != nil {
		return fmt.Errorf("analyzing data: %w", err)
	}
	if viper.GetBool("enrich") {
		if err := enrichSummary(ctx, session, report); err != nil {
			return fmt.Errorf("enriching report: %w", err)
		}
	}

	encoded, err := encodeReport(report)
	if err != nil {
		return err
	}
	if _, err := out.Write(encoded); err != nil {
		return err
	}

	if viper.GetBool("save") {
		id, err := saveReport(viper.GetString("database"), report, encoded)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved run %d\n", id)
	}
	return nil
}

func encodeReport(report *analysis.Summary) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return buf.Bytes(), nil
}

func saveReport(dbPath string, report *analysis.Summary, encoded []byte) (int64, error) {
	db, err := store.New(dbPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	return db.SaveRun(store.Run{
		Period:   report.Metadata.Period,
		Strategy: report.Metadata.Strategy,
		Files:    report.Metadata.Files,
		Records:  report.Metadata.RecordsKept,
		Report:   string(encoded),
	})
}
