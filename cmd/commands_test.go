package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/ademuri/unwrapped/internal/analysis"
)

const historyJSON = `[
  {"endTime": "2023-03-01 09:00", "artistName": "Artist A", "trackName": "Track 1", "msPlayed": 180000},
  {"endTime": "2023-03-02 09:00", "artistName": "Artist A", "trackName": "Track 2", "msPlayed": 600000},
  {"endTime": "2023-04-01 09:00", "artistName": "Artist B", "trackName": "Track 3", "msPlayed": 700000},
  {"endTime": "2023-04-02 09:00", "artistName": "Artist C", "trackName": "Skipped", "msPlayed": 30000}
]`

// setTestConfig resets viper to the flag defaults and returns a history
// directory with one export file in it.
func setTestConfig(t *testing.T) (historyDir string, dbPath string) {
	t.Helper()
	viper.Reset()

	dir := t.TempDir()
	dbPath = filepath.Join(dir, "unwrapped.db")
	historyDir = filepath.Join(dir, "history")
	if err := os.Mkdir(historyDir, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(historyDir, "StreamingHistory0.json"), []byte(historyJSON), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := analysis.DefaultConfig()
	viper.Set("database", dbPath)
	viper.Set("year", defaults.Window.Year)
	viper.Set("first_month", int(defaults.Window.FirstMonth))
	viper.Set("last_month", int(defaults.Window.LastMonth))
	viper.Set("min_minutes", defaults.Window.MinMinutes)
	viper.Set("podcast_threshold", defaults.PodcastThreshold)
	viper.Set("strategy", string(defaults.Strategy))
	viper.Set("artist_lg_k", defaults.ArtistLgMaxMapSize)
	viper.Set("track_lg_k", defaults.TrackLgMaxMapSize)
	viper.Set("workers", defaults.Workers)
	viper.Set("top_artists", defaults.TopArtists)
	viper.Set("top_tracks", defaults.TopTracks)
	viper.Set("top_podcasts", defaults.TopPodcasts)
	viper.Set("top_albums", defaults.TopAlbums)
	viper.Set("sample_rate", defaults.SampleRate)
	viper.Set("seed", defaults.Seed)
	viper.Set("genre_source", genreSourceSpotify)
	t.Cleanup(viper.Reset)
	return historyDir, dbPath
}

func TestPrintSummary(t *testing.T) {
	dir, _ := setTestConfig(t)

	var out bytes.Buffer
	if err := printSummary(context.Background(), &out, []string{dir}); err != nil {
		t.Fatalf("printSummary: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Unwrapped 2023-01 to 2023-10",
		"Read 4 records from 1 files, kept 3",
		"## Top song artists by plays",
		"## Top podcasts by hours",
		"Artist A",
		"Artist B",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("printSummary output is missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Skipped") {
		t.Errorf("printSummary should have dropped the 30 second listen:\n%s", got)
	}
	if strings.Contains(got, "song albums") {
		t.Errorf("printSummary should not list albums for the basic export:\n%s", got)
	}
}

func TestPrintTop(t *testing.T) {
	dir, _ := setTestConfig(t)

	var out bytes.Buffer
	if err := printTop(context.Background(), &out, "podcasts", "time", 0, []string{dir}); err != nil {
		t.Fatalf("printTop: %v", err)
	}
	if !strings.Contains(out.String(), "Artist B") || !strings.Contains(out.String(), "0.194") {
		t.Errorf("Expected Artist B with 0.194 hours, got:\n%s", out.String())
	}

	out.Reset()
	if err := printTop(context.Background(), &out, "tracks", "plays", 1, []string{dir}); err != nil {
		t.Fatalf("printTop: %v", err)
	}
	if !strings.Contains(out.String(), "Showing 1 of 2 tracks") {
		t.Errorf("Expected one of two tracks, got:\n%s", out.String())
	}
}

func TestPrintTopSketch(t *testing.T) {
	dir, _ := setTestConfig(t)
	viper.Set("strategy", "sketch")

	var out bytes.Buffer
	if err := printTop(context.Background(), &out, "artists", "plays", 0, []string{dir}); err != nil {
		t.Fatalf("printTop: %v", err)
	}
	if !strings.Contains(out.String(), "approximate") {
		t.Errorf("Expected an error bound for the sketch strategy, got:\n%s", out.String())
	}
}

func TestPrintTopInvalidArgs(t *testing.T) {
	dir, _ := setTestConfig(t)

	if err := printTop(context.Background(), &bytes.Buffer{}, "genres", "plays", 0, []string{dir}); err == nil {
		t.Errorf("printTop should have errored with an invalid entity")
	}
	if err := printTop(context.Background(), &bytes.Buffer{}, "artists", "loudness", 0, []string{dir}); err == nil {
		t.Errorf("printTop should have errored with an invalid metric")
	}
	if err := printTop(context.Background(), &bytes.Buffer{}, "artists", "plays", 0, []string{filepath.Join(dir, "missing.json")}); err == nil {
		t.Errorf("printTop should have errored with a missing file")
	}
}

func TestInvalidConfiguration(t *testing.T) {
	dir, _ := setTestConfig(t)
	viper.Set("top_artists", 0)

	err := printSummary(context.Background(), &bytes.Buffer{}, []string{dir})
	var cfgErr *analysis.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Key != "top_artists" {
		t.Fatalf("Expected a top_artists ConfigurationError, got %v", err)
	}

	viper.Set("top_artists", 5)
	viper.Set("period", "2023-13")
	err = printSummary(context.Background(), &bytes.Buffer{}, []string{dir})
	if !errors.As(err, &cfgErr) || cfgErr.Key != "period" {
		t.Fatalf("Expected a period ConfigurationError, got %v", err)
	}
}

func TestPeriodOverridesWindow(t *testing.T) {
	dir, _ := setTestConfig(t)
	viper.Set("period", "2023-04")

	var out bytes.Buffer
	if err := printSummary(context.Background(), &out, []string{dir}); err != nil {
		t.Fatalf("printSummary: %v", err)
	}
	if !strings.Contains(out.String(), "kept 1") {
		t.Errorf("Expected only the April listen to be kept, got:\n%s", out.String())
	}
}

func TestReportSaveAndRuns(t *testing.T) {
	dir, dbPath := setTestConfig(t)
	viper.Set("save", true)

	var report bytes.Buffer
	if err := runReport(context.Background(), &report, []string{dir}); err != nil {
		t.Fatalf("runReport: %v", err)
	}
	if !strings.Contains(report.String(), "top_artists_by_plays:") {
		t.Fatalf("Expected a YAML report, got:\n%s", report.String())
	}

	var list bytes.Buffer
	if err := listRuns(&list, dbPath); err != nil {
		t.Fatalf("listRuns: %v", err)
	}
	if !strings.Contains(list.String(), "2023-01 to 2023-10") {
		t.Errorf("Expected the saved run to be listed, got:\n%s", list.String())
	}

	var shown bytes.Buffer
	if err := showRun(&shown, dbPath, "1"); err != nil {
		t.Fatalf("showRun: %v", err)
	}
	if shown.String() != report.String() {
		t.Errorf("showRun = %q, want %q", shown.String(), report.String())
	}

	if err := deleteRun(dbPath, "1"); err != nil {
		t.Fatalf("deleteRun: %v", err)
	}
	if err := showRun(&bytes.Buffer{}, dbPath, "1"); err == nil {
		t.Errorf("showRun should have errored after delete")
	}
	if err := deleteRun(dbPath, "first"); err == nil {
		t.Errorf("deleteRun should have errored with an invalid id")
	}
}

func TestEnrichNeedsCredentials(t *testing.T) {
	dir, _ := setTestConfig(t)

	err := printEnrichment(context.Background(), &bytes.Buffer{}, []string{dir})
	if err == nil || !strings.Contains(err.Error(), "spotify_client_id") {
		t.Fatalf("Expected an error about missing credentials, got %v", err)
	}
}

func TestRefreshGenresNeedsCredentials(t *testing.T) {
	setTestConfig(t)

	err := refreshGenres(context.Background(), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "spotify_client_id") {
		t.Fatalf("Expected an error about missing credentials, got %v", err)
	}
}

func TestHistoryFilesEmptyDirectory(t *testing.T) {
	if _, err := historyFiles([]string{t.TempDir()}); err == nil {
		t.Errorf("historyFiles should have errored with no JSON files")
	}
}

func TestSetupLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		if _, err := setupLogger(level); err != nil {
			t.Errorf("setupLogger(%q): %v", level, err)
		}
	}
	if _, err := setupLogger("loud"); err == nil {
		t.Errorf("setupLogger should have errored with an unknown level")
	}
}
