package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/ademuri/unwrapped/internal/aggregate"
)

const (
	styleRepeat      = "repeat-listener"
	styleExploratory = "exploratory"
	// Average plays per distinct song above which listening counts as
	// repeat-heavy.
	repeatPlaysPerTrack = 3.0
)

// GenerateSummary builds the report for a finalized aggregator.
func GenerateSummary(agg aggregate.Aggregator, cfg Config) (*Summary, error) {
	if !agg.Finalized() {
		return nil, &aggregate.StateError{Op: "summary", Err: aggregate.ErrNotFinalized}
	}

	summary := &Summary{
		Metadata: Metadata{
			GeneratedDate: time.Now().Format("2006-01-02"),
			Period:        cfg.Window.String(),
			Strategy:      string(agg.Strategy()),
		},
	}

	var err error
	if summary.Songs, err = categorySummary(agg, cfg, aggregate.Song); err != nil {
		return nil, fmt.Errorf("songs: %w", err)
	}
	if summary.Podcasts, err = categorySummary(agg, cfg, aggregate.Podcast); err != nil {
		return nil, fmt.Errorf("podcasts: %w", err)
	}
	summary.ListeningPatterns = listeningPatterns(summary.Songs, summary.Podcasts)
	return summary, nil
}

type table struct {
	kind   aggregate.Kind
	metric aggregate.Metric
	out    *[]Stat
}

func categorySummary(agg aggregate.Aggregator, cfg Config, cat aggregate.Category) (CategorySummary, error) {
	var cs CategorySummary

	totals, err := agg.Totals(cat)
	if err != nil {
		return cs, err
	}
	cs.TotalPlays = totals.Plays
	cs.TotalHours = round(totals.Minutes / 60)

	if cs.DistinctArtists, err = agg.Distinct(cat, aggregate.Artist); err != nil {
		return cs, err
	}
	if cs.DistinctTracks, err = agg.Distinct(cat, aggregate.Track); err != nil {
		return cs, err
	}

	tables := []table{
		{aggregate.Artist, aggregate.Plays, &cs.TopArtistsByPlays},
		{aggregate.Artist, aggregate.Minutes, &cs.TopArtistsByHours},
		{aggregate.Track, aggregate.Plays, &cs.TopTracksByPlays},
		{aggregate.Track, aggregate.Minutes, &cs.TopTracksByHours},
	}
	albums, err := agg.Distinct(cat, aggregate.Album)
	if err != nil {
		return cs, err
	}
	if albums > 0 {
		tables = append(tables,
			table{aggregate.Album, aggregate.Plays, &cs.TopAlbumsByPlays},
			table{aggregate.Album, aggregate.Minutes, &cs.TopAlbumsByHours})
	}

	for _, t := range tables {
		q := aggregate.Query{Category: cat, Kind: t.kind, Metric: t.metric}
		result, err := aggregate.TopK(agg, q, cfg.K(cat, t.kind))
		if err != nil {
			return cs, fmt.Errorf("%s: %w", q, err)
		}
		rows := Rows(result)
		if cat == aggregate.Song && t.metric == aggregate.Plays && t.kind != aggregate.Album {
			for i := range rows {
				rows[i].Band = determineBand(rows[i].Plays, t.kind == aggregate.Artist)
			}
		}
		*t.out = rows
	}
	return cs, nil
}

// Rows converts a ranking into report rows.
func Rows(result aggregate.Result) []Stat {
	stats := make([]Stat, 0, len(result.Entries))
	for _, e := range result.Entries {
		s := Stat{Name: e.Name}
		if result.Query.Metric == aggregate.Minutes {
			s.Hours = round(e.Value)
		} else {
			s.Plays = int64(e.Value)
		}
		stats = append(stats, s)
	}
	return stats
}

func listeningPatterns(songs, podcasts CategorySummary) ListeningPatterns {
	var lp ListeningPatterns
	if songs.TotalPlays > 0 {
		if len(songs.TopArtistsByPlays) > 0 {
			lp.TopArtistShare = round(float64(songs.TopArtistsByPlays[0].Plays) / float64(songs.TotalPlays))
		}
		lp.MinutesPerSong = round(songs.TotalHours * 60 / float64(songs.TotalPlays))
	}
	if songs.DistinctTracks > 0 {
		lp.PlaysPerTrack = round(float64(songs.TotalPlays) / float64(songs.DistinctTracks))
	}
	if total := songs.TotalHours + podcasts.TotalHours; total > 0 {
		lp.PodcastTimeShare = round(podcasts.TotalHours / total)
	}

	if lp.PlaysPerTrack >= repeatPlaysPerTrack {
		lp.ListeningStyle = styleRepeat
	} else {
		lp.ListeningStyle = styleExploratory
	}
	return lp
}

// round keeps three decimals, which is enough for hours and ratios.
func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
