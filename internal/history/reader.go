package history

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	basicTimeLayout = "2006-01-02 15:04"
	msPerMinute     = 60 * 1000
)

// InputFormatError describes a raw record that could not be normalized. The
// reader logs and skips these; they never fail a whole file.
type InputFormatError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InputFormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("record %d: %s: %s", e.Index, e.Field, e.Reason)
}

// rawRecord covers both the basic export (endTime, artistName, trackName,
// msPlayed) and the extended export (ts, ms_played, master_metadata_*).
type rawRecord struct {
	EndTime    *string  `json:"endTime"`
	ArtistName *string  `json:"artistName"`
	TrackName  *string  `json:"trackName"`
	MsPlayed   *float64 `json:"msPlayed"`

	Timestamp   *string  `json:"ts"`
	MsPlayedExt *float64 `json:"ms_played"`
	TrackExt    *string  `json:"master_metadata_track_name"`
	ArtistExt   *string  `json:"master_metadata_album_artist_name"`
	AlbumExt    *string  `json:"master_metadata_album_album_name"`
	Episode     *string  `json:"episode_name"`
	Show        *string  `json:"episode_show_name"`
}

func (r rawRecord) extended() bool {
	return r.Timestamp != nil || r.MsPlayedExt != nil
}

// Reader turns exported history files into records inside a Window.
type Reader struct {
	Window Window
}

func NewReader(w Window) *Reader {
	return &Reader{Window: w}
}

// Each decodes a JSON array one element at a time and calls fn for every
// record that survives validation and the window filter. Malformed elements
// are logged and skipped. A document that is not an array, or an error from
// fn, stops the read.
func (r *Reader) Each(in io.Reader, fn func(Record) error) (Stats, error) {
	var stats Stats
	dec := json.NewDecoder(in)

	tok, err := dec.Token()
	if err != nil {
		return stats, fmt.Errorf("reading history: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return stats, fmt.Errorf("reading history: expected a JSON array of records")
	}

	for i := 0; dec.More(); i++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return stats, fmt.Errorf("reading history record %d: %w", i, err)
		}
		stats.Read++

		rec, err := parseRecord(i, raw)
		if err != nil {
			stats.Malformed++
			logger.Warn("Skipping malformed record", zap.Error(err))
			continue
		}

		if !r.Window.Contains(rec.EndTime) {
			stats.OutOfWindow++
			continue
		}
		if !(rec.Minutes > r.Window.MinMinutes) {
			stats.TooShort++
			continue
		}

		stats.Kept++
		if err := fn(rec); err != nil {
			return stats, err
		}
	}

	if _, err := dec.Token(); err != nil {
		return stats, fmt.Errorf("reading history: %w", err)
	}
	return stats, nil
}

func parseRecord(index int, data []byte) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, &InputFormatError{Index: index, Reason: err.Error()}
	}
	if raw.extended() {
		return normalizeExtended(index, raw)
	}
	return normalizeBasic(index, raw)
}

func normalizeBasic(index int, raw rawRecord) (Record, error) {
	if raw.EndTime == nil {
		return Record{}, &InputFormatError{Index: index, Field: "endTime", Reason: "missing"}
	}
	endTime, err := time.Parse(basicTimeLayout, *raw.EndTime)
	if err != nil {
		return Record{}, &InputFormatError{Index: index, Field: "endTime", Reason: err.Error()}
	}
	artist, err := requiredName(index, "artistName", raw.ArtistName)
	if err != nil {
		return Record{}, err
	}
	track, err := requiredName(index, "trackName", raw.TrackName)
	if err != nil {
		return Record{}, err
	}
	minutes, err := minutesPlayed(index, "msPlayed", raw.MsPlayed)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Artist:  artist,
		Track:   track,
		EndTime: endTime,
		Minutes: minutes,
	}, nil
}

func normalizeExtended(index int, raw rawRecord) (Record, error) {
	if raw.Timestamp == nil {
		return Record{}, &InputFormatError{Index: index, Field: "ts", Reason: "missing"}
	}
	endTime, err := time.Parse(time.RFC3339, *raw.Timestamp)
	if err != nil {
		return Record{}, &InputFormatError{Index: index, Field: "ts", Reason: err.Error()}
	}
	minutes, err := minutesPlayed(index, "ms_played", raw.MsPlayedExt)
	if err != nil {
		return Record{}, err
	}

	rec := Record{EndTime: endTime, Minutes: minutes}
	if raw.Show != nil && strings.TrimSpace(*raw.Show) != "" {
		if rec.Artist, err = requiredName(index, "episode_show_name", raw.Show); err != nil {
			return Record{}, err
		}
		if rec.Track, err = requiredName(index, "episode_name", raw.Episode); err != nil {
			return Record{}, err
		}
		return rec, nil
	}

	if rec.Artist, err = requiredName(index, "master_metadata_album_artist_name", raw.ArtistExt); err != nil {
		return Record{}, err
	}
	if rec.Track, err = requiredName(index, "master_metadata_track_name", raw.TrackExt); err != nil {
		return Record{}, err
	}
	if raw.AlbumExt != nil {
		rec.Album = strings.TrimSpace(*raw.AlbumExt)
	}
	return rec, nil
}

func requiredName(index int, field string, value *string) (string, error) {
	if value == nil {
		return "", &InputFormatError{Index: index, Field: field, Reason: "missing"}
	}
	name := strings.TrimSpace(*value)
	if name == "" {
		return "", &InputFormatError{Index: index, Field: field, Reason: "empty"}
	}
	return name, nil
}

func minutesPlayed(index int, field string, ms *float64) (float64, error) {
	if ms == nil {
		return 0, &InputFormatError{Index: index, Field: field, Reason: "missing"}
	}
	if *ms < 0 || math.IsNaN(*ms) || math.IsInf(*ms, 0) {
		return 0, &InputFormatError{Index: index, Field: field, Reason: fmt.Sprintf("invalid duration %v", *ms)}
	}
	return *ms / msPerMinute, nil
}
