package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrRunNotFound = errors.New("run not found")

// SongAlbum is a cached album lookup for one song. Found is false when the
// catalog had no match; that answer is cached too.
type SongAlbum struct {
	Artist      string
	Track       string
	Album       string
	AlbumArtist string
	ImageURL    string
	Found       bool
	Updated     time.Time
}

// ArtistGenres is a cached genre lookup for one artist from one source.
type ArtistGenres struct {
	Artist  string
	Source  string
	Genres  []string
	Found   bool
	Updated time.Time
}

// Run is a saved summary report.
type Run struct {
	ID       int64
	Created  time.Time
	Period   string
	Strategy string
	Files    int
	Records  int
	Report   string
}

// GetSongAlbum returns the cached lookup for a song. ok is false when there
// is no entry or the entry is older than maxAge.
func (s *Store) GetSongAlbum(artist, track string, maxAge time.Duration) (SongAlbum, bool, error) {
	a := SongAlbum{Artist: artist, Track: track}
	var album, albumArtist, imageURL sql.NullString
	var updated sql.NullTime
	err := s.db.QueryRow(
		"SELECT album, album_artist, image_url, found, last_updated FROM Song WHERE artist = ? AND track = ?",
		artist, track).Scan(&album, &albumArtist, &imageURL, &a.Found, &updated)
	if err == sql.ErrNoRows {
		return SongAlbum{}, false, nil
	}
	if err != nil {
		return SongAlbum{}, false, fmt.Errorf("querying song %q by %q: %w", track, artist, err)
	}
	if !s.fresh(updated, maxAge) {
		return SongAlbum{}, false, nil
	}
	a.Album = album.String
	a.AlbumArtist = albumArtist.String
	a.ImageURL = imageURL.String
	a.Updated = updated.Time
	return a, true, nil
}

// GetArtistGenres returns the cached genres for an artist, ranked. ok is false
// when there is no entry or the entry is older than maxAge.
func (s *Store) GetArtistGenres(artist, source string, maxAge time.Duration) (ArtistGenres, bool, error) {
	g := ArtistGenres{Artist: artist, Source: source}
	var updated sql.NullTime
	err := s.db.QueryRow(
		"SELECT found, genres_last_updated FROM Artist WHERE name = ? AND source = ?",
		artist, source).Scan(&g.Found, &updated)
	if err == sql.ErrNoRows {
		return ArtistGenres{}, false, nil
	}
	if err != nil {
		return ArtistGenres{}, false, fmt.Errorf("querying artist %q: %w", artist, err)
	}
	if !s.fresh(updated, maxAge) {
		return ArtistGenres{}, false, nil
	}
	g.Updated = updated.Time

	rows, err := s.db.Query(
		"SELECT genre FROM ArtistGenre WHERE artist = ? AND source = ? ORDER BY rank",
		artist, source)
	if err != nil {
		return ArtistGenres{}, false, fmt.Errorf("querying genres for %q: %w", artist, err)
	}
	defer rows.Close()
	for rows.Next() {
		var genre string
		if err := rows.Scan(&genre); err != nil {
			return ArtistGenres{}, false, err
		}
		g.Genres = append(g.Genres, genre)
	}
	if err := rows.Err(); err != nil {
		return ArtistGenres{}, false, err
	}
	return g, true, nil
}

// GetArtistsNeedingGenreUpdate lists cached artists whose genres are older
// than interval.
func (s *Store) GetArtistsNeedingGenreUpdate(source string, interval time.Duration) ([]string, error) {
	threshold := s.now().Add(-interval)
	rows, err := s.db.Query(
		"SELECT name, genres_last_updated FROM Artist WHERE source = ? ORDER BY name", source)
	if err != nil {
		return nil, fmt.Errorf("querying artists for genre update: %w", err)
	}
	defer rows.Close()

	var artists []string
	for rows.Next() {
		var name string
		var updated sql.NullTime
		if err := rows.Scan(&name, &updated); err != nil {
			return nil, err
		}
		if !updated.Valid || updated.Time.Before(threshold) {
			artists = append(artists, name)
		}
	}
	return artists, rows.Err()
}

// ListRuns returns saved runs, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(
		"SELECT id, created, period, strategy, files, records, report FROM Run ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Created, &r.Period, &r.Strategy, &r.Files, &r.Records, &r.Report); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) GetRun(id int64) (Run, error) {
	r := Run{ID: id}
	err := s.db.QueryRow(
		"SELECT created, period, strategy, files, records, report FROM Run WHERE id = ?", id).
		Scan(&r.Created, &r.Period, &r.Strategy, &r.Files, &r.Records, &r.Report)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("querying run %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) fresh(updated sql.NullTime, maxAge time.Duration) bool {
	if !updated.Valid {
		return false
	}
	return !updated.Time.Before(s.now().Add(-maxAge))
}
