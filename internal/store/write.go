package store

import (
	"fmt"
)

// SaveSongAlbum stores a lookup result, replacing any earlier one.
func (s *Store) SaveSongAlbum(a SongAlbum) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO Song (artist, track, album, album_artist, image_url, found, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Artist, a.Track, a.Album, a.AlbumArtist, a.ImageURL, a.Found, s.now())
	if err != nil {
		return fmt.Errorf("saving song %q by %q: %w", a.Track, a.Artist, err)
	}
	return nil
}

// SaveArtistGenres replaces the genres stored for an artist and marks them
// updated.
func (s *Store) SaveArtistGenres(g ArtistGenres) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT OR REPLACE INTO Artist (name, source, found, genres_last_updated) VALUES (?, ?, ?, ?)",
		g.Artist, g.Source, g.Found, s.now())
	if err != nil {
		return fmt.Errorf("saving artist %q: %w", g.Artist, err)
	}

	_, err = tx.Exec("DELETE FROM ArtistGenre WHERE artist = ? AND source = ?", g.Artist, g.Source)
	if err != nil {
		return fmt.Errorf("clearing genres for %q: %w", g.Artist, err)
	}

	for rank, genre := range g.Genres {
		_, err := tx.Exec(
			"INSERT OR REPLACE INTO ArtistGenre (artist, source, genre, rank) VALUES (?, ?, ?, ?)",
			g.Artist, g.Source, genre, rank)
		if err != nil {
			return fmt.Errorf("linking genre %q to artist %q: %w", genre, g.Artist, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveRun stores a summary report and returns its id.
func (s *Store) SaveRun(r Run) (int64, error) {
	created := r.Created
	if created.IsZero() {
		created = s.now()
	}
	res, err := s.db.Exec(
		"INSERT INTO Run (created, period, strategy, files, records, report) VALUES (?, ?, ?, ?, ?, ?)",
		created, r.Period, r.Strategy, r.Files, r.Records, r.Report)
	if err != nil {
		return 0, fmt.Errorf("saving run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("saving run: %w", err)
	}
	return id, nil
}

func (s *Store) DeleteRun(id int64) error {
	res, err := s.db.Exec("DELETE FROM Run WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	return nil
}
