package enrich

import (
	"math"
	"sort"

	"github.com/ademuri/unwrapped/internal/aggregate"
	"github.com/ademuri/unwrapped/internal/analysis"
	"github.com/ademuri/unwrapped/internal/store"
)

type albumKey struct {
	title  string
	artist string
}

type albumCount struct {
	plays   int64
	minutes float64
}

// albumTally sums the plays and minutes of resolved song pairs per album.
type albumTally struct {
	counts map[albumKey]*albumCount
}

func newAlbumTally() *albumTally {
	return &albumTally{counts: make(map[albumKey]*albumCount)}
}

func (t *albumTally) add(a store.SongAlbum, p aggregate.SongPair) {
	artist := a.AlbumArtist
	if artist == "" {
		artist = p.Artist
	}
	k := albumKey{title: a.Album, artist: artist}
	c, ok := t.counts[k]
	if !ok {
		c = &albumCount{}
		t.counts[k] = c
	}
	c.plays += p.Plays
	c.minutes += p.Minutes
}

// top ranks albums by plays and by hours. Ties go to the title, then the
// artist, in ascending order.
func (t *albumTally) top(k int) (byPlays, byHours []analysis.AlbumStat) {
	keys := make([]albumKey, 0, len(t.counts))
	for key := range t.counts {
		keys = append(keys, key)
	}

	less := func(value func(albumKey) float64) func(i, j int) bool {
		return func(i, j int) bool {
			vi, vj := value(keys[i]), value(keys[j])
			if vi != vj {
				return vi > vj
			}
			if keys[i].title != keys[j].title {
				return keys[i].title < keys[j].title
			}
			return keys[i].artist < keys[j].artist
		}
	}

	sort.Slice(keys, less(func(key albumKey) float64 { return float64(t.counts[key].plays) }))
	for _, key := range keys[:min(k, len(keys))] {
		byPlays = append(byPlays, analysis.AlbumStat{
			Title:  key.title,
			Artist: key.artist,
			Plays:  t.counts[key].plays,
		})
	}

	sort.Slice(keys, less(func(key albumKey) float64 { return t.counts[key].minutes }))
	for _, key := range keys[:min(k, len(keys))] {
		byHours = append(byHours, analysis.AlbumStat{
			Title:  key.title,
			Artist: key.artist,
			Hours:  round(t.counts[key].minutes / 60),
		})
	}
	return byPlays, byHours
}

// topGenres weights each genre by the plays of the top artists carrying it,
// as a share of the plays of every artist with known genres.
func topGenres(artists []analysis.Stat, genres []analysis.ArtistGenres, k int) []analysis.GenreStat {
	plays := make(map[string]int64, len(artists))
	for _, a := range artists {
		plays[a.Name] = a.Plays
	}

	weights := make(map[string]float64)
	var total float64
	for _, ag := range genres {
		p := float64(plays[ag.Artist])
		if p == 0 {
			p = 1
		}
		total += p
		for _, g := range ag.Genres {
			weights[g] += p
		}
	}
	if total == 0 {
		return nil
	}

	out := make([]analysis.GenreStat, 0, len(weights))
	for g, w := range weights {
		out = append(out, analysis.GenreStat{Genre: g, Weight: w / total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Genre < out[j].Genre
	})
	if len(out) > k {
		out = out[:k]
	}
	for i := range out {
		out[i].Weight = round(out[i].Weight)
	}
	return out
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
