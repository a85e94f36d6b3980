package catalog

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []spotifyImage `json:"images"`
}

type spotifyAlbum struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	AlbumType   string           `json:"album_type"`
	ReleaseDate string           `json:"release_date"`
	Artists     []*spotifyArtist `json:"artists"`
	Images      []spotifyImage   `json:"images"`
}

type spotifyTrack struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Album   *spotifyAlbum    `json:"album"`
	Artists []*spotifyArtist `json:"artists"`
}

type searchResponse struct {
	Tracks *struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
	Artists *struct {
		Items []spotifyArtist `json:"items"`
	} `json:"artists"`
	Albums *struct {
		Items []spotifyAlbum `json:"items"`
	} `json:"albums"`
}

// largestImage returns the URL of the widest image, or "".
func largestImage(images []spotifyImage) string {
	url, width := "", -1
	for _, img := range images {
		if img.Width > width {
			url, width = img.URL, img.Width
		}
	}
	return url
}

// artistScore is the best similarity between name and any of the artists.
func artistScore(name string, artists []*spotifyArtist) float64 {
	best := 0.0
	for _, a := range artists {
		if a == nil {
			continue
		}
		if s := Similarity(name, a.Name); s > best {
			best = s
		}
	}
	return best
}
