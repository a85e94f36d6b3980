package analysis

// Summary is the top-level structure for an unwrapped report.
type Summary struct {
	Metadata          Metadata          `yaml:"metadata"`
	Songs             CategorySummary   `yaml:"songs"`
	Podcasts          CategorySummary   `yaml:"podcasts"`
	ListeningPatterns ListeningPatterns `yaml:"listening_patterns"`
	Enrichment        *Enrichment       `yaml:"enrichment,omitempty"`
}

type Metadata struct {
	GeneratedDate string `yaml:"generated_date"`
	Period        string `yaml:"period"`
	Strategy      string `yaml:"strategy"`
	Files         int    `yaml:"files"`
	RecordsRead   int    `yaml:"records_read"`
	RecordsKept   int    `yaml:"records_kept"`
	Malformed     int    `yaml:"malformed,omitempty"`
}

type CategorySummary struct {
	TotalPlays      int64   `yaml:"total_plays"`
	TotalHours      float64 `yaml:"total_hours"`
	DistinctArtists uint64  `yaml:"distinct_artists"`
	DistinctTracks  uint64  `yaml:"distinct_tracks"`

	TopArtistsByPlays []Stat `yaml:"top_artists_by_plays"`
	TopArtistsByHours []Stat `yaml:"top_artists_by_hours"`
	TopTracksByPlays  []Stat `yaml:"top_tracks_by_plays"`
	TopTracksByHours  []Stat `yaml:"top_tracks_by_hours"`
	TopAlbumsByPlays  []Stat `yaml:"top_albums_by_plays,omitempty"`
	TopAlbumsByHours  []Stat `yaml:"top_albums_by_hours,omitempty"`
}

type Stat struct {
	Name  string  `yaml:"name"`
	Plays int64   `yaml:"plays,omitempty"`
	Hours float64 `yaml:"hours,omitempty"`
	// Band is set for song artists and tracks ranked by plays.
	Band string `yaml:"band,omitempty"`
}

type ListeningPatterns struct {
	// Share of song plays that went to the top artist.
	TopArtistShare   float64 `yaml:"top_artist_share"`
	MinutesPerSong   float64 `yaml:"minutes_per_song"`
	PodcastTimeShare float64 `yaml:"podcast_time_share"`
	PlaysPerTrack    float64 `yaml:"plays_per_track"`
	ListeningStyle   string  `yaml:"listening_style"`
}

// Enrichment holds the results of catalog and recommendation lookups.
type Enrichment struct {
	SampleRate     float64        `yaml:"sample_rate"`
	SampledSongs   int            `yaml:"sampled_songs"`
	ResolvedSongs  int            `yaml:"resolved_songs"`
	AlbumsByPlays  []AlbumStat    `yaml:"top_albums_by_plays"`
	AlbumsByHours  []AlbumStat    `yaml:"top_albums_by_hours"`
	ArtistGenres   []ArtistGenres `yaml:"artist_genres,omitempty"`
	TopGenres      []GenreStat    `yaml:"top_genres,omitempty"`
	Recommendation string         `yaml:"recommendation,omitempty"`
}

type AlbumStat struct {
	Title   string  `yaml:"title"`
	Artist  string  `yaml:"artist"`
	Plays   int64   `yaml:"plays,omitempty"`
	Hours   float64 `yaml:"hours,omitempty"`
	Artwork string  `yaml:"artwork,omitempty"`
}

type ArtistGenres struct {
	Artist string   `yaml:"artist"`
	Genres []string `yaml:"genres"`
}

type GenreStat struct {
	Genre  string  `yaml:"genre"`
	Weight float64 `yaml:"weight"`
}
