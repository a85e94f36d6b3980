package analysis

const (
	BandObsession = "Obsession"
	BandStrong    = "Strong"
	BandModerate  = "Moderate"

	// Artist thresholds, in plays over the window.
	ThresholdArtistObsession = 120
	ThresholdArtistStrong    = 50
	ThresholdArtistModerate  = 15

	// Track thresholds.
	ThresholdTrackObsession = 60
	ThresholdTrackStrong    = 30
	ThresholdTrackModerate  = 10
)

// GetThreshold returns the minimum plays for a given band and kind
// (artist/track).
func GetThreshold(band string, isArtist bool) int {
	if isArtist {
		switch band {
		case BandObsession:
			return ThresholdArtistObsession
		case BandStrong:
			return ThresholdArtistStrong
		case BandModerate:
			return ThresholdArtistModerate
		}
	} else {
		switch band {
		case BandObsession:
			return ThresholdTrackObsession
		case BandStrong:
			return ThresholdTrackStrong
		case BandModerate:
			return ThresholdTrackModerate
		}
	}
	return 0
}

// determineBand returns "" below the moderate threshold.
func determineBand(plays int64, isArtist bool) string {
	for _, band := range []string{BandObsession, BandStrong, BandModerate} {
		if plays >= int64(GetThreshold(band, isArtist)) {
			return band
		}
	}
	return ""
}
