// Package history reads exported streaming-history files and normalizes them
// into playback records for aggregation.
package history

import "time"

// Record is one playback event. Records are created by the reader, handed to
// an aggregator once and then dropped; nothing keeps them around.
type Record struct {
	Artist string
	Track  string
	// Album is only known for the extended export format.
	Album   string
	EndTime time.Time
	Minutes float64
}

// Stats counts what happened to the raw records of one or more files.
type Stats struct {
	Read        int
	Kept        int
	Malformed   int
	OutOfWindow int
	TooShort    int
}

func (s *Stats) Add(o Stats) {
	s.Read += o.Read
	s.Kept += o.Kept
	s.Malformed += o.Malformed
	s.OutOfWindow += o.OutOfWindow
	s.TooShort += o.TooShort
}
