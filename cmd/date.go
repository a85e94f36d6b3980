package cmd

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ademuri/unwrapped/internal/history"
)

type ParsedDate struct {
	Date  time.Time
	Year  bool
	Month bool
}

var (
	yearPattern  = regexp.MustCompile(`^\d{4}$`)
	monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// parseWindow applies a period like '2023', '2023-03' or '2023-01..2023-06'
// to base. A bare year keeps base's months.
func parseWindow(period string, base history.Window) (history.Window, error) {
	parts := strings.Split(period, "..")
	switch len(parts) {
	case 1:
		return getImplicitWindow(parts[0], base)
	case 2:
		return getExplicitWindow(parts[0], parts[1], base)
	}
	return history.Window{}, fmt.Errorf("Expected one or two dates in period %q", period)
}

func getImplicitWindow(ds string, base history.Window) (history.Window, error) {
	date, err := parseSingleDatestring(ds)
	if err != nil {
		return history.Window{}, err
	}

	w := base
	w.Year = date.Date.Year()
	if date.Month {
		w.FirstMonth = date.Date.Month()
		w.LastMonth = date.Date.Month()
	}
	return w, nil
}

func getExplicitWindow(startString, endString string, base history.Window) (history.Window, error) {
	start, err := parseSingleDatestring(startString)
	if err != nil {
		return history.Window{}, err
	}
	end, err := parseSingleDatestring(endString)
	if err != nil {
		return history.Window{}, err
	}
	if start.Date.Year() != end.Date.Year() {
		return history.Window{}, fmt.Errorf("Period must stay within one year: %s..%s", startString, endString)
	}

	w := base
	w.Year = start.Date.Year()
	w.FirstMonth = time.January
	if start.Month {
		w.FirstMonth = start.Date.Month()
	}
	w.LastMonth = time.December
	if end.Month {
		w.LastMonth = end.Date.Month()
	}
	if err := w.Validate(); err != nil {
		return history.Window{}, err
	}
	return w, nil
}

func parseSingleDatestring(ds string) (date ParsedDate, err error) {
	switch {
	case yearPattern.MatchString(ds):
		date.Date, err = time.Parse("2006", ds)
		if err != nil {
			err = fmt.Errorf("Parsing datestring as year: %w", err)
			return
		}
		date.Year = true

	case monthPattern.MatchString(ds):
		date.Date, err = time.Parse("2006-01", ds)
		if err != nil {
			err = fmt.Errorf("Parsing datestring as month: %w", err)
			return
		}
		date.Month = true

	default:
		err = fmt.Errorf("Invalid format: %q", ds)
	}
	return
}
