package history

import (
	"fmt"
	"time"
)

const (
	DefaultYear       = 2023
	DefaultMinMinutes = 0.5
)

// Window is the calendar range of records that take part in a summary. The
// export this tool was built around only covers January to October, so that
// is the default range.
type Window struct {
	Year       int
	FirstMonth time.Month
	LastMonth  time.Month
	// Records must be strictly longer than this to count as a listen.
	MinMinutes float64
}

func DefaultWindow(year int) Window {
	return Window{
		Year:       year,
		FirstMonth: time.January,
		LastMonth:  time.October,
		MinMinutes: DefaultMinMinutes,
	}
}

func (w Window) Validate() error {
	if w.Year < 1 {
		return fmt.Errorf("invalid year %d", w.Year)
	}
	if w.FirstMonth < time.January || w.FirstMonth > time.December {
		return fmt.Errorf("invalid first month %d", w.FirstMonth)
	}
	if w.LastMonth < time.January || w.LastMonth > time.December {
		return fmt.Errorf("invalid last month %d", w.LastMonth)
	}
	if w.FirstMonth > w.LastMonth {
		return fmt.Errorf("first month %s is after last month %s", w.FirstMonth, w.LastMonth)
	}
	if w.MinMinutes < 0 {
		return fmt.Errorf("invalid minimum minutes %v", w.MinMinutes)
	}
	return nil
}

// Contains reports whether t falls in the window's year and month range.
func (w Window) Contains(t time.Time) bool {
	return t.Year() == w.Year && t.Month() >= w.FirstMonth && t.Month() <= w.LastMonth
}

// Months lists the admissible months in calendar order.
func (w Window) Months() []time.Month {
	var months []time.Month
	for m := w.FirstMonth; m <= w.LastMonth; m++ {
		months = append(months, m)
	}
	return months
}

func (w Window) String() string {
	return fmt.Sprintf("%04d-%02d to %04d-%02d", w.Year, w.FirstMonth, w.Year, w.LastMonth)
}
