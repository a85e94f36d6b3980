package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWindowValidate(t *testing.T) {
	tests := []struct {
		name    string
		window  Window
		wantErr bool
	}{
		{"default", DefaultWindow(2023), false},
		{"single month", Window{Year: 2023, FirstMonth: time.May, LastMonth: time.May}, false},
		{"zero year", Window{Year: 0, FirstMonth: time.January, LastMonth: time.October}, true},
		{"inverted", Window{Year: 2023, FirstMonth: time.November, LastMonth: time.February}, true},
		{"month 13", Window{Year: 2023, FirstMonth: time.January, LastMonth: 13}, true},
		{"negative floor", Window{Year: 2023, FirstMonth: time.January, LastMonth: time.March, MinMinutes: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestWindowMonths(t *testing.T) {
	w := DefaultWindow(2023)
	require.Len(t, w.Months(), 10)
	require.Equal(t, time.January, w.Months()[0])
	require.Equal(t, time.October, w.Months()[9])
	require.Equal(t, "2023-01 to 2023-10", w.String())
	require.True(t, w.Contains(time.Date(2023, 10, 31, 23, 59, 0, 0, time.UTC)))
	require.False(t, w.Contains(time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)))
}
