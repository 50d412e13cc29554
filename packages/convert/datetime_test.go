package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 1, 7, 9, 5, 3, 45000000, time.UTC)

	tests := []struct {
		format   string
		expected string
	}{
		{"yyyy-MM-dd", "2024-01-07"},
		{"yyyy-MM-dd HH:mm:ss", "2024-01-07 09:05:03"},
		{"yyyyMMdd", "20240107"},
		{"d/M/yy", "7/1/24"},
		{"HH:mm:ss.fff", "09:05:03.045"},
		{"hh:mm tt", "09:05 AM"},
		{"yyyy'T'HH", "2024T09"},
		{"MMM dd", "Jan 07"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTime(ts, tt.format))
		})
	}
}

func TestParseDateTime(t *testing.T) {
	for _, s := range []string{
		"2024-01-07T09:05:03Z",
		"2024-01-07T09:05:03.5+02:00",
		"2024-01-07T09:05:03",
		"2024-01-07 09:05:03",
		"2024-01-07",
		"2024/01/07",
	} {
		_, ok := ParseDateTime(s)
		assert.True(t, ok, s)
	}

	_, ok := ParseDateTime("yesterday")
	assert.False(t, ok)
	_, ok = ParseDateTime("")
	assert.False(t, ok)
}
