package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReleaseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", "2024-05-01T10:30:00Z", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
		{"date only", "2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReleaseDate(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseReleaseDate_ReportsBothFormats(t *testing.T) {
	_, err := parseReleaseDate("next tuesday")
	require.Error(t, err)

	var parseErr *time.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), time.RFC3339)
	assert.Contains(t, err.Error(), time.DateOnly)
}
