package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	rng, err := ParseDateRange("", "")
	require.NoError(t, err)
	assert.Nil(t, rng.Start)
	assert.Nil(t, rng.End)

	rng, err = ParseDateRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.NotNil(t, rng.Start)
	require.NotNil(t, rng.End)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), *rng.Start)
	assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 0, time.Local), *rng.End)

	for _, tc := range []struct{ start, end string }{
		{"2024/03/01", ""},
		{"", "31-03-2024"},
		{"2024-02-30", ""},
		{"2024-04-01", "2024-03-01"},
	} {
		_, err := ParseDateRange(tc.start, tc.end)
		assert.ErrorIs(t, err, ErrValidation, "%q..%q", tc.start, tc.end)
	}
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, DefaultPageLimit},
		{-3, 20, 1, 20},
		{2, 51, 2, MaxPageLimit},
		{1, 1000, 1, MaxPageLimit},
		{4, -1, 4, 1},
	}
	for _, tc := range tests {
		page, limit := NormalizePage(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, page)
		assert.Equal(t, tc.wantLimit, limit)
	}
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, int64(0), NewPagination(0, 1, 10).Pages)
	assert.Equal(t, int64(1), NewPagination(10, 1, 10).Pages)
	assert.Equal(t, int64(2), NewPagination(11, 1, 10).Pages)
	assert.Equal(t, int64(21), NewPagination(1001, 1, 50).Pages)
}
