package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	t.Run("rfc1123z pubdate", func(t *testing.T) {
		t.Parallel()
		ts, err := ParseDate("Sun, 24 Dec 2023 18:00:00 +0000")
		require.NoError(t, err)
		utc := ts.UTC()
		assert.Equal(t, 2023, utc.Year())
		assert.Equal(t, time.December, utc.Month())
		assert.Equal(t, 24, utc.Day())
		assert.Equal(t, 18, utc.Hour())
	})

	t.Run("rfc1123 named zone", func(t *testing.T) {
		t.Parallel()
		ts, err := ParseDate("Mon, 02 Jan 2006 15:04:05 GMT")
		require.NoError(t, err)
		assert.Equal(t, 2006, ts.Year())
	})

	t.Run("iso8601 with zone", func(t *testing.T) {
		t.Parallel()
		ts, err := ParseDate("2023-12-24T18:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, 18, ts.UTC().Hour())
	})

	t.Run("iso8601 date only", func(t *testing.T) {
		t.Parallel()
		ts, err := ParseDate("2023-12-24")
		require.NoError(t, err)
		assert.Equal(t, 24, ts.Day())
	})

	t.Run("unparseable", func(t *testing.T) {
		t.Parallel()
		_, err := ParseDate("not a date")
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, err := ParseDate("   ")
		require.Error(t, err)
	})

	t.Run("out of range day", func(t *testing.T) {
		t.Parallel()
		_, err := ParseDate("Sun, 32 Dec 2023 18:00:00 +0000")
		require.Error(t, err)
	})
}

func TestParseDateOrNow(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	got := ParseDateOrNow("definitely not a date")
	after := time.Now().UTC().Add(time.Second)
	assert.True(t, got.After(before) && got.Before(after), "fallback should be close to now, got %v", got)

	parsed := ParseDateOrNow("Sun, 24 Dec 2023 18:00:00 +0000")
	assert.Equal(t, 2023, parsed.UTC().Year())
}
