package providers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kcas/spotprice/internal/datastore"
)

func TestCSVProviderFetchDay(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	p := NewCSVProvider(dir, zap.NewNop().Sugar())

	path := p.GetDataPath("SE3", day)
	assert.Equal(t, filepath.Join(dir, "se3_2024-03-31.csv"), path)

	content := "Start,End,Price\n" +
		"2024-03-31T00:00:00+01:00,2024-03-31T01:00:00+01:00,41.27\n" +
		"2024-03-31T01:00:00+01:00,2024-03-31T03:00:00+02:00,inf\n" +
		"not-a-time,2024-03-31T04:00:00+02:00,12\n" +
		"2024-03-31T03:00:00+02:00,2024-03-31T04:00:00+02:00,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	points, err := p.FetchDay(context.Background(), "SE3", "SEK", day)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, datastore.Some(41.27), points[0].Value)
	assert.Equal(t, datastore.Absent, points[1].Value)
	assert.Equal(t, time.Hour, points[1].Duration())
	assert.Equal(t, datastore.Absent, points[2].Value)
}

func TestCSVProviderMissingOrEmptyFile(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)
	p := NewCSVProvider(dir, zap.NewNop().Sugar())

	points, err := p.FetchDay(context.Background(), "FI", "EUR", day)
	require.NoError(t, err)
	assert.Empty(t, points)

	require.NoError(t, os.WriteFile(p.GetDataPath("FI", day), []byte("Start,End,Price\n"), 0o644))
	points, err = p.FetchDay(context.Background(), "FI", "EUR", day)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestCSVProviderRejectsBrokenCSV(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)
	p := NewCSVProvider(dir, zap.NewNop().Sugar())

	require.NoError(t, os.WriteFile(p.GetDataPath("FI", day), []byte("Start,End,Price\n\"unterminated,1,2\n"), 0o644))
	_, err := p.FetchDay(context.Background(), "FI", "EUR", day)
	assert.Error(t, err)
}
