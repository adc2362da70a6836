package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumin/internal/search"
)

func TestSetup_WritesExactContents(t *testing.T) {
	dir := t.TempDir()

	path, err := Setup(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"This is a test file for searching\n"+
			"It contains some patterns to find\n"+
			"Pattern: TEST_PATTERN_123\n",
		string(data))
}

func TestSetup_UnwritableDir(t *testing.T) {
	_, err := Setup(filepath.Join(t.TempDir(), "missing-subdir"), nil)
	assert.Error(t, err)
}

func TestSetup_FixtureIsSearchable(t *testing.T) {
	dir := t.TempDir()
	_, err := Setup(dir, nil)
	require.NoError(t, err)

	result, err := search.Files(context.Background(), Pattern, dir, search.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.Equal(t, 3, result.Lines[0].LineNumber)
	assert.Equal(t, "Pattern: TEST_PATTERN_123", result.Lines[0].LineContent)
}

func TestProcess_Records(t *testing.T) {
	before := time.Now().Add(-time.Second)
	results := Process(nil)
	after := time.Now().Add(time.Second)

	require.Len(t, results, 3)
	assert.Equal(t, "data1.txt", results[0].Filename)
	assert.Equal(t, "data2.txt", results[1].Filename)
	assert.Equal(t, "config.json", results[2].Filename)

	for _, r := range results {
		assert.Equal(t, StatusProcessed, r.Status)
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		require.NoError(t, err)
		assert.True(t, ts.After(before) && ts.Before(after), "timestamp %s out of range", r.Timestamp)
	}
}
