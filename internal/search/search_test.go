package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func intPtr(n int) *int { return &n }

func TestFiles_BasicMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "first line\nsecond line with needle\nthird line\n")

	result, err := Files(context.Background(), "needle", dir, DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, 1, result.TotalNumber)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, 2, result.Lines[0].LineNumber)
	assert.Equal(t, "second line with needle", result.Lines[0].LineContent)
	assert.False(t, result.Lines[0].IsContext)
	assert.False(t, result.Lines[0].ContentOmitted)
}

func TestFiles_CaseSensitivity(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "Needle\nneedle\n")

	opts := DefaultOptions()
	result, err := Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalNumber)

	opts.CaseSensitive = true
	result, err = Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.Equal(t, 2, result.Lines[0].LineNumber)
}

func TestFiles_InvalidPattern(t *testing.T) {
	_, err := Files(context.Background(), "(unclosed", t.TempDir(), DefaultOptions())
	assert.Error(t, err)
}

func TestFiles_NoMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "nothing here\n")

	result, err := Files(context.Background(), "absent", dir, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalNumber)
	assert.Empty(t, result.Lines)
}

func TestFiles_ResultsSortedByPathAndLine(t *testing.T) {
	dir := t.TempDir()
	content := "Line 1 - no match\nLine 2 - pattern to find\nLine 3\nLine 4 - pattern to find\nLine 5\nLine 6 - pattern to find\n"
	for _, name := range []string{"b_file.txt", "a_file.txt", "c_file.txt"} {
		writeFile(t, filepath.Join(dir, name), content)
	}

	result, err := Files(context.Background(), "pattern to find", dir, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 9, result.TotalNumber)

	for i := 1; i < len(result.Lines); i++ {
		prev, cur := result.Lines[i-1], result.Lines[i]
		assert.LessOrEqual(t, prev.FilePath, cur.FilePath, "results not sorted by file path at index %d", i)
		if prev.FilePath == cur.FilePath {
			assert.Less(t, prev.LineNumber, cur.LineNumber, "results not sorted by line number at index %d", i)
		}
	}

	assert.Contains(t, result.Lines[0].FilePath, "a_file.txt")
	assert.Equal(t, 2, result.Lines[0].LineNumber)
	assert.Equal(t, 4, result.Lines[1].LineNumber)
	assert.Equal(t, 6, result.Lines[2].LineNumber)
}

func TestFiles_RespectsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "ignored.txt\n")
	writeFile(t, filepath.Join(dir, "ignored.txt"), "needle\n")
	writeFile(t, filepath.Join(dir, "kept.txt"), "needle\n")

	result, err := Files(context.Background(), "needle", dir, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.Contains(t, result.Lines[0].FilePath, "kept.txt")

	opts := DefaultOptions()
	opts.RespectGitignore = false
	result, err = Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)
	// .gitignore itself now matches too ("needle" is not in it), so
	// only the two content files count.
	assert.Equal(t, 2, result.TotalNumber)
}

func TestFiles_IncludeGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data.json"), "shared content\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "shared content\n")
	writeFile(t, filepath.Join(dir, "nested", "deep.json"), "shared content\n")

	opts := DefaultOptions()
	opts.IncludeGlob = []string{"*.json"}
	result, err := Files(context.Background(), "shared", dir, opts)
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalNumber)
	for _, l := range result.Lines {
		assert.Equal(t, ".json", filepath.Ext(l.FilePath))
	}
}

func TestFiles_IncludeGlobNilVsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "needle\n")

	// nil includes everything.
	result, err := Files(context.Background(), "needle", dir, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalNumber)

	// An empty include list matches nothing.
	opts := DefaultOptions()
	opts.IncludeGlob = []string{}
	result, err = Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalNumber)
}

func TestFiles_ExcludeGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.log"), "needle\n")
	writeFile(t, filepath.Join(dir, "a.txt"), "needle\n")
	writeFile(t, filepath.Join(dir, "sub", "b.log"), "needle\n")

	opts := DefaultOptions()
	opts.ExcludeGlob = []string{"*.log"}
	result, err := Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.Contains(t, result.Lines[0].FilePath, "a.txt")
}

func TestFiles_PathGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docs", "guide.md"), "needle\n")
	writeFile(t, filepath.Join(dir, "src", "main.go"), "needle\n")

	opts := DefaultOptions()
	opts.IncludeGlob = []string{"docs/**"}
	result, err := Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.Contains(t, result.Lines[0].FilePath, "guide.md")
}

func TestFiles_BeforeContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "one\ntwo\nthree\nmatch here\nfive\n")

	opts := DefaultOptions()
	opts.BeforeContext = 2
	result, err := Files(context.Background(), "match here", dir, opts)
	require.NoError(t, err)

	require.Equal(t, 1, result.TotalNumber)
	require.Len(t, result.Lines, 3)
	assert.Equal(t, "two", result.Lines[0].LineContent)
	assert.Equal(t, 2, result.Lines[0].LineNumber)
	assert.True(t, result.Lines[0].IsContext)
	assert.Equal(t, 3, result.Lines[1].LineNumber)
	assert.True(t, result.Lines[1].IsContext)
	assert.Equal(t, 4, result.Lines[2].LineNumber)
	assert.False(t, result.Lines[2].IsContext)
}

func TestFiles_BeforeContextClampedAtFirstLine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "match on first line\nsecond\n")

	opts := DefaultOptions()
	opts.BeforeContext = 3
	result, err := Files(context.Background(), "match", dir, opts)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	assert.False(t, result.Lines[0].IsContext)
}

func TestFiles_AfterContextClampedAtLastLine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "first\nmatch on last line")

	opts := DefaultOptions()
	opts.AfterContext = 3
	result, err := Files(context.Background(), "match", dir, opts)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, 2, result.Lines[0].LineNumber)
}

func TestFiles_CombinedContextDeduplicated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "match one\nbetween\nmatch two\n")

	opts := DefaultOptions()
	opts.BeforeContext = 1
	opts.AfterContext = 1
	result, err := Files(context.Background(), "match", dir, opts)
	require.NoError(t, err)

	require.Equal(t, 2, result.TotalNumber)
	// Lines 1..3 exactly once each; "between" is context for both
	// matches but reported once.
	require.Len(t, result.Lines, 3)
	assert.Equal(t, 1, result.Lines[0].LineNumber)
	assert.False(t, result.Lines[0].IsContext)
	assert.Equal(t, 2, result.Lines[1].LineNumber)
	assert.True(t, result.Lines[1].IsContext)
	assert.Equal(t, 3, result.Lines[2].LineNumber)
	assert.False(t, result.Lines[2].IsContext)
}

func TestFiles_ContentOmission(t *testing.T) {
	dir := t.TempDir()
	content := "0123456789abcdefghijklmnopqrstuvwxyz_PATTERN_0123456789abcdefghijklmnopqrstuvwxyz"
	writeFile(t, filepath.Join(dir, "long.txt"), content+"\n")

	// Without omission the full line comes back.
	result, err := Files(context.Background(), "pattern", dir, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.False(t, result.Lines[0].ContentOmitted)
	assert.Equal(t, content, result.Lines[0].LineContent)

	// Five characters of context around the first match.
	opts := DefaultOptions()
	opts.MatchContentOmitNum = intPtr(5)
	result, err = Files(context.Background(), "pattern", dir, opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.True(t, result.Lines[0].ContentOmitted)
	assert.Equal(t, "vwxyz_PATTERN_0123"+OmitMarker, result.Lines[0].LineContent)
}

func TestFiles_ContentOmissionMultibyte(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "ααααα needle βββββ\n")

	opts := DefaultOptions()
	opts.MatchContentOmitNum = intPtr(2)
	result, err := Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.True(t, result.Lines[0].ContentOmitted)
	assert.True(t, utf8.ValidString(result.Lines[0].LineContent))
	assert.Equal(t, "αα needle β"+OmitMarker, result.Lines[0].LineContent)
}

func TestFiles_ContentOmissionKeepsWholeShortLine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "short.txt"), "tiny needle line\n")

	opts := DefaultOptions()
	opts.MatchContentOmitNum = intPtr(50)
	result, err := Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.False(t, result.Lines[0].ContentOmitted)
	assert.Equal(t, "tiny needle line", result.Lines[0].LineContent)
}

func TestFiles_ContentOmissionAtLineStart(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "NEEDLE and then a very long tail of text\n")

	opts := DefaultOptions()
	opts.MatchContentOmitNum = intPtr(2)
	result, err := Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.True(t, result.Lines[0].ContentOmitted)
	assert.Equal(t, "NEEDLE a"+OmitMarker, result.Lines[0].LineContent)
}

func TestFiles_SkipsBinaryFiles(t *testing.T) {
	dir := t.TempDir()
	binary := append([]byte("needle"), 0x00, 0x01, 0x02)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), binary, 0644))
	writeFile(t, filepath.Join(dir, "plain.txt"), "needle\n")

	result, err := Files(context.Background(), "needle", dir, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.Contains(t, result.Lines[0].FilePath, "plain.txt")
}

func TestFiles_OmitPathPrefix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sub", "a.txt"), "needle\n")

	opts := DefaultOptions()
	opts.OmitPathPrefix = dir
	result, err := Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalNumber)
	assert.Equal(t, filepath.Join("sub", "a.txt"), result.Lines[0].FilePath)
}

func TestFiles_MissingDirectory(t *testing.T) {
	_, err := Files(context.Background(), "x", filepath.Join(t.TempDir(), "missing"), DefaultOptions())
	assert.Error(t, err)
}

func paginationFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "zfile.txt"), "Line 1\nLine 2 pattern\nLine 3\n")
	writeFile(t, filepath.Join(dir, "yfile.txt"), "Line 1 pattern\nLine 2\nLine 3 pattern\n")
	writeFile(t, filepath.Join(dir, "xfile.txt"), "No pattern here\nStill no pattern\nFinally a pattern\n")
	writeFile(t, filepath.Join(dir, "subdir", "afile.txt"), "pattern in first line\nNo pattern\nAnother pattern here\n")
	writeFile(t, filepath.Join(dir, "subdir", "bfile.txt"), "Regular line\npattern in second line\npattern in third line\n")
	return dir
}

func TestFiles_PaginationMatchesSplit(t *testing.T) {
	dir := paginationFixture(t)

	full, err := Files(context.Background(), "pattern", dir, DefaultOptions())
	require.NoError(t, err)
	total := full.TotalNumber
	require.Greater(t, total, 3)

	pageSize := 3
	for skip := 0; skip < total; skip += pageSize {
		opts := DefaultOptions()
		opts.Skip = intPtr(skip)
		opts.Take = intPtr(pageSize)

		page, err := Files(context.Background(), "pattern", dir, opts)
		require.NoError(t, err)
		assert.Equal(t, total, page.TotalNumber, "pagination must not change the reported total")

		expected := full.Split(skip+1, skip+pageSize)
		assert.Equal(t, expected.Lines, page.Lines, "page starting at skip=%d", skip)
	}
}

func TestFiles_SkipBeyondTotal(t *testing.T) {
	dir := paginationFixture(t)

	opts := DefaultOptions()
	opts.Skip = intPtr(1000)
	opts.Take = intPtr(5)
	result, err := Files(context.Background(), "pattern", dir, opts)
	require.NoError(t, err)
	assert.Empty(t, result.Lines)
	assert.Greater(t, result.TotalNumber, 0)
}

func TestResult_Split(t *testing.T) {
	r := Result{
		TotalNumber: 4,
		Lines: []Line{
			{FilePath: "a.txt", LineNumber: 1},
			{FilePath: "a.txt", LineNumber: 5},
			{FilePath: "m.txt", LineNumber: 7},
			{FilePath: "z.txt", LineNumber: 3},
		},
	}

	middle := r.Split(2, 3)
	require.Len(t, middle.Lines, 2)
	assert.Equal(t, 4, middle.TotalNumber)
	assert.Equal(t, 5, middle.Lines[0].LineNumber)
	assert.Equal(t, "m.txt", middle.Lines[1].FilePath)

	// Out-of-range bounds clamp instead of failing.
	all := r.Split(0, 99)
	assert.Len(t, all.Lines, 4)

	empty := r.Split(3, 2)
	assert.Empty(t, empty.Lines)
}

func TestResult_SplitCarriesContext(t *testing.T) {
	r := Result{
		TotalNumber: 2,
		Lines: []Line{
			{FilePath: "a.txt", LineNumber: 1, IsContext: true},
			{FilePath: "a.txt", LineNumber: 2},
			{FilePath: "a.txt", LineNumber: 3, IsContext: true},
			{FilePath: "b.txt", LineNumber: 9, IsContext: true},
			{FilePath: "b.txt", LineNumber: 10},
		},
	}

	first := r.Split(1, 1)
	require.Len(t, first.Lines, 3)
	assert.Equal(t, "a.txt", first.Lines[0].FilePath)
	assert.True(t, first.Lines[0].IsContext)
	assert.False(t, first.Lines[1].IsContext)
	assert.True(t, first.Lines[2].IsContext)

	second := r.Split(2, 2)
	require.Len(t, second.Lines, 2)
	assert.Equal(t, 9, second.Lines[0].LineNumber)
	assert.Equal(t, 10, second.Lines[1].LineNumber)
}

func TestResult_SplitContextStaysWithItsOwnMatch(t *testing.T) {
	// The context at lines 8 and 9 belongs to the match at 10; a page
	// holding only the match at 2 must not pick it up.
	r := Result{
		TotalNumber: 2,
		Lines: []Line{
			{FilePath: "a.txt", LineNumber: 2},
			{FilePath: "a.txt", LineNumber: 8, IsContext: true},
			{FilePath: "a.txt", LineNumber: 9, IsContext: true},
			{FilePath: "a.txt", LineNumber: 10},
		},
	}

	first := r.Split(1, 1)
	require.Len(t, first.Lines, 1)
	assert.Equal(t, 2, first.Lines[0].LineNumber)

	second := r.Split(2, 2)
	require.Len(t, second.Lines, 3)
	assert.Equal(t, 8, second.Lines[0].LineNumber)
	assert.Equal(t, 9, second.Lines[1].LineNumber)
	assert.Equal(t, 10, second.Lines[2].LineNumber)
}

func TestFiles_PaginationDoesNotLeakContextAcrossMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"),
		"intro\nfirst needle\nx\nx\nx\nx\nx\nctx eight\nctx nine\nsecond needle\n")

	opts := DefaultOptions()
	opts.BeforeContext = 2
	opts.Take = intPtr(1)
	result, err := Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)

	require.Equal(t, 2, result.TotalNumber)
	require.Len(t, result.Lines, 2)
	assert.Equal(t, 1, result.Lines[0].LineNumber)
	assert.True(t, result.Lines[0].IsContext)
	assert.Equal(t, 2, result.Lines[1].LineNumber)
	assert.False(t, result.Lines[1].IsContext)

	// The second page carries that context instead.
	opts.Skip = intPtr(1)
	second, err := Files(context.Background(), "needle", dir, opts)
	require.NoError(t, err)
	require.Len(t, second.Lines, 3)
	assert.Equal(t, 8, second.Lines[0].LineNumber)
	assert.Equal(t, 9, second.Lines[1].LineNumber)
	assert.Equal(t, 10, second.Lines[2].LineNumber)
}
