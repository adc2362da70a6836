// Package search implements regex content search across a directory.
//
// Files are collected through the shared gitignore-aware walker,
// searched concurrently, and the matches are reported in a stable
// (file path, line number) order with optional context lines, content
// omission, and pagination.
package search

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"go.uber.org/zap"

	"lumin/internal/paths"
	"lumin/internal/walk"
)

// OmitMarker is appended where line content was dropped by
// MatchContentOmitNum truncation.
const OmitMarker = "<omit>"

// defaultWorkers bounds concurrent file searches when Options.Workers
// is left at zero.
const defaultWorkers = 8

// maxLineSize is the largest single line the searcher will read.
const maxLineSize = 10 * 1024 * 1024

// Options configure a search operation.
type Options struct {
	// CaseSensitive controls whether the pattern matches exact case.
	CaseSensitive bool

	// RespectGitignore excludes gitignored and hidden files.
	RespectGitignore bool

	// IncludeGlob restricts the search to files matching at least one
	// pattern. nil means all files; an empty slice matches nothing.
	IncludeGlob []string

	// ExcludeGlob removes files matching any pattern.
	ExcludeGlob []string

	// OmitPathPrefix is stripped from reported file paths.
	OmitPathPrefix string

	// MatchContentOmitNum, when set, truncates matched lines to this
	// many characters before and after the first match. The matched
	// text itself is always preserved.
	MatchContentOmitNum *int

	// MaxDepth bounds directory recursion. Zero means unlimited.
	MaxDepth int

	// BeforeContext and AfterContext add grep-style -B/-A context
	// lines, flagged with IsContext.
	BeforeContext int
	AfterContext  int

	// Skip and Take paginate over match lines after sorting. Context
	// lines travel with their match and are not counted.
	Skip *int
	Take *int

	// Workers bounds concurrent file searches. Zero uses a default.
	Workers int

	// Logger receives skipped-file diagnostics. Defaults to a no-op.
	Logger *zap.Logger
}

// DefaultOptions returns the options used when no flags are given:
// case-insensitive, gitignore-respecting, no context, no pagination.
func DefaultOptions() Options {
	return Options{RespectGitignore: true}
}

// Line is a single reported line, either a match or a context line.
type Line struct {
	FilePath       string `json:"file_path"`
	LineNumber     int    `json:"line_number"`
	LineContent    string `json:"line_content"`
	ContentOmitted bool   `json:"content_omitted"`
	IsContext      bool   `json:"is_context"`
}

// Result is the outcome of a search. TotalNumber always counts every
// match line found, even when Skip/Take trimmed Lines.
type Result struct {
	TotalNumber int    `json:"total_number"`
	Lines       []Line `json:"lines"`
}

// unit is one match line plus the context lines that belong to it.
type unit struct {
	match  Line
	before []Line
	after  []Line
}

// Files searches for pattern in files under directory.
func Files(ctx context.Context, pattern, directory string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	expr := pattern
	if !opts.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile search pattern: %w", err)
	}

	files, err := collectFiles(directory, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to collect files for searching: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	// Fix the output order up front; per-file results are stitched back
	// together by index after the concurrent phase.
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	perFile := make([][]unit, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, entry := range files {
		i, entry := i, entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			units, err := searchFile(entry.Path, re, opts)
			if err != nil {
				logger.Warn("skipping unreadable file",
					zap.String("file_path", entry.Path),
					zap.Error(err))
				return nil
			}
			perFile[i] = units
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{}
	for i := range files {
		units := perFile[i]
		result.TotalNumber += len(units)
		result.Lines = append(result.Lines, flattenFile(units)...)
	}

	if opts.OmitPathPrefix != "" {
		for i := range result.Lines {
			result.Lines[i].FilePath = paths.RemovePrefix(result.Lines[i].FilePath, opts.OmitPathPrefix)
		}
	}

	if opts.Skip != nil || opts.Take != nil {
		from := 1
		if opts.Skip != nil {
			from = *opts.Skip + 1
		}
		to := result.TotalNumber
		if opts.Take != nil {
			to = from + *opts.Take - 1
		}
		*result = result.Split(from, to)
	}

	logger.Debug("search finished",
		zap.String("pattern", pattern),
		zap.String("directory", directory),
		zap.Int("files", len(files)),
		zap.Int("matches", result.TotalNumber))

	return result, nil
}

// Split returns the sub-result covering matches from..to (1-based,
// inclusive), counted over match lines only. Context lines travel with
// their own match: trailing context stays only while contiguous with
// the line just emitted, and pending before-context is flushed only
// when it runs right up to the included match. TotalNumber is kept from
// the full result.
func (r Result) Split(from, to int) Result {
	out := Result{TotalNumber: r.TotalNumber}
	if from < 1 {
		from = 1
	}
	if to > r.TotalNumber {
		to = r.TotalNumber
	}
	if from > to {
		return out
	}

	idx := 0
	var pending []Line
	pendingFile := ""
	lastFile := ""
	lastLine := 0
	lastIncluded := false

	for _, line := range r.Lines {
		if line.IsContext {
			// After-context runs are contiguous with their match; a
			// line-number gap means this line belongs to a later one.
			if lastIncluded && line.FilePath == lastFile && line.LineNumber == lastLine+1 {
				out.Lines = append(out.Lines, line)
				lastLine = line.LineNumber
				continue
			}
			if line.FilePath != pendingFile ||
				(len(pending) > 0 && line.LineNumber != pending[len(pending)-1].LineNumber+1) {
				pending = pending[:0]
				pendingFile = line.FilePath
			}
			pending = append(pending, line)
			continue
		}

		idx++
		included := idx >= from && idx <= to
		if included {
			if pendingFile == line.FilePath && len(pending) > 0 &&
				pending[len(pending)-1].LineNumber == line.LineNumber-1 {
				out.Lines = append(out.Lines, pending...)
			}
			out.Lines = append(out.Lines, line)
		}
		pending = pending[:0]
		pendingFile = ""
		lastFile = line.FilePath
		lastLine = line.LineNumber
		lastIncluded = included
	}

	return out
}

// collectFiles lists the files eligible for searching.
func collectFiles(directory string, opts Options) ([]walk.Entry, error) {
	files, err := walk.Files(directory, walk.Options{
		RespectGitignore: opts.RespectGitignore,
		MaxDepth:         opts.MaxDepth,
		Logger:           opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	var out []walk.Entry
	for _, f := range files {
		if !includeFile(f.Rel, opts) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func includeFile(rel string, opts Options) bool {
	if opts.IncludeGlob != nil {
		matched := false
		for _, g := range opts.IncludeGlob {
			if walk.MatchGlob(g, rel, opts.CaseSensitive) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, g := range opts.ExcludeGlob {
		if walk.MatchGlob(g, rel, opts.CaseSensitive) {
			return false
		}
	}
	return true
}

// searchFile scans one file and returns its match units in line order.
// Binary files (NUL byte near the start) yield no units.
func searchFile(path string, re *regexp.Regexp, opts Options) ([]unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	probe := make([]byte, 1024)
	n, _ := f.Read(probe)
	if bytes.IndexByte(probe[:n], 0) >= 0 {
		return nil, nil
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var units []unit
	for i, content := range lines {
		loc := re.FindStringIndex(content)
		if loc == nil {
			continue
		}

		lineNo := i + 1
		match := Line{
			FilePath:    path,
			LineNumber:  lineNo,
			LineContent: content,
		}
		if opts.MatchContentOmitNum != nil {
			match.LineContent, match.ContentOmitted = omitAround(content, loc, *opts.MatchContentOmitNum)
		}

		u := unit{match: match}
		for b := lineNo - opts.BeforeContext; b < lineNo; b++ {
			if b < 1 {
				continue
			}
			u.before = append(u.before, Line{
				FilePath:    path,
				LineNumber:  b,
				LineContent: lines[b-1],
				IsContext:   true,
			})
		}
		for a := lineNo + 1; a <= lineNo+opts.AfterContext && a <= len(lines); a++ {
			u.after = append(u.after, Line{
				FilePath:    path,
				LineNumber:  a,
				LineContent: lines[a-1],
				IsContext:   true,
			})
		}
		units = append(units, u)
	}

	return units, nil
}

// omitAround truncates content to a window around the first match: the
// matched text, keep runes after it, and keep+1 runes before it. The
// window is counted in runes so multibyte text is never cut
// mid-character, and the matched text itself is never cut. A marker is
// appended when trailing content was dropped.
func omitAround(content string, loc []int, keep int) (string, bool) {
	start := loc[0]
	for i := 0; i <= keep && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(content[:start])
		start -= size
	}
	end := loc[1]
	for i := 0; i < keep && end < len(content); i++ {
		_, size := utf8.DecodeRuneInString(content[end:])
		end += size
	}
	if start == 0 && end == len(content) {
		return content, false
	}

	out := content[start:end]
	if end < len(content) {
		out += OmitMarker
	}
	return out, true
}

// flattenFile merges a file's units into one line list, deduplicating
// lines that serve as context for several matches. Match lines win over
// context lines on the same line number.
func flattenFile(units []unit) []Line {
	if len(units) == 0 {
		return nil
	}

	seen := make(map[int]int)
	var out []Line
	add := func(l Line) {
		if i, ok := seen[l.LineNumber]; ok {
			if !l.IsContext {
				out[i] = l
			}
			return
		}
		seen[l.LineNumber] = len(out)
		out = append(out, l)
	}

	for _, u := range units {
		for _, l := range u.before {
			add(l)
		}
		add(u.match)
		for _, l := range u.after {
			add(l)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].LineNumber < out[j].LineNumber })
	return out
}
