// Package traverse lists files under a directory with filtering by
// gitignore rules, glob or substring patterns, and binary detection.
package traverse

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"lumin/internal/paths"
	"lumin/internal/walk"
)

// Options configure a traversal.
type Options struct {
	// CaseSensitive controls pattern matching case.
	CaseSensitive bool

	// RespectGitignore excludes gitignored and hidden files.
	RespectGitignore bool

	// OnlyTextFiles drops files whose content sniffs as binary.
	OnlyTextFiles bool

	// Pattern filters files by path. Patterns containing glob
	// metacharacters (* ? [ ]) are treated as globs against the
	// relative path; anything else is a substring match against the
	// whole path.
	Pattern string

	// MaxDepth bounds directory recursion. Zero means unlimited.
	MaxDepth int

	// OmitPathPrefix is stripped from reported file paths.
	OmitPathPrefix string

	// Logger receives per-entry diagnostics. Defaults to a no-op.
	Logger *zap.Logger
}

// DefaultOptions returns the traversal defaults: case-insensitive,
// gitignore-respecting, text files only.
func DefaultOptions() Options {
	return Options{RespectGitignore: true, OnlyTextFiles: true}
}

// Result is a single file found during traversal.
type Result struct {
	// FilePath is the location of the file.
	FilePath string `json:"file_path"`

	// FileType is the lowercased extension, or "unknown".
	FileType string `json:"file_type"`
}

// IsHidden reports whether the file is a dotfile or sits inside a
// hidden directory.
func (r Result) IsHidden() bool {
	return walk.IsHiddenPath(r.FilePath)
}

// Directory lists the files under dir that pass the configured filters,
// sorted by path.
func Directory(dir string, opts Options) ([]Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	files, err := walk.Files(dir, walk.Options{
		RespectGitignore: opts.RespectGitignore,
		MaxDepth:         opts.MaxDepth,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to traverse %s: %w", dir, err)
	}

	useGlob := opts.Pattern != "" && walk.IsGlobPattern(opts.Pattern)

	var results []Result
	for _, f := range files {
		if opts.Pattern != "" {
			var ok bool
			if useGlob {
				ok = walk.MatchGlob(opts.Pattern, f.Rel, opts.CaseSensitive)
			} else {
				ok = containsFold(f.Path, opts.Pattern, opts.CaseSensitive)
			}
			if !ok {
				continue
			}
		}

		if opts.OnlyTextFiles && !isTextFile(f.Path, logger) {
			continue
		}

		results = append(results, Result{
			FilePath: f.Path,
			FileType: fileType(f.Path),
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].FilePath < results[j].FilePath })

	if opts.OmitPathPrefix != "" {
		for i := range results {
			results[i].FilePath = paths.RemovePrefix(results[i].FilePath, opts.OmitPathPrefix)
		}
	}

	logger.Debug("traverse finished",
		zap.String("directory", dir),
		zap.Int("files", len(results)))

	return results, nil
}

func containsFold(haystack, needle string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(haystack, needle)
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// isTextFile sniffs file content and reports whether it is textual.
// Types that cannot be read are excluded rather than failing the walk.
func isTextFile(path string, logger *zap.Logger) bool {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		logger.Warn("failed to sniff file type",
			zap.String("file_path", path),
			zap.Error(err))
		return false
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// fileType reports the lowercased file extension without the dot, or
// "unknown" for extensionless files.
func fileType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" || ext == "." {
		return "unknown"
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
