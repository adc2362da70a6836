// Package walk implements the gitignore-aware directory walker shared
// by the search, traverse, and tree packages.
package walk

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

// Options control a directory walk.
type Options struct {
	// RespectGitignore honors the root .gitignore and skips hidden
	// files and directories. When false, hidden entries are included
	// and no ignore rules apply.
	RespectGitignore bool

	// MaxDepth bounds how many directory levels below the root are
	// visited. Zero means unlimited.
	MaxDepth int

	// Logger receives per-entry walk errors. Defaults to a no-op.
	Logger *zap.Logger
}

// Entry is a single file or directory found during a walk.
type Entry struct {
	// Path is the location of the entry, rooted at the walk directory
	// argument (absolute when the argument was absolute).
	Path string

	// Rel is the slash-separated path relative to the walk root.
	Rel string

	IsDir bool
}

// Walk visits root and returns the surviving entries in lexical order.
// The root itself is not included. Per-entry errors are logged and
// skipped so one unreadable directory does not abort the walk.
func Walk(root string, opts Options) ([]Entry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	var matcher *ignore.GitIgnore
	if opts.RespectGitignore {
		if m, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			matcher = m
		}
	}

	var entries []Entry
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("error walking directory",
				zap.String("path", p),
				zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		// Version control internals are never interesting.
		if d.IsDir() && name == ".git" {
			return filepath.SkipDir
		}

		if opts.RespectGitignore {
			if strings.HasPrefix(name, ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if matcher != nil {
				probe := rel
				if d.IsDir() {
					probe += "/"
				}
				if matcher.MatchesPath(probe) {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
			}
		}

		depth := strings.Count(rel, "/") + 1
		if opts.MaxDepth > 0 && depth > opts.MaxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		entries = append(entries, Entry{Path: p, Rel: rel, IsDir: d.IsDir()})

		if d.IsDir() && opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return entries, nil
}

// Files returns only the file entries of a walk.
func Files(root string, opts Options) ([]Entry, error) {
	entries, err := Walk(root, opts)
	if err != nil {
		return nil, err
	}
	files := entries[:0]
	for _, e := range entries {
		if !e.IsDir {
			files = append(files, e)
		}
	}
	return files, nil
}

// IsHiddenPath reports whether the final component of path is a dotfile
// or any parent component is a hidden directory.
func IsHiddenPath(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// MatchGlob reports whether relPath (slash-separated, relative to the
// walk root) matches pattern. A pattern without a separator is matched
// against the base name so "*.json" finds nested files, while patterns
// like "**/docs/**" are matched against the whole relative path.
func MatchGlob(pattern, relPath string, caseSensitive bool) bool {
	target := relPath
	if !strings.Contains(pattern, "/") {
		target = path.Base(relPath)
	}
	if !caseSensitive {
		pattern = strings.ToLower(pattern)
		target = strings.ToLower(target)
	}
	ok, err := doublestar.Match(pattern, target)
	return err == nil && ok
}

// IsGlobPattern reports whether s contains glob metacharacters. Used to
// decide between glob and substring matching for traverse patterns.
func IsGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[]")
}
