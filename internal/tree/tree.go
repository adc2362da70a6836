// Package tree builds a hierarchical directory listing suitable for
// JSON output.
package tree

import (
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"lumin/internal/paths"
	"lumin/internal/walk"
)

// Entry types used in DirectoryTree entries.
const (
	EntryTypeFile      = "file"
	EntryTypeDirectory = "directory"
)

// Options configure tree generation.
type Options struct {
	// CaseSensitive is reserved for pattern filtering parity with the
	// other commands; tree generation itself is case-preserving.
	CaseSensitive bool

	// RespectGitignore excludes gitignored and hidden entries.
	RespectGitignore bool

	// MaxDepth bounds directory recursion. Zero means unlimited.
	MaxDepth int

	// OmitPathPrefix is stripped from reported directory paths.
	OmitPathPrefix string

	// Logger receives per-entry diagnostics. Defaults to a no-op.
	Logger *zap.Logger
}

// DefaultOptions returns the tree defaults.
func DefaultOptions() Options {
	return Options{RespectGitignore: true}
}

// Entry is a single file or directory inside one tree node.
type Entry struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// DirectoryTree lists the direct children of one directory.
type DirectoryTree struct {
	Dir     string  `json:"dir"`
	Entries []Entry `json:"entries"`
}

// Generate walks directory and returns one DirectoryTree per non-empty
// directory, sorted by path. When nothing survives filtering, the root
// is reported with a single "." placeholder entry.
func Generate(directory string, opts Options) ([]DirectoryTree, error) {
	entries, err := walk.Walk(directory, walk.Options{
		RespectGitignore: opts.RespectGitignore,
		MaxDepth:         opts.MaxDepth,
		Logger:           opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build tree for %s: %w", directory, err)
	}

	children := map[string][]Entry{}
	for _, e := range entries {
		parent := filepath.Dir(e.Path)
		kind := EntryTypeFile
		if e.IsDir {
			kind = EntryTypeDirectory
		}
		children[parent] = append(children[parent], Entry{
			Type: kind,
			Name: filepath.Base(e.Path),
		})
	}

	result := make([]DirectoryTree, 0, len(children))
	for dir, ents := range children {
		if len(ents) == 0 {
			continue
		}
		if opts.OmitPathPrefix != "" {
			dir = paths.RemovePrefix(dir, opts.OmitPathPrefix)
		}
		result = append(result, DirectoryTree{Dir: dir, Entries: ents})
	}

	if len(result) == 0 {
		root := directory
		if opts.OmitPathPrefix != "" {
			root = paths.RemovePrefix(root, opts.OmitPathPrefix)
		}
		result = append(result, DirectoryTree{
			Dir:     root,
			Entries: []Entry{{Type: EntryTypeDirectory, Name: "."}},
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Dir < result[j].Dir })
	return result, nil
}
