// Package paths provides small path manipulation helpers shared by the
// search, traverse, and tree packages.
package paths

import (
	"path/filepath"
	"strings"
)

// RemovePrefix strips prefix from path when path lies inside prefix.
// Paths that do not start with the prefix are returned unchanged, so
// callers can apply it unconditionally.
func RemovePrefix(path, prefix string) string {
	if prefix == "" {
		return path
	}
	p := filepath.Clean(path)
	pre := filepath.Clean(prefix)
	if p == pre {
		return ""
	}
	sep := string(filepath.Separator)
	if !strings.HasPrefix(p, pre+sep) {
		return path
	}
	return strings.TrimPrefix(p, pre+sep)
}
