package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemovePrefix(t *testing.T) {
	got := RemovePrefix("/home/user/projects/myrepo/src/main.go", "/home/user/projects/myrepo")
	assert.Equal(t, "src/main.go", got)
}

func TestRemovePrefix_NoMatch(t *testing.T) {
	path := "/home/user/projects/myrepo/src/main.go"
	assert.Equal(t, path, RemovePrefix(path, "/tmp"))
}

func TestRemovePrefix_PartialComponent(t *testing.T) {
	// "/home/user/proj" is not a path prefix of "/home/user/projects".
	path := "/home/user/projects/file.txt"
	assert.Equal(t, path, RemovePrefix(path, "/home/user/proj"))
}

func TestRemovePrefix_Identical(t *testing.T) {
	assert.Equal(t, "", RemovePrefix("/a/b", "/a/b"))
}

func TestRemovePrefix_EmptyPrefix(t *testing.T) {
	assert.Equal(t, "rel/path.txt", RemovePrefix("rel/path.txt", ""))
}
