package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHiddenFilter(t *testing.T) {
	t.Parallel()

	f := NewHiddenFilter([]string{"# editor backups", "", "*.bak", "node_modules/", "/secret.txt"})

	tests := []struct {
		name  string
		path  string
		isDir bool
		want  bool
	}{
		{"matching extension", "notes.bak", false, true},
		{"nested extension", "a/b/notes.bak", false, true},
		{"directory pattern", "node_modules", true, true},
		{"nested directory pattern", "web/node_modules", true, true},
		{"directory pattern ignores files", "node_modules", false, false},
		{"anchored pattern", "secret.txt", false, true},
		{"anchored pattern is not nested", "docs/secret.txt", false, false},
		{"unmatched", "index.html", false, false},
		{"root is never hidden", "", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Hidden(tt.path, tt.isDir))
		})
	}
}

func TestHiddenFilter_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewHiddenFilter(nil))
	assert.Nil(t, NewHiddenFilter([]string{"", "  ", "# comment only"}))

	var f *HiddenFilter
	assert.False(t, f.Hidden("anything", false))
}
