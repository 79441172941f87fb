package hdf5

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"/", []string{}},
		{"", []string{}},
		{"/foo", []string{"foo"}},
		{"foo/bar", []string{"foo", "bar"}},
		{"/foo//bar/", []string{"foo", "bar"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitPath(tt.in), tt.in)
	}
}

func TestCleanPath(t *testing.T) {
	assert.Equal(t, "/", CleanPath(""))
	assert.Equal(t, "/", CleanPath("/"))
	assert.Equal(t, "/a/b", CleanPath("a/b/"))
	assert.Equal(t, "/b", CleanPath("/a/../b"))
}

func TestSplitLinkPath(t *testing.T) {
	tests := []struct {
		in        string
		dir, name string
		ok        bool
	}{
		{"x", "", "x", true},
		{"a/b/x", "a/b/", "x", true},
		{"/x", "/", "x", true},
		{"x/", "", "x", true},
		{"", "", "", false},
		{"/", "", "", false},
		{"a/..", "", "", false},
		{".", "", "", false},
	}
	for _, tt := range tests {
		dir, name, err := splitLinkPath(tt.in)
		assert.Equal(t, tt.ok, err == nil, tt.in)
		assert.Equal(t, tt.dir, dir, tt.in)
		assert.Equal(t, tt.name, name, tt.in)
	}
}
