package hdf5

import (
	"path"
	"strings"
)

// SplitPath splits a path into its components.
// Leading and trailing slashes are handled, empty components are removed.
//
// Examples:
//   - "/" -> []string{}
//   - "/foo" -> []string{"foo"}
//   - "/foo//bar/" -> []string{"foo", "bar"}
func SplitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CleanPath normalizes a path, ensuring it starts with "/" and has no trailing slash.
func CleanPath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return path.Clean("/" + p)
}

// joinPath appends a link name to a group path.
func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// splitLinkPath separates the group part of a relative link path from the
// final link name. The group part is empty for a bare name.
func splitLinkPath(p string) (dir, name string, err error) {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "", "", ErrInvalidPath
	}
	i := strings.LastIndex(trimmed, "/")
	dir, name = trimmed[:i+1], trimmed[i+1:]
	if name == "." || name == ".." {
		return "", "", ErrInvalidPath
	}
	return dir, name, nil
}
