// Package pathutil provides path manipulation for slash-separated
// virtual file system paths.
package pathutil

import (
	"path"
	"strings"
)

// Normalize cleans name into a relative slash-separated path.
// Leading slashes and "." segments are removed; the virtual root
// normalizes to "".
func Normalize(name string) string {
	p := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	p = strings.TrimLeft(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// Base returns the last element of a slash-separated path.
// The empty path has no base.
func Base(p string) string {
	p = strings.TrimSuffix(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Parent returns the directory component of a slash-separated path,
// or "" when the path has no directory component.
func Parent(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

// Parents returns every proper directory prefix of p, nearest first.
// For "a/b/c.bin" it returns ["a/b", "a"].
func Parents(p string) []string {
	var out []string
	for {
		p = Parent(p)
		if p == "" {
			return out
		}
		out = append(out, p)
	}
}

// Join joins path elements with slashes and cleans the result.
func Join(elem ...string) string {
	return path.Join(elem...)
}
