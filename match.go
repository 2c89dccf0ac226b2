package vfs

import (
	"regexp"
	"strings"

	"github.com/driftglass/vfs/internal/pathutil"
)

// compileSearchPattern builds the regular expression used by archive
// providers to match index entries during enumeration: entries directly
// under dir whose extension is in extensions (empty set matches all).
// In dir and extensions, '?' matches a single non-slash character and
// '*' matches a non-slash run.
func compileSearchPattern(dir string, extensions []string, caseInsensitive bool) (*regexp.Regexp, error) {
	var sb strings.Builder
	if caseInsensitive {
		sb.WriteString("(?i)")
	}
	sb.WriteString("\\A")
	ndir := pathutil.Normalize(dir)
	appendPattern(&sb, ndir)
	if ndir != "" {
		sb.WriteByte('/')
	}
	sb.WriteString("[^/]+")
	if len(extensions) > 0 {
		sb.WriteByte('(')
		for i, ext := range extensions {
			if i > 0 {
				sb.WriteByte('|')
			}
			appendPattern(&sb, ext)
		}
		sb.WriteByte(')')
	}
	sb.WriteString("\\z")
	return regexp.Compile(sb.String())
}

func appendPattern(sb *strings.Builder, pattern string) {
	for _, r := range pattern {
		switch r {
		case '?':
			sb.WriteString("[^/]?")
		case '*':
			sb.WriteString("[^/]+")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
}
