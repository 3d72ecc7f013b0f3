package driveauth

import (
	"strings"
)

// Path is a slash-delimited hierarchical key decomposed into segments.
// The empty path is the root. All permission and listener lookups work
// on the decomposition so that "", "/" and trailing slashes resolve to
// the same node.
type Path []string

// ParsePath decomposes a path string into its segments.
func ParsePath(s string) Path {
	s = strings.TrimSuffix(s, "/")
	if s == "" || s == "/" {
		return Path{}
	}
	return Path(strings.Split(strings.TrimPrefix(s, "/"), "/"))
}

// String returns the normalized string form: "/" for the root,
// "/a/b" otherwise.
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	return "/" + strings.Join(p, "/")
}

// Ancestor returns the prefix of p with depth segments. Depth 0 is the
// root.
func (p Path) Ancestor(depth int) Path {
	return p[:depth]
}

// Valid reports whether the original string form is acceptable as a
// lookup key: no empty segments (from "//") and no ".." traversal.
func (p Path) Valid() bool {
	for _, segment := range p {
		if segment == "" || segment == ".." {
			return false
		}
	}
	return true
}
