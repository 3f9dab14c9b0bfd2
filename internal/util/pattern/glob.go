package pattern

import "strings"

// MatchesPath reports whether path matches a bypass pattern. A pattern
// without a wildcard is a path prefix; a leading and/or trailing * turns it
// into a suffix, contains or prefix match. Paths are case-sensitive.
func MatchesPath(path, pattern string) bool {
	switch {
	case pattern == "":
		return false
	case pattern == "*":
		return true
	case !strings.Contains(pattern, "*"):
		return strings.HasPrefix(path, pattern)
	}

	leading := strings.HasPrefix(pattern, "*")
	trailing := strings.HasSuffix(pattern, "*")
	core := strings.Trim(pattern, "*")

	switch {
	case leading && trailing:
		return strings.Contains(path, core)
	case leading:
		return strings.HasSuffix(path, core)
	case trailing:
		return strings.HasPrefix(path, core)
	default:
		// a wildcard in the middle, e.g. /api/*/health
		prefix, suffix, _ := strings.Cut(pattern, "*")
		return len(path) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(path, prefix) &&
			strings.HasSuffix(path, suffix)
	}
}
