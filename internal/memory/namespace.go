package memory

import (
	"fmt"
	"regexp"
	"strings"
)

// namespacePattern is the full path-like namespace grammar: lowercase,
// non-empty, segments separated by '/'.
var namespacePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*(/[a-z0-9_-]+)*$`)

// validateNamespace checks ns against the grammar and returns the
// segment count, so callers can apply the orphan-prevention invariant
// (segments > 1 requires linkTo) without re-parsing.
func validateNamespace(ns string) (segments int, err error) {
	if !namespacePattern.MatchString(ns) {
		return 0, fmt.Errorf("%w: %q", ErrNamespaceValidation, ns)
	}
	return strings.Count(ns, "/") + 1, nil
}

// rootOf returns the first path segment of a namespace.
func rootOf(ns string) string {
	if i := strings.IndexByte(ns, '/'); i >= 0 {
		return ns[:i]
	}
	return ns
}
