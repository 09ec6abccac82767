package episode

import (
	"fmt"
	"regexp"
	"strings"
)

// namespacePattern is the full path-like namespace grammar: lowercase,
// non-empty, segments separated by '/'. Mirrors internal/memory's grammar
// since both packages store records under the same namespace tree.
var namespacePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*(/[a-z0-9_-]+)*$`)

func validateNamespace(ns string) (segments int, err error) {
	if !namespacePattern.MatchString(ns) {
		return 0, fmt.Errorf("%w: %q", ErrNamespaceValidation, ns)
	}
	return strings.Count(ns, "/") + 1, nil
}

func rootOf(ns string) string {
	if i := strings.IndexByte(ns, '/'); i >= 0 {
		return ns[:i]
	}
	return ns
}
