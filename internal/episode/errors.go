package episode

import "errors"

var (
	// ErrNamespaceValidation is returned when a namespace string fails the
	// path-like grammar check.
	ErrNamespaceValidation = errors.New("episode: invalid namespace")
	// ErrOrphanEpisode is returned when a non-root namespace is used
	// without linkTo identifying an existing episode.
	ErrOrphanEpisode = errors.New("episode: orphan episode: linkTo required for non-root namespace")
	// ErrLinkTargetNotFound is returned when linkTo names an episode that
	// does not exist.
	ErrLinkTargetNotFound = errors.New("episode: linkTo target does not exist")
	// ErrNotFound is returned by Get/Update/Delete for an unknown id.
	ErrNotFound = errors.New("episode: not found")
)
