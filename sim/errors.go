package sim

import "errors"

var (
	// ErrInvalidGeometry is returned when track or agent parameters cannot
	// produce a well-formed field. The wrapping error names the field.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrEpisodeAborted is returned when an episode is stopped by its context
	// before every agent reached a terminal state. The partial episode must be
	// discarded.
	ErrEpisodeAborted = errors.New("episode aborted")
)
