package browser

import "github.com/cockroachdb/errors"

// Errors
var (
	ErrNotLoaded       = errors.New("collection is not loaded")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrCannotDescend   = errors.New("cannot browse below album level")
	ErrQueueScope      = errors.New("queue can only be loaded from artist or album listings")
	ErrEmptySelection  = errors.New("selection has no songs")
	ErrQueueBoundary   = errors.New("song index outside of play queue")
)
