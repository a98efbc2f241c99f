package audio

import "errors"

// ErrEmptyStream indicates the planner was given no samples to split.
var ErrEmptyStream = errors.New("empty audio stream")

// ErrInvalidOverlap indicates the overlap exceeds the chunk time budget.
var ErrInvalidOverlap = errors.New("overlap must be shorter than the chunk budget")
