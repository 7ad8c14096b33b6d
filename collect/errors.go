package collect

import "errors"

// ErrFetcherPanic wraps a panic recovered from a fetcher; the window is skipped.
var ErrFetcherPanic = errors.New("collect: fetcher panicked")
