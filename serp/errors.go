package serp

import "errors"

// ErrNoBrowser is returned when a Fetcher is built without a page.
var ErrNoBrowser = errors.New("serp: no browser page")
