package config

import "errors"

// ErrInvalid marks a configuration that cannot start a run.
var ErrInvalid = errors.New("config: invalid")
