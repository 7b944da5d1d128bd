package server

import "errors"

// ErrListen is returned when the listening socket cannot be opened.
var ErrListen = errors.New("failed to listen")
