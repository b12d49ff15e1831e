package usecases

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrStopNotFound     = errors.New("stop not found")
	ErrMarkerNotFound   = errors.New("marker not found")
	ErrTooManySessions  = errors.New("session limit reached")
	ErrCatalogNotLoaded = errors.New("catalog not loaded")
)
