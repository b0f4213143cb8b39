package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrNoResults         = errors.New("no results")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrUnmappedColor     = errors.New("unmapped highlight color")
	ErrNotConnected      = errors.New("device not connected")
)
