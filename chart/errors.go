package chart

import "errors"

var (
	ErrImmutable   = errors.New("series data is immutable")
	ErrUnsupported = errors.New("operation not supported by this source")
)
