package pixellizer

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrUnsupportedMode  = errors.New("unsupported color mode")
	ErrInvalidDimension = errors.New("invalid dimension")
)
