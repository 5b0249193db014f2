package visibility

import "errors"

var (
	ErrInvalidQuery    = errors.New("invalid visibility query")
	ErrUnknownStrategy = errors.New("unknown area strategy")
)
