package reading

import "errors"

// ErrNotNumber indicates a payload carried a value that is not numeric.
// Raised while decoding, before any value reaches a converter.
var ErrNotNumber = errors.New("reading: value is not a number")
