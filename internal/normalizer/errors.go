package normalizer

import "errors"

// Domain errors for the normalizer package.
var (
	// ErrMalformedObservation is returned when a raw observation payload
	// cannot be decoded.
	ErrMalformedObservation = errors.New("normalizer: malformed observation")

	// ErrUnexpectedTopic is returned when a message arrives on a topic
	// that does not match the raw observation scheme.
	ErrUnexpectedTopic = errors.New("normalizer: unexpected topic")
)
