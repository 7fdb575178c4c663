package relay

import "errors"

var (
	ErrUnknownQuestion = errors.New("relay: unknown question")
	ErrHubClosed       = errors.New("relay: hub closed")
	ErrMissingColumn   = errors.New("relay: missing column")
)
