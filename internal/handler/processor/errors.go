package processor

import "errors"

var (
	// ErrIntegrationDisabled is returned while the integration is switched off.
	ErrIntegrationDisabled = errors.New("calendly integration is currently disabled")
	// ErrPayloadDecode is returned when a verified body is not a valid event.
	ErrPayloadDecode = errors.New("invalid event payload")
)
