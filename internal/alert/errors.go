package alert

import "errors"

// Delivery failure taxonomy. Configuration and validation problems are
// skipped over without consuming retries; anything else is treated as
// transient and retried. Exhaustion is surfaced in the AttemptResult, never
// returned as an error.
var (
	// ErrNotConfigured marks a provider whose credentials are missing.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrInvalidRecipient marks a contact address that fails validation.
	ErrInvalidRecipient = errors.New("invalid recipient address")
)
