package callcard

import "errors"

// Errors returned by the service. Callers classify with errors.Is; messages carry the details.
var (
	// ErrValidation reports a malformed request: blank ids, missing status.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound reports a referenced card, template or RefUser that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOwnership reports a resource that belongs to another user or card.
	ErrOwnership = errors.New("belongs to another owner")
	// ErrConfiguration reports a template mapping problem or an ambiguous temporary token.
	ErrConfiguration = errors.New("configuration error")
)
