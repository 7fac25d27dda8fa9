package service

import "errors"

// Issuance failures.
var (
	ErrInvalidURL          = errors.New("invalid URL: must be an absolute http or https URL")
	ErrAliasReserved       = errors.New("this alias is reserved")
	ErrAliasInvalidFormat  = errors.New("alias must be 3-50 characters (letters, numbers, hyphens, underscores)")
	ErrAliasTaken          = errors.New("this alias is already taken")
	ErrGenerationExhausted = errors.New("failed to generate a unique short code")
	ErrStorageFailure      = errors.New("storage operation failed")
)

// Resolution failures.
var (
	ErrNotFound = errors.New("link not found")
	ErrDisabled = errors.New("this link has been disabled")
	ErrExpired  = errors.New("this link has expired")
)

// IsIssuanceError reports whether err is a validation or business-rule
// failure from the issuance path, as opposed to a storage failure.
func IsIssuanceError(err error) bool {
	return errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrAliasReserved) ||
		errors.Is(err, ErrAliasInvalidFormat) ||
		errors.Is(err, ErrAliasTaken) ||
		errors.Is(err, ErrGenerationExhausted)
}

// IsResolutionError reports whether err belongs to the resolution taxonomy.
func IsResolutionError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDisabled) ||
		errors.Is(err, ErrExpired)
}
