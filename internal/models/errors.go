package models

import "fmt"

// ProviderErrorKind classifies a provider failure for fallback decisions and
// logging. All kinds are absorbed by the resolver; none reach the consumer.
type ProviderErrorKind string

const (
	ProviderErrTransient       ProviderErrorKind = "transient"
	ProviderErrInvalidResponse ProviderErrorKind = "invalid-response"
	ProviderErrRateLimited     ProviderErrorKind = "rate-limited"
	ProviderErrAuth            ProviderErrorKind = "auth"
)

// ProviderError is a classified failure from a single provider client.
type ProviderError struct {
	Provider string
	Kind     ProviderErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with a provider name and failure kind.
func NewProviderError(provider string, kind ProviderErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}
