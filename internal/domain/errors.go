package domain

import "fmt"

// ConfigurationError reports a missing required setting, usually a provider
// credential. It is not retryable; the operator has to fix the environment.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Message)
	}
	return fmt.Sprintf("configuration error: %s is not configured", e.Setting)
}

// ProviderError reports a transport failure or an error payload returned by
// an external provider. The user may retry the action.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s error", e.Provider)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// OptimizationMismatchError is returned when a reordering oracle answer is not
// a permutation of the submitted stops.
type OptimizationMismatchError struct {
	Expected int
	Got      int
}

func (e *OptimizationMismatchError) Error() string {
	return fmt.Sprintf(
		"oracle returned a different number of jobs: expected %d, got %d",
		e.Expected, e.Got,
	)
}
