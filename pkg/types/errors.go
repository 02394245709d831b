package types

import (
	"errors"
	"fmt"
)

// ConfigurationError means a query could not be scoped to any identity.
// It must propagate: silently treating "no identity" as "no filter" would
// leak cross-tenant data.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// UpstreamServiceError means an external call (graph, embedding, LLM)
// failed. Callers recover by fallback or zero-result degradation, never by
// widening the ownership filter.
type UpstreamServiceError struct {
	Service string
	Err     error
}

func (e *UpstreamServiceError) Error() string {
	return fmt.Sprintf("upstream service %s: %v", e.Service, e.Err)
}

func (e *UpstreamServiceError) Unwrap() error { return e.Err }

// MalformedResponseError means an upstream returned structured data that
// could not be parsed even after repair. The intent classifier treats it as
// a signal to use the deterministic fallback.
type MalformedResponseError struct {
	Service string
	Raw     string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Service, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsUpstream reports whether err is (or wraps) an UpstreamServiceError.
func IsUpstream(err error) bool {
	var u *UpstreamServiceError
	return errors.As(err, &u)
}

// IsMalformed reports whether err is (or wraps) a MalformedResponseError.
func IsMalformed(err error) bool {
	var m *MalformedResponseError
	return errors.As(err, &m)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var c *ConfigurationError
	return errors.As(err, &c)
}
