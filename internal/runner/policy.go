package runner

import "fmt"

// FallbackPolicy decides which runner failures are replaced by a local
// simulation instead of being returned to the caller.
type FallbackPolicy string

const (
	// FallbackAlways simulates on any failure. The runner being absent and
	// the runner erroring look the same to the caller.
	FallbackAlways FallbackPolicy = "always"
	// FallbackTransport simulates only when the runner cannot be reached;
	// a runner that answers with an error has that error returned.
	FallbackTransport FallbackPolicy = "transport"
	// FallbackNever returns every failure.
	FallbackNever FallbackPolicy = "never"
)

// ParseFallbackPolicy maps a config string to a policy. Empty means always.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(s) {
	case "", FallbackAlways:
		return FallbackAlways, nil
	case FallbackTransport:
		return FallbackTransport, nil
	case FallbackNever:
		return FallbackNever, nil
	}
	return "", fmt.Errorf("unknown fallback policy %q (want always, transport or never)", s)
}

// ShouldFallback reports whether err is covered by the policy.
func (p FallbackPolicy) ShouldFallback(err error) bool {
	if err == nil {
		return false
	}
	switch p {
	case FallbackNever:
		return false
	case FallbackTransport:
		return IsTransportError(err)
	}
	return true
}
