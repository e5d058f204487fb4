package adapters

import (
	"context"
	"errors"
	"fmt"
	"net"

	"carrier-gateway/internal/features/shipping/domain"
)

// snippetLimit bounds how much of a provider body is kept for diagnostics.
const snippetLimit = 512

// snippet truncates a response body for inclusion in error messages.
func snippet(body []byte) string {
	if len(body) > snippetLimit {
		return string(body[:snippetLimit]) + "..."
	}
	return string(body)
}

// classifyTransportError maps deadline and network timeouts onto
// domain.ErrTimeout so callers can tell them apart from other failures.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}
