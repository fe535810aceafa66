package remote

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sandevgo/storedash/internal/metrics"
)

// Cause says why a remote call was unavailable. Callers treat every cause the same way.
type Cause string

const (
	CauseTimeout   Cause = "timeout"
	CauseNetwork   Cause = "network"
	CauseBadStatus Cause = "bad_status"
	CauseMalformed Cause = "malformed"
)

// UnavailableError is the only error a Client returns.
type UnavailableError struct {
	Endpoint string
	Cause    Cause
	Status   int // set for CauseBadStatus
	Err      error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%s unavailable [%s]", e.Endpoint, e.Cause)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err came from a remote call that did not succeed.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

func (c Cause) outcome() string {
	switch c {
	case CauseTimeout:
		return metrics.OutcomeTimeout
	case CauseBadStatus:
		return metrics.OutcomeBadStatus
	case CauseMalformed:
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeNetwork
	}
}

// transportCause separates deadline expiry from every other transport failure.
func transportCause(err error) Cause {
	if errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return CauseTimeout
	}
	return CauseNetwork
}
