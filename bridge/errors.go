package bridge

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrSymbolParity      = errors.New("token symbol not registered on destination")
	ErrUnsupportedLedger = errors.New("unsupported ledger")
)

// ResolutionError is returned when a chain, address or pool id cannot be looked up.
// It points at caller misconfiguration and is not worth retrying.
type ResolutionError struct {
	Chain string
	Name  string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s on %s: %v", e.Name, e.Chain, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// RemoteCallError is returned when a ledger node rejects, reverts or does not answer a call.
type RemoteCallError struct {
	Chain string
	Op    string
	Err   error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s call on %s failed: %v", e.Op, e.Chain, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// GuardError wraps a failure of the allowance guard that ran inside a swap dispatch,
// so callers can tell a failed approval from a failed swap.
type GuardError struct {
	Chain string
	Token string
	Err   error
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("approval of %s on %s failed: %v", e.Token, e.Chain, e.Err)
}

func (e *GuardError) Unwrap() error { return e.Err }

// Classify names the stage an error came from: "guard", "swap", "resolution" or "other".
func Classify(err error) string {
	var guardErr *GuardError
	var resErr *ResolutionError
	var remoteErr *RemoteCallError
	switch {
	case errors.As(err, &guardErr):
		return "guard"
	case errors.As(err, &resErr):
		return "resolution"
	case errors.As(err, &remoteErr):
		return "swap"
	default:
		return "other"
	}
}
