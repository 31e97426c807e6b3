package session

import (
	"errors"
	"fmt"

	"wallet-session-api/internal/wallet"
)

// Kind classifies why a session operation failed.
type Kind int

const (
	KindWalletAbsent Kind = iota + 1
	KindAuthorizationDenied
	KindRemoteCallFailed
	KindConversionFailed
	KindSubmissionInProgress
	KindNotConnected
	KindStorageFailed
)

func (k Kind) String() string {
	switch k {
	case KindWalletAbsent:
		return "wallet absent"
	case KindAuthorizationDenied:
		return "authorization denied"
	case KindRemoteCallFailed:
		return "remote call failed"
	case KindConversionFailed:
		return "conversion failed"
	case KindSubmissionInProgress:
		return "submission in progress"
	case KindNotConnected:
		return "not connected"
	case KindStorageFailed:
		return "storage failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every Manager operation that fails.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "session: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so that errors.Is(err,
// ErrWalletAbsent) holds regardless of Op and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrWalletAbsent         = &Error{Kind: KindWalletAbsent}
	ErrAuthorizationDenied  = &Error{Kind: KindAuthorizationDenied}
	ErrRemoteCallFailed     = &Error{Kind: KindRemoteCallFailed}
	ErrConversionFailed     = &Error{Kind: KindConversionFailed}
	ErrSubmissionInProgress = &Error{Kind: KindSubmissionInProgress}
	ErrNotConnected         = &Error{Kind: KindNotConnected}
	ErrStorageFailed        = &Error{Kind: KindStorageFailed}
)

var (
	ErrUnknownField = errors.New("unknown form field")
	errNoAccounts   = errors.New("wallet returned no accounts")
)

// KindOf extracts the Kind of err, or 0 when err is not a session error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// remoteError tags a wallet or contract failure.
func remoteError(op string, err error) *Error {
	if wallet.IsUserRejection(err) {
		return newError(KindAuthorizationDenied, op, err)
	}
	return newError(KindRemoteCallFailed, op, err)
}
