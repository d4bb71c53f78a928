package support

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a controller failure. Validation kinds abort before
// any state mutation; KindPlatform may require rollback which the
// controllers perform before returning.
type Kind int

const (
	KindNone Kind = iota
	KindPermissionDenied
	KindThrottled
	KindDuplicate
	KindConfiguration
	KindPlatform
)

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission denied"
	case KindThrottled:
		return "throttled"
	case KindDuplicate:
		return "duplicate ticket"
	case KindConfiguration:
		return "configuration error"
	case KindPlatform:
		return "platform error"
	}
	return "ok"
}

type Error struct {
	Kind      Kind
	Remaining time.Duration // set for KindThrottled
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	if e.Kind == KindThrottled {
		return fmt.Sprintf("%s (%.1fs left)", e.Kind, e.Remaining.Seconds())
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

func permissionDenied() error { return &Error{Kind: KindPermissionDenied} }
func duplicateTicket() error  { return &Error{Kind: KindDuplicate} }

func configuration(err error) error {
	return &Error{Kind: KindConfiguration, cause: err}
}

func throttled(left time.Duration) error {
	return &Error{Kind: KindThrottled, Remaining: left}
}

func platformErr(err error) error {
	return &Error{Kind: KindPlatform, cause: err}
}

// KindOf extracts the failure kind, KindNone for nil or foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
