package mosquitto

import (
	"errors"
	"fmt"
)

// Broker status codes as defined by the plugin ABI. StatusSuccess is the
// only code that does not translate to an error.
const (
	StatusSuccess        int32 = 0
	StatusNoMem          int32 = 1
	StatusProtocol       int32 = 2
	StatusInval          int32 = 3
	StatusBufferTooSmall int32 = 4
	StatusNotSupported   int32 = 10
	StatusAuth           int32 = 11
	StatusACLDenied      int32 = 12
	StatusUnknown        int32 = 13
	StatusPluginDefer    int32 = 17
)

// ErrorKind classifies failures of broker calls and of the interop layer
// itself.
type ErrorKind uint8

const (
	// KindUnknown is a broker status code outside the known set. The
	// original code is preserved in Error.Code.
	KindUnknown ErrorKind = iota
	// KindOutOfMemory means the broker could not allocate.
	KindOutOfMemory
	// KindProtocol is a broker-side protocol error.
	KindProtocol
	// KindInvalidArgument covers malformed input, detected either by the
	// broker or by this package before any broker call is made.
	KindInvalidArgument
	// KindBufferTooSmall is the retry signal of the retained-message query
	// protocol. It is consumed internally and never surfaced by Client.
	KindBufferTooSmall
	// KindNotSupported means the broker rejected the operation as
	// unavailable in its configuration.
	KindNotSupported
	// KindAuth is a failed credentials check.
	KindAuth
	// KindACLDenied is a failed topic access check.
	KindACLDenied
	// KindPluginDefer asks the broker to fall through to the next
	// authentication plugin.
	KindPluginDefer
	// KindDecoding means a host-populated record held text that is not
	// valid UTF-8 or a field outside its domain.
	KindDecoding
	// KindNullRecord means the host violated its contract by handing back
	// a nil record slot.
	KindNullRecord
	// KindQueryTooLarge means a retained query outgrew the configured
	// capacity cap before the broker reported success.
	KindQueryTooLarge
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindOutOfMemory:
		return "out of memory"
	case KindProtocol:
		return "protocol error"
	case KindInvalidArgument:
		return "invalid argument"
	case KindBufferTooSmall:
		return "buffer too small"
	case KindNotSupported:
		return "not supported"
	case KindAuth:
		return "authentication failed"
	case KindACLDenied:
		return "acl denied"
	case KindPluginDefer:
		return "deferred to next plugin"
	case KindDecoding:
		return "decoding failed"
	case KindNullRecord:
		return "null record from host"
	case KindQueryTooLarge:
		return "query result too large"
	default:
		return "unknown"
	}
}

// Error is a classified broker or interop failure. Host-originated errors
// keep the raw status code so diagnostics never lose information.
type Error struct {
	Kind ErrorKind
	Code int32
}

func (e *Error) Error() string {
	if e.Kind == KindUnknown {
		return fmt.Sprintf("mosquitto: unknown broker status %d", e.Code)
	}
	return "mosquitto: " + e.Kind.String()
}

// Is matches any *Error of the same kind, so callers can test against the
// package sentinels with errors.Is regardless of wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinel errors, one per kind. Translate and the rest of the package
// return these (possibly wrapped) so callers can branch with errors.Is.
var (
	ErrOutOfMemory     = &Error{Kind: KindOutOfMemory, Code: StatusNoMem}
	ErrProtocol        = &Error{Kind: KindProtocol, Code: StatusProtocol}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument, Code: StatusInval}
	ErrBufferTooSmall  = &Error{Kind: KindBufferTooSmall, Code: StatusBufferTooSmall}
	ErrNotSupported    = &Error{Kind: KindNotSupported, Code: StatusNotSupported}
	ErrAuth            = &Error{Kind: KindAuth, Code: StatusAuth}
	ErrACLDenied       = &Error{Kind: KindACLDenied, Code: StatusACLDenied}
	ErrPluginDefer     = &Error{Kind: KindPluginDefer, Code: StatusPluginDefer}
	ErrDecoding        = &Error{Kind: KindDecoding}
	ErrNullRecord      = &Error{Kind: KindNullRecord}
	ErrQueryTooLarge   = &Error{Kind: KindQueryTooLarge}
)

// Translate maps a broker status code into the error taxonomy. It is total:
// any code outside the known set produces a KindUnknown error carrying the
// original code. A zero status translates to nil.
func Translate(code int32) error {
	switch code {
	case StatusSuccess:
		return nil
	case StatusNoMem:
		return ErrOutOfMemory
	case StatusProtocol:
		return ErrProtocol
	case StatusInval:
		return ErrInvalidArgument
	case StatusBufferTooSmall:
		return ErrBufferTooSmall
	case StatusNotSupported:
		return ErrNotSupported
	case StatusAuth:
		return ErrAuth
	case StatusACLDenied:
		return ErrACLDenied
	case StatusPluginDefer:
		return ErrPluginDefer
	default:
		return &Error{Kind: KindUnknown, Code: code}
	}
}

// StatusOf converts an error back into the status code reported to the
// broker. It is the inverse of Translate for host-originated errors; errors
// that never cross the ABI (decoding, null records, oversized queries, or
// arbitrary Go errors from plugin code) report StatusUnknown.
func StatusOf(err error) int32 {
	if err == nil {
		return StatusSuccess
	}
	var e *Error
	if errors.As(err, &e) && e.Code != 0 {
		return e.Code
	}
	return StatusUnknown
}
