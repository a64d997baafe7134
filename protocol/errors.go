package protocol

import "fmt"

// ErrorCode is a typed, numeric protocol error code. It implements error
// directly, the same "the code IS the error" idiom the teacher's HTTP
// package used for its SystemError type — there is no separate message
// string to go out of sync with the code.
type ErrorCode int32

// Error codes, per spec §6. Negative values mirror the original C
// implementation's convention that 0 means success.
const (
	ErrSuccess         ErrorCode = 0
	ErrSocket          ErrorCode = -1
	ErrConnect         ErrorCode = -2
	ErrBind            ErrorCode = -3
	ErrListen          ErrorCode = -4
	ErrAccept          ErrorCode = -5
	ErrSend            ErrorCode = -6
	ErrRecv            ErrorCode = -7
	ErrTimeout         ErrorCode = -8
	ErrFileOpen        ErrorCode = -10
	ErrFileRead        ErrorCode = -11
	ErrFileWrite       ErrorCode = -12
	ErrFileSeek        ErrorCode = -13
	ErrDiskFull        ErrorCode = -14
	ErrPermission      ErrorCode = -15
	ErrChecksum        ErrorCode = -20
	ErrProtocol        ErrorCode = -21
	ErrVersion         ErrorCode = -22
	ErrInvalidMsg      ErrorCode = -23
	ErrOutOfMemory     ErrorCode = -30
	ErrInvalidArg      ErrorCode = -31
	ErrFileNotFound    ErrorCode = -32
	ErrFilenameTooLong ErrorCode = -33
)

var errorCodeNames = map[ErrorCode]string{
	ErrSuccess:         "success",
	ErrSocket:          "socket error",
	ErrConnect:         "connect failed",
	ErrBind:            "bind failed",
	ErrListen:          "listen failed",
	ErrAccept:          "accept failed",
	ErrSend:            "send failed",
	ErrRecv:            "recv failed",
	ErrTimeout:         "timeout",
	ErrFileOpen:        "file open failed",
	ErrFileRead:        "file read failed",
	ErrFileWrite:       "file write failed",
	ErrFileSeek:        "file seek failed",
	ErrDiskFull:        "disk full",
	ErrPermission:      "permission denied",
	ErrChecksum:        "checksum mismatch",
	ErrProtocol:        "protocol error",
	ErrVersion:         "version mismatch",
	ErrInvalidMsg:      "invalid message type",
	ErrOutOfMemory:     "out of memory",
	ErrInvalidArg:      "invalid argument",
	ErrFileNotFound:    "file not found",
	ErrFilenameTooLong: "filename too long",
}

func (c ErrorCode) Error() string {
	if name, ok := errorCodeNames[c]; ok {
		return fmt.Sprintf("%s (%d)", name, int32(c))
	}
	return fmt.Sprintf("unknown error code (%d)", int32(c))
}

// Kind is the flat, exhaustive enumeration of codec/transport failure
// classes named by spec §7. Unlike ErrorCode (a value carried on the wire),
// Kind classifies failures local to this process.
type Kind int

const (
	KindProtocol Kind = iota
	KindVersion
	KindInvalidMsg
	KindChecksum
	KindSend
	KindRecv
	KindTimeout
	KindListen
	KindAccept
)

func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindVersion:
		return "version"
	case KindInvalidMsg:
		return "invalid_msg"
	case KindChecksum:
		return "checksum"
	case KindSend:
		return "send"
	case KindRecv:
		return "recv"
	case KindTimeout:
		return "timeout"
	case KindListen:
		return "listen"
	case KindAccept:
		return "accept"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with context, the single tagged error kind spec §4.2
// calls for codec failures to surface as.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// NewError constructs an *Error with a formatted message.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
