package mosquitto

import (
	"fmt"
	"strings"
)

// QoS represents an MQTT quality-of-service level.
type QoS uint8

const (
	// AtMostOnce delivers a message zero or one times.
	AtMostOnce QoS = iota
	// AtLeastOnce delivers a message one or more times.
	AtLeastOnce
	// ExactlyOnce delivers a message exactly once.
	ExactlyOnce
)

// Valid reports whether q is one of the three defined levels.
func (q QoS) Valid() bool {
	return q <= ExactlyOnce
}

// String returns the conventional name of the level.
func (q QoS) String() string {
	switch q {
	case AtMostOnce:
		return "at most once"
	case AtLeastOnce:
		return "at least once"
	case ExactlyOnce:
		return "exactly once"
	default:
		return fmt.Sprintf("qos(%d)", uint8(q))
	}
}

// Message is a broker message. It always owns its topic and payload bytes:
// values produced from host records are copied out of host memory at
// conversion time, so a Message stays valid for as long as the caller keeps
// it, independent of the host's allocations.
type Message struct {
	Topic   string
	Payload []byte
	QoS     QoS
	Retain  bool
}

// checkNoNUL rejects text destined for a NUL-terminated wire field when it
// contains an embedded NUL byte. The check runs before any broker call so a
// malformed value fails fast instead of truncating silently on the wire.
func checkNoNUL(field, s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("%s contains an embedded NUL byte: %w", field, ErrInvalidArgument)
	}
	return nil
}

// cstring encodes s as a NUL-terminated byte buffer.
func cstring(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
