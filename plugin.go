package mosquitto

import "fmt"

// AccessLevel is the kind of topic access a client is requesting when the
// broker runs an ACL check. The values match the broker's MOSQ_ACL_*
// constants.
type AccessLevel int32

const (
	AccessNone        AccessLevel = 0
	AccessRead        AccessLevel = 1
	AccessWrite       AccessLevel = 2
	AccessSubscribe   AccessLevel = 4
	AccessUnsubscribe AccessLevel = 8
)

// String returns a short name for the level.
func (a AccessLevel) String() string {
	switch a {
	case AccessNone:
		return "none"
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessSubscribe:
		return "subscribe"
	case AccessUnsubscribe:
		return "unsubscribe"
	default:
		return fmt.Sprintf("access(%d)", int32(a))
	}
}

// Plugin is the capability interface the broker invokes through the
// statically exported entry points in the capi package. One Plugin instance
// serves one broker plugin registration.
//
// CheckCredentials and CheckACL deny by returning ErrAuth or ErrACLDenied
// (or ErrPluginDefer to fall through to the next plugin). Denials are
// ABI-level negative outcomes: the broker silently drops the affected
// network operation and MQTT gives the plugin no way to tell the client why.
// Any other non-nil error is reported to the broker as StatusUnknown.
//
// The broker may invoke different hooks concurrently from different network
// I/O threads, so implementations must be safe for concurrent use.
type Plugin interface {
	// Init receives the auth_opt_* options from the broker configuration.
	// A non-nil error aborts plugin registration.
	Init(opts Options) error

	// CheckCredentials decides whether a connecting client's username and
	// password are acceptable.
	CheckCredentials(clientID, username, password string) error

	// CheckACL decides whether a client may perform the given access on
	// the message's topic.
	CheckACL(clientID string, access AccessLevel, msg Message) error

	// OnMessage observes a message passing through the broker.
	OnMessage(clientID string, msg Message)

	// OnDisconnect observes a client disconnecting with the broker's
	// reason code.
	OnDisconnect(clientID string, reason int32)
}
