package mosquitto

import (
	"fmt"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Client is the safe entry point into the broker ABI. It bundles the host
// function table with the paired allocator and performs all marshaling,
// ownership transfer and status translation.
//
// A Client holds no mutable state of its own after construction: every call
// allocates, uses and frees only its own buffers, so one Client may be used
// concurrently from any number of broker callback threads without locking.
type Client struct {
	host  Host
	alloc Allocator

	// maxRetainedCapacity bounds the buffer-growth retry loop of
	// GetRetained. See SetMaxRetainedCapacity.
	maxRetainedCapacity int

	log *logrus.Entry
}

// NewClient returns a Client calling into host with buffers from alloc.
// alloc must be the allocator family the broker's own free() uses on
// payloads it accepts; the capi package provides the matched pair for the
// real broker.
func NewClient(host Host, alloc Allocator) *Client {
	return &Client{
		host:                host,
		alloc:               alloc,
		maxRetainedCapacity: DefaultMaxRetainedCapacity,
		log:                 logrus.WithField("component", "mosquitto.Client"),
	}
}

// SetMaxRetainedCapacity caps the record-buffer growth of GetRetained.
// Queries that still report StatusBufferTooSmall at n slots fail with
// ErrQueryTooLarge instead of growing further. Values below 1 restore
// DefaultMaxRetainedCapacity.
func (c *Client) SetMaxRetainedCapacity(n int) {
	if n < 1 {
		n = DefaultMaxRetainedCapacity
	}
	c.maxRetainedCapacity = n
}

// PublishBroadcast publishes a message to every connected client.
//
// When called during a credentials check the connecting client does not
// receive the broadcast; pair it with PublishToClient to reach that client
// as well.
func (c *Client) PublishBroadcast(topic string, payload []byte, qos QoS, retain bool) error {
	return c.publish(nil, topic, payload, qos, retain)
}

// PublishToClient publishes a message to a single connected client.
func (c *Client) PublishToClient(clientID, topic string, payload []byte, qos QoS, retain bool) error {
	if err := checkNoNUL("client id", clientID); err != nil {
		return err
	}
	// An empty client id is still a directed publish; only a nil buffer
	// means broadcast.
	return c.publish(cstring(clientID), topic, payload, qos, retain)
}

// publish marshals one outbound publish call. Validation happens before any
// broker call so a malformed argument has no partial side effect.
//
// Ownership invariant: on StatusSuccess the broker owns the payload buffer
// and frees it, so the buffer must not be touched again here. On every other
// status the ABI leaves consumption unspecified; the conservative policy is
// that the buffer is ours and is always freed.
func (c *Client) publish(clientID []byte, topic string, payload []byte, qos QoS, retain bool) error {
	if err := checkNoNUL("topic", topic); err != nil {
		return err
	}
	if !qos.Valid() {
		return fmt.Errorf("qos %d out of range: %w", qos, ErrInvalidArgument)
	}

	var buf unsafe.Pointer
	if len(payload) > 0 {
		buf = c.alloc.Alloc(uintptr(len(payload)))
		if buf == nil {
			return fmt.Errorf("allocating %d payload bytes: %w", len(payload), ErrOutOfMemory)
		}
		copy(unsafe.Slice((*byte)(buf), len(payload)), payload)
	}

	status := c.host.Publish(clientID, cstring(topic), buf, len(payload), qos, retain)
	if status != StatusSuccess {
		c.alloc.Free(buf)
		c.log.WithFields(logrus.Fields{
			"topic":  topic,
			"status": status,
		}).Debug("Publish rejected by broker")
	}
	return Translate(status)
}
