package mosquitto

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultRetainedCapacity is the starting record-buffer size of
	// GetRetained.
	DefaultRetainedCapacity = 10

	// DefaultMaxRetainedCapacity bounds the doubling retry loop. The ABI
	// itself has no cap, which would loop unboundedly against a
	// misbehaving broker; exceeding this cap fails with ErrQueryTooLarge.
	DefaultMaxRetainedCapacity = 65536
)

// GetRetained returns the retained messages matching filter, in the order
// the broker reports them, starting from DefaultRetainedCapacity record
// slots.
//
// The query is read-only on the broker side and safe to re-invoke after a
// transient failure, unlike a publish.
func (c *Client) GetRetained(filter string) ([]Message, error) {
	return c.GetRetainedN(filter, DefaultRetainedCapacity)
}

// GetRetainedN is GetRetained with an explicit initial slot capacity. The
// broker reports the result cardinality only through StatusBufferTooSmall,
// so the buffer doubles until the query fits or the configured cap is
// exceeded. Values of initialCapacity below 1 fall back to
// DefaultRetainedCapacity.
func (c *Client) GetRetainedN(filter string, initialCapacity int) ([]Message, error) {
	if err := checkNoNUL("topic filter", filter); err != nil {
		return nil, err
	}
	capacity := initialCapacity
	if capacity < 1 {
		capacity = DefaultRetainedCapacity
	}
	cfilter := cstring(filter)
	for {
		msgs, retry, err := c.queryRetained(cfilter, capacity)
		if err != nil {
			return nil, err
		}
		if !retry {
			return msgs, nil
		}
		if capacity >= c.maxRetainedCapacity {
			return nil, fmt.Errorf("retained query exceeds %d record slots: %w", c.maxRetainedCapacity, ErrQueryTooLarge)
		}
		capacity *= 2
		if capacity > c.maxRetainedCapacity {
			capacity = c.maxRetainedCapacity
		}
		c.log.WithFields(logrus.Fields{
			"filter":   filter,
			"capacity": capacity,
		}).Debug("Growing retained query buffer")
	}
}

// queryRetained performs one host query at the given capacity. It owns the
// slot buffer for the duration of the call: all capacity slots are reclaimed
// on every path, success, error and buffer-too-small alike.
func (c *Client) queryRetained(cfilter []byte, capacity int) (msgs []Message, retry bool, err error) {
	slots, err := newRecordSlots(c.alloc, capacity)
	if err != nil {
		return nil, false, err
	}

	count := uint64(capacity)
	status := c.host.GetRetained(cfilter, slots, &count)

	if status == StatusBufferTooSmall {
		// Nothing in the slots is valid; free them and signal a retry.
		if _, err := reclaim(c.alloc, slots, 0); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}
	if status != StatusSuccess {
		if _, rerr := reclaim(c.alloc, slots, 0); rerr != nil {
			return nil, false, rerr
		}
		return nil, false, Translate(status)
	}

	found := int(count)
	if found > capacity {
		found = capacity
	}
	records, err := reclaim(c.alloc, slots, found)
	if err != nil {
		return nil, false, err
	}

	msgs = make([]Message, 0, len(records))
	for i, rec := range records {
		msg, err := decodeRecord(rec)
		if err != nil {
			return nil, false, fmt.Errorf("retained message %d: %w", i, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, false, nil
}
