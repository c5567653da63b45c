package mosquitto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishBroadcastMarshalsPayloadExactly(t *testing.T) {
	client, host, alloc := newTestClient()

	payload := []byte{0x00, 0x01, 0xfe, 0xff, 'a', 0x00}
	err := client.PublishBroadcast("sensors/door", payload, AtLeastOnce, true)
	require.NoError(t, err)

	assert.Equal(t, 1, host.publishCalls)
	assert.True(t, host.clientIDNil, "broadcast must pass the nil client id sentinel")
	assert.Equal(t, "sensors/door", host.lastTopic)
	assert.Equal(t, len(payload), len(host.lastPayload), "buffer length must equal payload length")
	assert.True(t, bytes.Equal(payload, host.lastPayload), "buffer content must be byte-identical")
	assert.Equal(t, AtLeastOnce, host.lastQoS)
	assert.True(t, host.lastRetain)

	// The broker consumed the buffer on success; nothing may remain.
	assert.Equal(t, 0, alloc.outstanding())
	assert.False(t, alloc.doubleFree, "accepted payload must not be freed by the caller")
}

func TestPublishToClientDistinctFromBroadcast(t *testing.T) {
	client, host, _ := newTestClient()

	require.NoError(t, client.PublishToClient("client-1", "greeting", []byte("hi"), AtMostOnce, false))
	assert.False(t, host.clientIDNil)
	assert.Equal(t, "client-1", host.lastClientID)

	// An empty client id is a directed publish, not a broadcast.
	require.NoError(t, client.PublishToClient("", "greeting", nil, AtMostOnce, false))
	assert.False(t, host.clientIDNil)
	assert.Equal(t, "", host.lastClientID)
}

func TestPublishEmbeddedNULFailsBeforeHostCall(t *testing.T) {
	client, host, alloc := newTestClient()

	err := client.PublishBroadcast("bad\x00topic", []byte("x"), AtMostOnce, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = client.PublishToClient("bad\x00client", "topic", []byte("x"), AtMostOnce, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 0, host.publishCalls, "validation failures must not reach the host")
	assert.Equal(t, 0, alloc.allocs, "validation failures must not allocate")
}

func TestPublishInvalidQoSFailsBeforeHostCall(t *testing.T) {
	client, host, _ := newTestClient()

	err := client.PublishBroadcast("topic", []byte("x"), QoS(3), false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, host.publishCalls)
}

func TestPublishEmptyPayloadPassesNilBuffer(t *testing.T) {
	client, host, alloc := newTestClient()

	require.NoError(t, client.PublishBroadcast("topic", nil, AtMostOnce, false))
	assert.Equal(t, 1, host.publishCalls)
	assert.Nil(t, host.lastPayload)
	assert.Equal(t, 0, alloc.allocs, "empty payloads need no host-heap buffer")
}

func TestPublishFreesBufferOnFailure(t *testing.T) {
	client, host, alloc := newTestClient()
	host.publishStatus = StatusInval

	err := client.PublishBroadcast("topic", []byte("payload"), AtMostOnce, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// The ABI does not say whether a failed publish consumed the buffer;
	// the conservative contract is that the caller frees it.
	assert.Equal(t, 1, host.publishCalls)
	assert.Equal(t, 0, alloc.outstanding())
	assert.Equal(t, 1, alloc.frees)
	assert.False(t, alloc.doubleFree)
}

func TestPublishTranslatesHostStatus(t *testing.T) {
	client, host, _ := newTestClient()

	host.publishStatus = StatusNoMem
	assert.ErrorIs(t, client.PublishBroadcast("t", []byte("p"), AtMostOnce, false), ErrOutOfMemory)

	host.publishStatus = 77
	err := client.PublishBroadcast("t", []byte("p"), AtMostOnce, false)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindUnknown, e.Kind)
	assert.Equal(t, int32(77), e.Code)
}

func TestPublishAllocationFailure(t *testing.T) {
	client, host, alloc := newTestClient()
	alloc.failFrom = 1

	err := client.PublishBroadcast("topic", []byte("payload"), AtMostOnce, false)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, 0, host.publishCalls, "a failed allocation must not reach the host")
}
