package mosquitto

import "unsafe"

// Allocator is the heap family the broker's own free() operates on. Publish
// payloads handed to the broker and record slots handed out for retained
// queries must come from this allocator and no other: mixing allocator
// families across the ABI corrupts the heap.
//
// The capi package implements Allocator over the C heap. Tests implement it
// over tracked Go memory to verify allocation/free balance.
type Allocator interface {
	// Alloc returns n bytes of uninitialized memory, or nil when the
	// allocation fails.
	Alloc(n uintptr) unsafe.Pointer

	// Free releases memory obtained from Alloc. Free(nil) is a no-op.
	Free(p unsafe.Pointer)
}

// Host is the fixed table of broker functions the interop layer calls into.
// The capi package implements it over the real C ABI; tests substitute a
// double.
//
// Both calls are synchronous foreign calls with no cancellation; any
// blocking happens inside the broker.
type Host interface {
	// Publish hands one message to the broker. clientID and topic are
	// NUL-terminated buffers; a nil clientID is the broadcast sentinel and
	// is distinct from an empty client id. payload points to payloadLen
	// bytes allocated from the paired Allocator, or is nil when payloadLen
	// is zero.
	//
	// Ownership: on StatusSuccess the broker takes the payload buffer and
	// frees it; on any other status the buffer stays with the caller.
	Publish(clientID, topic []byte, payload unsafe.Pointer, payloadLen int, qos QoS, retain bool) int32

	// GetRetained fills slots with retained messages matching the
	// NUL-terminated filter. Each slot points to a zeroed record owned by
	// the caller; the broker populates up to len(slots) of them. count is
	// in/out: it carries the slot capacity in and the number of matching
	// messages out. StatusBufferTooSmall reports that the capacity was
	// insufficient and no slot content is valid.
	GetRetained(filter []byte, slots []unsafe.Pointer, count *uint64) int32
}
