package mosquitto

import (
	"fmt"
	"sync"
	"unsafe"
)

// mockAllocator hands out tracked Go memory in place of the C heap so tests
// can verify that every allocation is freed exactly once.
type mockAllocator struct {
	mu         sync.Mutex
	buffers    map[unsafe.Pointer][]byte
	allocs     int
	frees      int
	failFrom   int // fail allocations from the nth onward (1-based), 0 = never
	doubleFree bool
}

func newMockAllocator() *mockAllocator {
	return &mockAllocator{buffers: make(map[unsafe.Pointer][]byte)}
}

func (a *mockAllocator) Alloc(n uintptr) unsafe.Pointer {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allocs++
	if a.failFrom != 0 && a.allocs >= a.failFrom {
		return nil
	}
	if n == 0 {
		n = 1
	}
	buf := make([]byte, n)
	p := unsafe.Pointer(&buf[0])
	a.buffers[p] = buf
	return p
}

func (a *mockAllocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.buffers[p]; !ok {
		a.doubleFree = true
		return
	}
	delete(a.buffers, p)
	a.frees++
}

// outstanding is the number of allocations not yet freed.
func (a *mockAllocator) outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buffers)
}

// fakeHost is a scripted broker double recording every call.
type fakeHost struct {
	// alloc is the allocator paired with the Client under test; the double
	// frees accepted publish payloads through it, the way the broker's
	// free() would.
	alloc *mockAllocator

	publishStatus int32
	publishCalls  int
	clientIDNil   bool
	lastClientID  string
	lastTopic     string
	lastPayload   []byte
	lastQoS       QoS
	lastRetain    bool

	// hostAlloc backs the topic/payload buffers of served records,
	// standing in for broker-owned memory.
	hostAlloc   *mockAllocator
	retained    []Message
	queryStatus int32 // forced GetRetained status, 0 = serve retained
	reportCount uint64 // forced out-count, 0 = report len(retained)
	nullSlot    int    // slot index to hand back as nil, -1 = none
	queryCalls  int
	queryCaps   []int
}

func newFakeHost(alloc *mockAllocator) *fakeHost {
	return &fakeHost{alloc: alloc, hostAlloc: newMockAllocator(), nullSlot: -1}
}

func (h *fakeHost) Publish(clientID, topic []byte, payload unsafe.Pointer, payloadLen int, qos QoS, retain bool) int32 {
	h.publishCalls++
	h.clientIDNil = clientID == nil
	if clientID != nil {
		h.lastClientID = string(clientID[:len(clientID)-1])
	}
	h.lastTopic = string(topic[:len(topic)-1])
	h.lastPayload = nil
	if payload != nil {
		h.lastPayload = append([]byte(nil), unsafe.Slice((*byte)(payload), payloadLen)...)
	}
	h.lastQoS = qos
	h.lastRetain = retain

	if h.publishStatus == StatusSuccess && payload != nil {
		// Ownership transfer: the broker frees accepted payloads.
		h.alloc.Free(payload)
	}
	return h.publishStatus
}

func (h *fakeHost) GetRetained(filter []byte, slots []unsafe.Pointer, count *uint64) int32 {
	h.queryCalls++
	h.queryCaps = append(h.queryCaps, len(slots))

	if h.queryStatus != 0 {
		return h.queryStatus
	}
	if h.nullSlot >= 0 && h.nullSlot < len(slots) {
		// A broken host handing back a nil slot. The slot allocation is
		// released first so leak accounting stays attributable to the
		// code under test.
		h.alloc.Free(slots[h.nullSlot])
		slots[h.nullSlot] = nil
	}
	if len(slots) < len(h.retained) {
		return StatusBufferTooSmall
	}
	for i, msg := range h.retained {
		if i == h.nullSlot {
			continue
		}
		rec, err := encodeRecord(h.hostAlloc, int32(i+1), msg)
		if err != nil {
			panic(fmt.Sprintf("fakeHost: encoding record %d: %v", i, err))
		}
		*(*rawMessage)(slots[i]) = rec
	}
	if h.reportCount != 0 {
		*count = h.reportCount
	} else {
		*count = uint64(len(h.retained))
	}
	return StatusSuccess
}

// newTestClient wires a Client to fresh doubles.
func newTestClient() (*Client, *fakeHost, *mockAllocator) {
	alloc := newMockAllocator()
	host := newFakeHost(alloc)
	return NewClient(host, alloc), host, alloc
}
