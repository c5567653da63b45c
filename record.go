package mosquitto

import (
	"fmt"
	"unicode/utf8"
	"unsafe"
)

// rawMessage mirrors the broker's struct mosquitto_message. The field order
// and types must match the C layout exactly; the capi package holds a
// compile-time guard tying RawRecordSize to the C struct's size.
//
// Ownership is split: the record slot itself is allocated and freed by this
// package through the Allocator, while Topic and Payload point into
// host-owned memory that must only be read, never freed, and only while the
// host keeps it allocated. decodeRecord copies both out immediately so no
// borrowed view escapes.
type rawMessage struct {
	Mid        int32
	Topic      unsafe.Pointer // NUL-terminated char*, host-owned
	Payload    unsafe.Pointer // host-owned
	Payloadlen int32
	QoS        int32
	Retain     bool
}

// RawRecordSize is the in-memory size of one retained-message record slot.
const RawRecordSize = unsafe.Sizeof(rawMessage{})

// newRecordSlots allocates capacity zeroed record slots from alloc. On an
// allocation failure the slots already obtained are freed before the error
// returns.
func newRecordSlots(alloc Allocator, capacity int) ([]unsafe.Pointer, error) {
	slots := make([]unsafe.Pointer, capacity)
	for i := range slots {
		p := alloc.Alloc(RawRecordSize)
		if p == nil {
			for _, q := range slots[:i] {
				alloc.Free(q)
			}
			return nil, fmt.Errorf("allocating record slot %d of %d: %w", i, capacity, ErrOutOfMemory)
		}
		*(*rawMessage)(p) = rawMessage{}
		slots[i] = p
	}
	return slots, nil
}

// reclaim takes back ownership of every slot allocation, copying out the
// first found records for conversion and freeing all len(slots) slots
// regardless of outcome. Slots past found are placeholders whose pointer
// fields are not guaranteed valid, so they are freed without being read.
//
// A nil slot is a host contract violation: collection stops there, but the
// remaining slots are still freed before the NullRecord error returns, so a
// broken host does not also cause a leak.
func reclaim(alloc Allocator, slots []unsafe.Pointer, found int) ([]rawMessage, error) {
	if found > len(slots) {
		found = len(slots)
	}
	nullAt := -1
	records := make([]rawMessage, 0, found)
	for i, p := range slots {
		if p == nil {
			if nullAt < 0 {
				nullAt = i
			}
			continue
		}
		if i < found && nullAt < 0 {
			records = append(records, *(*rawMessage)(p))
		}
		alloc.Free(p)
	}
	if nullAt >= 0 {
		return nil, fmt.Errorf("record slot %d is nil: %w", nullAt, ErrNullRecord)
	}
	return records, nil
}

// decodeRecord converts one host-populated record into an owned Message.
// The topic must be valid UTF-8 and the qos within its enumeration; either
// violation is a decoding error, not a crash. Topic and payload bytes are
// copied into Go-owned storage so the returned Message does not borrow host
// memory of uncertain lifetime.
func decodeRecord(rec rawMessage) (Message, error) {
	if rec.Topic == nil {
		return Message{}, fmt.Errorf("record has no topic: %w", ErrDecoding)
	}
	topic := goStringN(rec.Topic)
	if !utf8.ValidString(topic) {
		return Message{}, fmt.Errorf("topic is not valid UTF-8: %w", ErrDecoding)
	}
	if rec.QoS < 0 || rec.QoS > int32(ExactlyOnce) {
		return Message{}, fmt.Errorf("qos %d out of range: %w", rec.QoS, ErrDecoding)
	}
	var payload []byte
	if rec.Payloadlen > 0 {
		if rec.Payload == nil {
			return Message{}, fmt.Errorf("record has %d payload bytes but no payload pointer: %w", rec.Payloadlen, ErrDecoding)
		}
		payload = make([]byte, rec.Payloadlen)
		copy(payload, unsafe.Slice((*byte)(rec.Payload), rec.Payloadlen))
	}
	return Message{
		Topic:   topic,
		Payload: payload,
		QoS:     QoS(rec.QoS),
		Retain:  rec.Retain,
	}, nil
}

// encodeRecord is the inverse direction of the codec: it lays msg out as a
// host record, allocating the NUL-terminated topic and the payload from
// alloc. The capi glue and test doubles use it to populate record slots; the
// buffers it allocates belong to the caller and are released with
// freeRecordBuffers.
func encodeRecord(alloc Allocator, mid int32, msg Message) (rawMessage, error) {
	topic := alloc.Alloc(uintptr(len(msg.Topic) + 1))
	if topic == nil {
		return rawMessage{}, fmt.Errorf("allocating record topic: %w", ErrOutOfMemory)
	}
	tb := unsafe.Slice((*byte)(topic), len(msg.Topic)+1)
	copy(tb, msg.Topic)
	tb[len(msg.Topic)] = 0

	var payload unsafe.Pointer
	if len(msg.Payload) > 0 {
		payload = alloc.Alloc(uintptr(len(msg.Payload)))
		if payload == nil {
			alloc.Free(topic)
			return rawMessage{}, fmt.Errorf("allocating record payload: %w", ErrOutOfMemory)
		}
		copy(unsafe.Slice((*byte)(payload), len(msg.Payload)), msg.Payload)
	}
	return rawMessage{
		Mid:        mid,
		Topic:      topic,
		Payload:    payload,
		Payloadlen: int32(len(msg.Payload)),
		QoS:        int32(msg.QoS),
		Retain:     msg.Retain,
	}, nil
}

// freeRecordBuffers releases the topic and payload buffers of a record built
// with encodeRecord.
func freeRecordBuffers(alloc Allocator, rec rawMessage) {
	alloc.Free(rec.Topic)
	alloc.Free(rec.Payload)
}

// goStringN copies the NUL-terminated string at p into Go-owned storage.
func goStringN(p unsafe.Pointer) string {
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}
