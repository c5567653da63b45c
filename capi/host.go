//go:build cgo

package capi

/*
#include <stdlib.h>
#include <string.h>
#include <stdint.h>
#include <stdbool.h>
#include <stddef.h>

typedef struct mosquitto mosquitto;
typedef struct mosquitto_plugin_id_t mosquitto_plugin_id_t;
typedef struct mosquitto_property mosquitto_property;

struct mosquitto_message {
	int mid;
	char *topic;
	void *payload;
	int payloadlen;
	int qos;
	bool retain;
};

enum mosq_plugin_event {
	MOSQ_EVT_RELOAD = 1,
	MOSQ_EVT_ACL_CHECK = 2,
	MOSQ_EVT_BASIC_AUTH = 3,
	MOSQ_EVT_EXT_AUTH_START = 4,
	MOSQ_EVT_EXT_AUTH_CONTINUE = 5,
	MOSQ_EVT_CONTROL = 6,
	MOSQ_EVT_MESSAGE = 7,
	MOSQ_EVT_PSK_KEY = 8,
	MOSQ_EVT_TICK = 9,
	MOSQ_EVT_DISCONNECT = 10,
};

typedef int (*MOSQ_FUNC_generic_callback)(int, void *, void *);

extern int mosquitto_broker_publish(const char *clientid, const char *topic,
	int payloadlen, void *payload, int qos, bool retain,
	mosquitto_property *properties);
extern int mosquitto_get_retained(const char *topic,
	struct mosquitto_message **messages, size_t *count);
extern int mosquitto_callback_register(mosquitto_plugin_id_t *identifier,
	int event, MOSQ_FUNC_generic_callback cb_func, const void *event_data,
	void *userdata);
extern int mosquitto_callback_unregister(mosquitto_plugin_id_t *identifier,
	int event, MOSQ_FUNC_generic_callback cb_func, const void *event_data);

extern int goPluginEvent(int event, void *event_data, void *userdata);

static int plugin_event_thunk(int event, void *event_data, void *userdata) {
	return goPluginEvent(event, event_data, userdata);
}

static int register_plugin_event(mosquitto_plugin_id_t *id, int event, void *userdata) {
	return mosquitto_callback_register(id, event, plugin_event_thunk, NULL, userdata);
}

static int unregister_plugin_event(mosquitto_plugin_id_t *id, int event) {
	return mosquitto_callback_unregister(id, event, plugin_event_thunk, NULL);
}
*/
import "C"

import (
	"unsafe"

	mosquitto "github.com/Fritiofhedstrom/mosquitto-plugin"
)

// Layout guard: the record codec in the root package must match the
// broker's struct mosquitto_message exactly. Either line fails to compile
// when the sizes diverge.
var (
	_ [mosquitto.RawRecordSize - C.sizeof_struct_mosquitto_message]byte
	_ [C.sizeof_struct_mosquitto_message - mosquitto.RawRecordSize]byte
)

// brokerHost implements mosquitto.Host and mosquitto.Allocator over the
// broker's C ABI. It is stateless; all state lives in the broker.
type brokerHost struct{}

func (brokerHost) Alloc(n uintptr) unsafe.Pointer {
	if n == 0 {
		return nil
	}
	return C.malloc(C.size_t(n))
}

func (brokerHost) Free(p unsafe.Pointer) {
	if p != nil {
		C.free(p)
	}
}

func (brokerHost) Publish(clientID, topic []byte, payload unsafe.Pointer, payloadLen int, qos mosquitto.QoS, retain bool) int32 {
	var cid *C.char
	if clientID != nil {
		cid = (*C.char)(unsafe.Pointer(&clientID[0]))
	}
	status := C.mosquitto_broker_publish(
		cid,
		(*C.char)(unsafe.Pointer(&topic[0])),
		C.int(payloadLen),
		payload,
		C.int(qos),
		C.bool(retain),
		nil,
	)
	return int32(status)
}

func (brokerHost) GetRetained(filter []byte, slots []unsafe.Pointer, count *uint64) int32 {
	var msgs **C.struct_mosquitto_message
	if len(slots) > 0 {
		// The slice holds C heap pointers only, so handing its backing
		// array to the broker satisfies the cgo pointer rules.
		msgs = (**C.struct_mosquitto_message)(unsafe.Pointer(&slots[0]))
	}
	n := C.size_t(*count)
	status := C.mosquitto_get_retained(
		(*C.char)(unsafe.Pointer(&filter[0])),
		msgs,
		&n,
	)
	*count = uint64(n)
	return int32(status)
}

var brokerClient = mosquitto.NewClient(brokerHost{}, brokerHost{})

// Broker returns the Client bound to the loaded broker. It is valid for the
// lifetime of the plugin and safe for concurrent use from any hook.
func Broker() *mosquitto.Client {
	return brokerClient
}

func registerPluginEvents(id unsafe.Pointer, handle uintptr) int32 {
	for _, ev := range pluginEvents {
		rc := C.register_plugin_event((*C.mosquitto_plugin_id_t)(id), C.int(ev), unsafe.Pointer(handle))
		if rc != C.int(mosquitto.StatusSuccess) {
			unregisterPluginEvents(id)
			return int32(rc)
		}
	}
	return mosquitto.StatusSuccess
}

func unregisterPluginEvents(id unsafe.Pointer) {
	for _, ev := range pluginEvents {
		C.unregister_plugin_event((*C.mosquitto_plugin_id_t)(id), C.int(ev))
	}
}

var pluginEvents = []int32{
	C.MOSQ_EVT_BASIC_AUTH,
	C.MOSQ_EVT_ACL_CHECK,
	C.MOSQ_EVT_MESSAGE,
	C.MOSQ_EVT_DISCONNECT,
}
