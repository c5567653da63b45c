//go:build cgo

package capi

/*
#include <stdlib.h>
#include <stdint.h>
#include <stdbool.h>

typedef struct mosquitto mosquitto;
typedef struct mosquitto_plugin_id_t mosquitto_plugin_id_t;
typedef struct mosquitto_property mosquitto_property;

struct mosquitto_opt {
	char *key;
	char *value;
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

struct mosquitto_evt_basic_auth {
	void *future;
	mosquitto *client;
	char *username;
	char *password;
	void *future2[4];
};

struct mosquitto_evt_acl_check {
	void *future;
	mosquitto *client;
	const char *topic;
	const void *payload;
	mosquitto_property *properties;
	int access;
	uint32_t payloadlen;
	uint8_t qos;
	bool retain;
	void *future2[4];
};

struct mosquitto_evt_message {
	void *future;
	mosquitto *client;
	char *topic;
	void *payload;
	mosquitto_property *properties;
	uint32_t payloadlen;
	uint8_t qos;
	bool retain;
	void *future2[4];
};

struct mosquitto_evt_disconnect {
	void *future;
	mosquitto *client;
	int reason;
	void *future2[4];
};

extern const char *mosquitto_client_id(const mosquitto *client);
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"

	mosquitto "github.com/Fritiofhedstrom/mosquitto-plugin"
)

// pluginABIVersion is the broker plugin interface version these entry
// points implement.
const pluginABIVersion = 5

// Registry of live plugin registrations. The broker hands the handle back
// as userdata on every event, so hooks never touch shared state beyond this
// map lookup.
var (
	registryMu sync.RWMutex
	newPlugin  func() mosquitto.Plugin
	instances  = make(map[uintptr]*instance)
	nextHandle uintptr = 1
)

type instance struct {
	plugin mosquitto.Plugin
	id     unsafe.Pointer // broker-owned mosquitto_plugin_id_t
}

// SetPlugin registers the constructor the broker's init entry point uses to
// create the plugin instance. A plugin binary calls this from an init
// function, before the broker loads the library's entry points.
func SetPlugin(f func() mosquitto.Plugin) {
	registryMu.Lock()
	defer registryMu.Unlock()
	newPlugin = f
}

func lookupInstance(handle uintptr) mosquitto.Plugin {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if inst, ok := instances[handle]; ok {
		return inst.plugin
	}
	return nil
}

//export mosquitto_plugin_version
func mosquitto_plugin_version(supportedCount C.int, supported *C.int) C.int {
	if supported != nil {
		for _, v := range unsafe.Slice(supported, int(supportedCount)) {
			if v == pluginABIVersion {
				return pluginABIVersion
			}
		}
	}
	return -1
}

//export mosquitto_plugin_init
func mosquitto_plugin_init(identifier *C.mosquitto_plugin_id_t, userData *unsafe.Pointer, opts *C.struct_mosquitto_opt, optCount C.int) C.int {
	registryMu.Lock()
	construct := newPlugin
	registryMu.Unlock()
	if construct == nil {
		logrus.WithField("component", "capi").Error("No plugin constructor registered, call capi.SetPlugin from an init function")
		return C.int(mosquitto.StatusUnknown)
	}

	plugin := construct()
	if err := plugin.Init(optionsFromC(opts, optCount)); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "capi",
			"error":     err.Error(),
		}).Error("Plugin initialization failed")
		return C.int(mosquitto.StatusOf(err))
	}

	registryMu.Lock()
	handle := nextHandle
	nextHandle++
	instances[handle] = &instance{plugin: plugin, id: unsafe.Pointer(identifier)}
	registryMu.Unlock()

	if rc := registerPluginEvents(unsafe.Pointer(identifier), handle); rc != mosquitto.StatusSuccess {
		registryMu.Lock()
		delete(instances, handle)
		registryMu.Unlock()
		return C.int(rc)
	}

	*userData = unsafe.Pointer(handle)
	return C.int(mosquitto.StatusSuccess)
}

//export mosquitto_plugin_cleanup
func mosquitto_plugin_cleanup(userData unsafe.Pointer, opts *C.struct_mosquitto_opt, optCount C.int) C.int {
	if userData == nil {
		return C.int(mosquitto.StatusSuccess)
	}
	handle := uintptr(userData)

	registryMu.Lock()
	inst := instances[handle]
	delete(instances, handle)
	registryMu.Unlock()

	if inst != nil {
		unregisterPluginEvents(inst.id)
	}
	return C.int(mosquitto.StatusSuccess)
}

//export goPluginEvent
func goPluginEvent(event C.int, eventData, userData unsafe.Pointer) C.int {
	plugin := lookupInstance(uintptr(userData))
	if plugin == nil || eventData == nil {
		return C.int(mosquitto.StatusUnknown)
	}

	switch event {
	case C.MOSQ_EVT_BASIC_AUTH:
		ev := (*C.struct_mosquitto_evt_basic_auth)(eventData)
		err := plugin.CheckCredentials(clientIDOf(ev.client), goStr(ev.username), goStr(ev.password))
		return C.int(mosquitto.StatusOf(err))

	case C.MOSQ_EVT_ACL_CHECK:
		ev := (*C.struct_mosquitto_evt_acl_check)(eventData)
		err := plugin.CheckACL(clientIDOf(ev.client), mosquitto.AccessLevel(ev.access), mosquitto.Message{
			Topic:   goStr(ev.topic),
			Payload: goBytes(unsafe.Pointer(ev.payload), int32(ev.payloadlen)),
			QoS:     mosquitto.QoS(ev.qos),
			Retain:  bool(ev.retain),
		})
		return C.int(mosquitto.StatusOf(err))

	case C.MOSQ_EVT_MESSAGE:
		ev := (*C.struct_mosquitto_evt_message)(eventData)
		plugin.OnMessage(clientIDOf(ev.client), mosquitto.Message{
			Topic:   goStr(ev.topic),
			Payload: goBytes(ev.payload, int32(ev.payloadlen)),
			QoS:     mosquitto.QoS(ev.qos),
			Retain:  bool(ev.retain),
		})
		return C.int(mosquitto.StatusSuccess)

	case C.MOSQ_EVT_DISCONNECT:
		ev := (*C.struct_mosquitto_evt_disconnect)(eventData)
		plugin.OnDisconnect(clientIDOf(ev.client), int32(ev.reason))
		return C.int(mosquitto.StatusSuccess)

	default:
		// Events this package never registers for are acknowledged and
		// ignored.
		return C.int(mosquitto.StatusSuccess)
	}
}

// optionsFromC copies the broker's option array into an owned Options map.
func optionsFromC(opts *C.struct_mosquitto_opt, count C.int) mosquitto.Options {
	options := make(mosquitto.Options, int(count))
	if opts == nil || count <= 0 {
		return options
	}
	for _, opt := range unsafe.Slice(opts, int(count)) {
		if opt.key == nil {
			continue
		}
		options[C.GoString(opt.key)] = goStr(opt.value)
	}
	return options
}

func clientIDOf(client *C.mosquitto) string {
	if client == nil {
		return ""
	}
	return goStr(C.mosquitto_client_id(client))
}

func goStr(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

func goBytes(p unsafe.Pointer, n int32) []byte {
	if p == nil || n <= 0 {
		return nil
	}
	return C.GoBytes(p, C.int(n))
}
