// Package capi binds the mosquitto package to the broker's C plugin ABI.
//
// # Overview
//
// The capi package has two halves. The broker-facing half implements
// mosquitto.Host and mosquitto.Allocator over the real broker calls
// (mosquitto_broker_publish, mosquitto_get_retained) and the C heap, so
// payload buffers handed to the broker come from the same allocator family
// its free() uses. The plugin-facing half exports the version 5 plugin entry
// points (mosquitto_plugin_version, mosquitto_plugin_init,
// mosquitto_plugin_cleanup) and routes broker events to a registered
// mosquitto.Plugin.
//
// # Build Instructions
//
// A plugin links this package into a C shared library:
//
//	go build -buildmode=c-shared -o my_plugin.so ./examples/acl/
//
// The broker loads the library through its plugin option:
//
//	plugin /path/to/my_plugin.so
//	auth_opt_topic sensors/door
//
// # Usage
//
// A plugin registers a constructor before the broker initializes it, then
// talks back to the broker through Broker():
//
//	func init() {
//	    capi.SetPlugin(func() mosquitto.Plugin { return &myPlugin{} })
//	}
//
//	func main() {} // required for c-shared build mode
//
// mosquitto_get_retained is not part of the stock broker ABI; brokers built
// without the retained-query patch leave the symbol unresolved and plugins
// using Client.GetRetained will not load against them.
package capi
