// Package mosquitto lets Go plugin logic call into the Mosquitto broker's
// C plugin ABI through safe, owned domain types.
//
// The broker manages its own heap, exchanges raw pointers and fixed-layout
// structs, and reports outcomes as integer status codes. This package keeps
// all of that at the boundary: it marshals publish calls into host-compatible
// buffers with explicit heap-ownership transfer, drives the growable-buffer
// protocol for retained-message queries, reclaims host-populated records into
// owned values, and translates status codes into a structured error taxonomy.
//
// Example:
//
//	client := mosquitto.NewClient(host, alloc)
//
//	err := client.PublishBroadcast("alerts", []byte("hello"), mosquitto.AtMostOnce, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msgs, err := client.GetRetained("sensors/#")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range msgs {
//	    fmt.Printf("%s: %x\n", msg.Topic, msg.Payload)
//	}
//
// The broker-facing Host and Allocator implementations live in the capi
// package; everything in this package is pure Go and safe to exercise with
// test doubles.
package mosquitto
