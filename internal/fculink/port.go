package fculink

import "io"

// Porter is the minimal interface the link needs from a port. The
// abstraction exists so the mux can be tested without flight-controller
// hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}
