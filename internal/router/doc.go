// Package router moves quote batches from pollers to sinks.
//
// Pollers Send into a Buffer, which never blocks: unbounded buffers grow,
// bounded ones apply their Overflow policy. A single Dispatcher goroutine
// drains the buffer and calls every registered Sink in order.
package router
