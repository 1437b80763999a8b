// Package stream broadcasts quote batches to websocket subscribers.
//
// Hub is a router sink: every batch it receives is encoded once and queued to
// each connected client. A client that cannot keep up loses batches rather
// than slowing the dispatcher. Subscriber is the matching dialer side.
package stream
