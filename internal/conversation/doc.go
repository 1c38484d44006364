// Package conversation orchestrates turns between rooms and model backends.
//
// Each room is a small state machine: idle or busy. Converse flips the room
// busy with an atomic conditional update in the store, runs exactly one
// request against the room's backend, and releases the flag on every exit
// path. Concurrent turns against the same room lose the acquisition and get
// ErrBusy with no side effects.
package conversation
