// Package pool provides the bounded worker pool and future handle used by
// generated async wrappers.
//
// A foreign call is opaque and non-preemptible, so cancellation here only
// discards interest in the result: the worker finishes the in-flight call
// either way. No completion order is guaranteed across submissions beyond
// the pool's own scheduling.
package pool
