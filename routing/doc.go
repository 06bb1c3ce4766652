// Package routing contains the message router: a shared table of named
// delivery targets, synchronous and asynchronous delivery with bounded retry
// and escalating backoff, and a bounded in-memory history of everything the
// router saw.
//
// Delivery failures are data, not errors: the router answers an undeliverable
// message with an error-kind envelope addressed back to the sender, so
// automated callers can branch on the result without error plumbing at every
// call site. The backoff between attempts grows linearly with the attempt
// number (base delay times attempt index).
package routing
