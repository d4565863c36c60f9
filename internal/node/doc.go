// Package node hosts the account directory on a single-writer event
// loop and speaks the replication line protocol at its boundary.
//
// All directory mutation happens on the one goroutine running Run().
// Inbound frames from peer nodes are enqueued from any goroutine and
// drained in FIFO order; outbound frames are produced by subscribing to
// the directory's change notifications and handed to the Transport
// fire-and-forget. The node never awaits acknowledgement - the
// last-writer-wins merge makes convergence independent of delivery
// order, so transport policy (retries, backoff, ordering) lives entirely
// outside this package.
//
// Remote updates are applied with broadcasting suppressed, so a received
// frame is never echoed back out as a fresh notification.
package node
