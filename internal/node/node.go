package node

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kestrelchat/kestreld/internal/account"
	"github.com/kestrelchat/kestreld/internal/directory"
)

// Transport carries outbound replication frames to the peer link.
// Sends are fire-and-forget; the merge rules absorb loss, duplication
// and reordering, so the transport owes no delivery guarantees.
type Transport interface {
	Send(line string)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(line string)

func (f TransportFunc) Send(line string) { f(line) }

// Node owns one replica of the directory. All directory mutation
// happens on the goroutine running Run: inbound frames are queued and
// applied there, and the local mutation methods are meant to be called
// from that same goroutine. The node subscribes to its directory and
// turns every broadcast into outbound frames.
type Node struct {
	dir       *directory.Directory
	codec     *Codec
	queue     *frameQueue
	transport Transport
	clock     Clock

	bursting bool
	burst    []string
}

var _ directory.Listener = (*Node)(nil)

// NewNode creates a node over an existing directory and wires it in as
// a listener.
func NewNode(dir *directory.Directory, transport Transport, clock Clock) *Node {
	n := &Node{
		dir:       dir,
		codec:     NewCodec(dir),
		queue:     newFrameQueue(),
		transport: transport,
		clock:     clock,
	}
	dir.Subscribe(n)
	return n
}

// AccountChanged puts a full record on the link: one ACCTADD followed
// by an ACCTSET per populated field.
func (n *Node) AccountChanged(rec *account.Record) {
	for _, line := range n.codec.EncodeAccount(rec) {
		n.transport.Send(line)
	}
}

// AccountFieldChanged puts a single-field update on the link. An unset
// field encodes to nothing and nothing is sent.
func (n *Node) AccountFieldChanged(rec *account.Record, field string) {
	if line := n.codec.EncodeUpdate(rec, field); line != "" {
		n.transport.Send(line)
	}
}

// AccountRemoved puts a removal marker on the link.
func (n *Node) AccountRemoved(name string, ts int64) {
	n.transport.Send(n.codec.EncodeRemoval(name, ts))
}

// Directory returns the directory this node replicates.
func (n *Node) Directory() *directory.Directory {
	return n.dir
}

// CreateAccount registers a new account locally and broadcasts it.
func (n *Node) CreateAccount(name string) (*account.Record, error) {
	rec := n.dir.AddAccount(true, name, n.clock.Now(), "", "", 0, "", 0)
	if rec == nil {
		return nil, fmt.Errorf("account %q already exists", account.NormalizeName(name))
	}
	return rec, nil
}

// SetCredentials updates an account's credential hash and algorithm at
// the current clock tick and broadcasts the change.
func (n *Node) SetCredentials(name, hash, alg string) error {
	rec := n.dir.GetAccount(name, false)
	if rec == nil {
		return fmt.Errorf("no such account %q", account.NormalizeName(name))
	}
	if rec.SetCredentials(hash, alg, n.clock.Now()) {
		n.dir.SendUpdate(rec, FieldCredentials)
	}
	return nil
}

// SetConnectClass updates an account's connect class at the current
// clock tick and broadcasts the change.
func (n *Node) SetConnectClass(name, class string) error {
	rec := n.dir.GetAccount(name, false)
	if rec == nil {
		return fmt.Errorf("no such account %q", account.NormalizeName(name))
	}
	if rec.SetConnectClass(class, n.clock.Now()) {
		n.dir.SendUpdate(rec, FieldConnectClass)
	}
	return nil
}

// DropAccount removes an account locally and broadcasts the removal.
func (n *Node) DropAccount(name string) error {
	rec := n.dir.GetAccount(name, false)
	if rec == nil {
		return fmt.Errorf("no such account %q", account.NormalizeName(name))
	}
	n.dir.RemoveAccount(true, rec)
	return nil
}

// Deliver queues one inbound frame for the Run loop. Returns false if
// the node has shut down.
func (n *Node) Deliver(line string) bool {
	return n.queue.Enqueue(line)
}

// SendBurst transmits the full directory snapshot, bracketed by burst
// markers. Called when a new link comes up.
func (n *Node) SendBurst() {
	for _, line := range n.codec.EncodeSnapshot() {
		n.transport.Send(line)
	}
}

// Close stops accepting frames and wakes the Run loop.
func (n *Node) Close() {
	n.queue.Close()
}

// Run drains the inbound queue until the context is cancelled or the
// node is closed. Frame errors are logged and skipped: one malformed
// frame must not take the link down.
func (n *Node) Run(ctx context.Context) error {
	for {
		frame, ok := n.queue.TryDequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case _, open := <-n.queue.Wait():
				if !open && n.queue.Len() == 0 {
					return nil
				}
				continue
			}
		}
		if err := n.handle(frame); err != nil {
			slog.Error("dropping replication frame", "frame", frame, "error", err)
		}
	}
}

// handle applies one frame, buffering between burst markers so the
// whole snapshot reconciles as a unit.
func (n *Node) handle(frame string) error {
	cmd, rest, _ := strings.Cut(frame, " ")
	if cmd == cmdBurst {
		switch rest {
		case burstBegin:
			n.bursting = true
			n.burst = n.burst[:0]
			return nil
		case burstEnd:
			if !n.bursting {
				return fmt.Errorf("%s %s without %s", cmdBurst, burstEnd, burstBegin)
			}
			n.bursting = false
			return n.codec.ApplyBurst(n.burst)
		default:
			return fmt.Errorf("unknown %s marker %q", cmdBurst, rest)
		}
	}

	if n.bursting {
		n.burst = append(n.burst, frame)
		return nil
	}

	replies, err := n.codec.Apply(frame)
	for _, reply := range replies {
		n.transport.Send(reply)
	}
	return err
}
