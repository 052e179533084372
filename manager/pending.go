package manager

import (
	"sync"
	"time"
)

// reply is whatever a plugin's reader goroutine delivers for a request id:
// either a successful/failed Result or a transport-level Error.
type reply struct {
	ok      bool
	output  string
	isError bool
	code    uint32
	message string
}

// pendingReplies is the in-memory map from outstanding request id to a
// buffered channel the owning reader goroutine fulfills exactly once.
// register is called by SendCall before the Call frame is written, so the
// slot already exists by the time any reply can arrive; AwaitResponse looks
// the same channel back up by request id rather than creating a new one, so
// a reply delivered between SendCall and AwaitResponse is never lost. A
// reply that arrives after its waiter has timed out is dropped.
type pendingReplies struct {
	mu      sync.Mutex
	waiters map[uint32]chan reply
}

func newPendingReplies() *pendingReplies {
	return &pendingReplies{waiters: make(map[uint32]chan reply)}
}

// register opens a slot for requestID.
func (p *pendingReplies) register(requestID uint32) {
	p.mu.Lock()
	p.waiters[requestID] = make(chan reply, 1)
	p.mu.Unlock()
}

// forget removes a slot without delivering anything, used once a wait
// times out so a later reply is dropped by deliver instead of leaking.
func (p *pendingReplies) forget(requestID uint32) {
	p.mu.Lock()
	delete(p.waiters, requestID)
	p.mu.Unlock()
}

// deliver hands r to the waiter for requestID, if one is still registered.
// A reply for an unknown or already-forgotten request id is dropped.
func (p *pendingReplies) deliver(requestID uint32, r reply) (delivered bool) {
	p.mu.Lock()
	ch, ok := p.waiters[requestID]
	p.mu.Unlock()

	if !ok {
		return false
	}
	select {
	case ch <- r: // buffered, never blocks the reader goroutine
		return true
	default: // a reply for this id is already queued; drop the duplicate
		return false
	}
}

// wait blocks until a reply for requestID arrives or timeout elapses. The
// slot must already exist (via register); wait always removes it before
// returning, successfully or not.
func (p *pendingReplies) wait(requestID uint32, timeout time.Duration) (reply, error) {
	p.mu.Lock()
	ch, ok := p.waiters[requestID]
	p.mu.Unlock()
	if !ok {
		return reply{}, ErrTimeout
	}

	select {
	case r := <-ch:
		p.forget(requestID)
		return r, nil
	case <-time.After(timeout):
		p.forget(requestID)
		return reply{}, ErrTimeout
	}
}
