package manager

import "sync"

// requestIDAllocator is a per-Manager monotonic counter over the 32-bit
// space. It wraps to 1, never 0, so that 0 stays reserved for unsolicited
// messages (Hello, Heartbeat).
type requestIDAllocator struct {
	mu   sync.Mutex
	next uint32
}

func (a *requestIDAllocator) alloc() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.next++
	if a.next == 0 {
		a.next = 1
	}
	return a.next
}
