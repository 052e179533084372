// Package registry holds the in-memory table of running plugins: the
// mapping from process identifier to descriptor, and the reverse mapping
// from filesystem path to descriptor, that the Manager mutates on spawn,
// handshake, kill and restart.
package registry

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownPID is returned when a lookup or removal names a process
// identifier the registry has no descriptor for.
var ErrUnknownPID = errors.New("registry: unknown pid")

// ErrPathInUse is returned by Add when a descriptor for the same path is
// already registered. Add does not check whether that descriptor's child
// is still running.
var ErrPathInUse = errors.New("registry: path already has a live plugin")

// Descriptor is the in-memory record of one running plugin: the process
// identifier assigned by the operating system, its display name (initially
// the file name, overwritten by the handshake), the shared library's
// filesystem path, its exported function names, the control channel used to
// exchange frames, and the child process handle used to signal or reap it.
type Descriptor struct {
	PID       int
	SessionID string
	Name      string
	Path      string
	Functions []string
	Channel   io.ReadWriteCloser
	Process   *os.Process

	// Handshaken is true once HelloOk has been received on Channel.
	Handshaken bool
}

// NewSessionID returns a fresh identifier for one spawned-plugin lifetime.
// PIDs are reused by the operating system once a process exits, so log
// lines correlated only by PID can conflate two unrelated plugin instances
// across a restart; SessionID gives every spawn a value that never repeats.
func NewSessionID() string {
	return uuid.NewString()
}

// Registry is the mapping from pid to Descriptor plus the reverse mapping
// from path to Descriptor. All methods are safe for concurrent use: the
// control thread and per-plugin reader goroutines share one Registry.
type Registry struct {
	mu     sync.Mutex
	byPID  map[int]*Descriptor
	byPath map[string]*Descriptor
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byPID:  make(map[int]*Descriptor),
		byPath: make(map[string]*Descriptor),
	}
}

// Add registers d. It fails with ErrPathInUse if a descriptor for the same
// path is already present, preserving the invariant that a path appears at
// most once while its child is alive.
func (r *Registry) Add(d *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byPath[d.Path]; exists {
		return ErrPathInUse
	}
	r.byPID[d.PID] = d
	r.byPath[d.Path] = d
	return nil
}

// Get returns the descriptor for pid, or ErrUnknownPID if none exists.
func (r *Registry) Get(pid int) (*Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byPID[pid]
	if !ok {
		return nil, ErrUnknownPID
	}
	return d, nil
}

// ByPath returns the descriptor registered for path, if any.
func (r *Registry) ByPath(path string) (*Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byPath[path]
	return d, ok
}

// MarkHandshaken overwrites a descriptor's name and function list after a
// successful handshake, and flips its Handshaken flag.
func (r *Registry) MarkHandshaken(pid int, name string, functions []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byPID[pid]
	if !ok {
		return ErrUnknownPID
	}
	d.Name = name
	d.Functions = functions
	d.Handshaken = true
	return nil
}

// Remove closes d's channel and drops it from both maps. It does not signal
// or wait for the child process: callers that need the child killed do so
// before or after calling Remove, per the cooperative-removal contract.
func (r *Registry) Remove(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byPID[pid]
	if !ok {
		return ErrUnknownPID
	}
	delete(r.byPID, pid)
	delete(r.byPath, d.Path)
	if d.Channel != nil {
		d.Channel.Close()
	}
	return nil
}

// Snapshot returns a copy of all registered descriptors, safe to range over
// without holding the registry's lock.
func (r *Registry) Snapshot() []*Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Descriptor, 0, len(r.byPID))
	for _, d := range r.byPID {
		out = append(out, d)
	}
	return out
}

// Paths returns the set of filesystem paths currently registered.
func (r *Registry) Paths() map[string]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]struct{}, len(r.byPath))
	for p := range r.byPath {
		out[p] = struct{}{}
	}
	return out
}
