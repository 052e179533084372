// Package manager implements the Plugin Manager: directory scanning, runner
// spawning, the Hello/HelloOk handshake, request routing, and plugin
// lifecycle (kill, restart, eviction on disappearance).
package manager

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/griffonhq/griffond/registry"
	"github.com/griffonhq/griffond/wire"
)

// pluginSuffix is the only file extension scan_dir recognises.
const pluginSuffix = ".so"

// handshakeTimeout bounds the synchronous Hello/HelloOk exchange performed
// right after a runner is spawned.
const handshakeTimeout = 5 * time.Second

// syncConn wraps a net.Conn so concurrent SendCall and reader-goroutine
// traffic on the same socket never interleaves a partial frame write.
type syncConn struct {
	net.Conn
	writeMu sync.Mutex
}

func (c *syncConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.Write(p)
}

// Manager owns the registry, the request-id allocator, the pending-reply
// map, and the configured plugins directory and runner binary path.
type Manager struct {
	pluginsDir string
	runnerPath string
	reg        *registry.Registry
	ids        *requestIDAllocator
	pending    *pendingReplies
	log        hclog.Logger

	// spawn launches a runner and returns the parent-side channel plus
	// the child handle. It defaults to spawnRunner; tests substitute a
	// double so the registry/handshake/routing logic can be exercised
	// without a real runner binary or shared library.
	spawn func(runnerPath, pluginPath string) (net.Conn, *os.Process, error)
}

// New returns a Manager configured to scan pluginsDir and spawn runnerPath
// for each shared library it finds there.
func New(pluginsDir, runnerPath string, log hclog.Logger) *Manager {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Manager{
		pluginsDir: pluginsDir,
		runnerPath: runnerPath,
		reg:        registry.New(),
		ids:        &requestIDAllocator{},
		pending:    newPendingReplies(),
		log:        log.Named("manager"),
		spawn:      spawnRunner,
	}
}

// ListPlugins returns a snapshot of all registered descriptors.
func (m *Manager) ListPlugins() []*registry.Descriptor {
	return m.reg.Snapshot()
}

// ScanDir enumerates the plugins directory non-recursively. Every shared
// library without a live descriptor is spawned and handshaken; every
// descriptor whose path is no longer present is evicted. Additions run
// before removals, so a renamed file is treated as remove-then-add.
func (m *Manager) ScanDir() error {
	entries, err := os.ReadDir(m.pluginsDir)
	if err != nil {
		return fmt.Errorf("manager: read plugins dir %s: %w", m.pluginsDir, err)
	}

	current := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		path := filepath.Join(m.pluginsDir, entry.Name())

		info, err := os.Stat(path) // follows symlinks
		if err != nil || info.IsDir() || !strings.HasSuffix(entry.Name(), pluginSuffix) {
			continue
		}
		current[path] = struct{}{}

		if _, exists := m.reg.ByPath(path); exists {
			continue
		}
		m.checkPlugin(path)
	}

	for path := range m.reg.Paths() {
		if _, ok := current[path]; !ok {
			if d, exists := m.reg.ByPath(path); exists {
				m.evict(d)
			}
		}
	}
	return nil
}

// checkPlugin spawns a runner for path and performs the synchronous
// handshake. Spawn and handshake failures are logged and leave no trace in
// the registry.
func (m *Manager) checkPlugin(path string) {
	conn, proc, err := m.spawn(m.runnerPath, path)
	if err != nil {
		m.log.Error("failed to launch runner", "path", path, "err", err)
		return
	}

	channel := &syncConn{Conn: conn}
	d := &registry.Descriptor{
		PID:       proc.Pid,
		SessionID: registry.NewSessionID(),
		Name:      filepath.Base(path),
		Path:      path,
		Channel:   channel,
		Process:   proc,
	}

	if err := m.reg.Add(d); err != nil {
		m.log.Error("failed to register plugin", "path", path, "err", err)
		channel.Close()
		proc.Kill()
		return
	}

	m.log.Info("plugin started", "name", d.Name, "pid", d.PID, "session", d.SessionID, "path", path)

	name, functions, err := m.handshake(channel)
	if err != nil {
		m.log.Error("handshake failed", "pid", d.PID, "session", d.SessionID, "path", path, "err", err)
		proc.Kill()
		m.reg.Remove(d.PID)
		return
	}

	if err := m.reg.MarkHandshaken(d.PID, name, functions); err != nil {
		m.log.Error("plugin vanished mid-handshake", "pid", d.PID, "session", d.SessionID, "err", err)
		return
	}

	m.log.Info("handshake ok", "name", name, "pid", d.PID, "session", d.SessionID, "functions", functions)
	go m.readLoop(d.PID, channel)
}

// handshake sends Hello and synchronously waits for HelloOk. Any other
// frame, or a read/decode error, is ErrHandshakeFailed.
func (m *Manager) handshake(channel net.Conn) (name string, functions []string, err error) {
	conn := wire.NewConn(channel)
	if err := conn.WriteMessage(wire.Hello{}); err != nil {
		return "", nil, fmt.Errorf("%w: send Hello: %v", ErrHandshakeFailed, err)
	}

	channel.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer channel.SetReadDeadline(time.Time{})

	msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	ok, isHelloOk := msg.(wire.HelloOk)
	if !isHelloOk {
		return "", nil, fmt.Errorf("%w: expected HelloOk, got %T", ErrHandshakeFailed, msg)
	}
	return ok.Name, ok.Functions, nil
}

// evict kills d's child and removes it from the registry. The reader
// goroutine, if any, observes EOF on the now-closed channel and exits on
// its own; eviction does not wait for it.
func (m *Manager) evict(d *registry.Descriptor) {
	m.log.Info("plugin removed", "name", d.Name, "pid", d.PID, "session", d.SessionID)
	if d.Process != nil {
		if err := d.Process.Kill(); err != nil {
			m.log.Error("failed to kill plugin", "pid", d.PID, "session", d.SessionID, "err", err)
		}
	}
	m.reg.Remove(d.PID)
}

// RestartPlugin kills the plugin at pid and relaunches it from the same
// path. The new descriptor carries a different pid; callers must not reuse
// the old one.
func (m *Manager) RestartPlugin(pid int) error {
	d, err := m.reg.Get(pid)
	if err != nil {
		return fmt.Errorf("manager: restart pid %d: %w", pid, ErrUnknownPID)
	}
	path := d.Path
	m.evict(d)
	m.checkPlugin(path)
	return nil
}

// KillPlugin signals the child and removes its descriptor. A second call
// with the same pid returns ErrUnknownPID.
func (m *Manager) KillPlugin(pid int) error {
	d, err := m.reg.Get(pid)
	if err != nil {
		return ErrUnknownPID
	}
	m.evict(d)
	return nil
}

// SendCall allocates a fresh request id, builds a Call message and writes
// it to pid's channel without waiting for a reply. An oversize call is
// rejected before a request id is allocated, so it never consumes one.
func (m *Manager) SendCall(pid int, fnName string, args []string) (uint32, error) {
	d, err := m.reg.Get(pid)
	if err != nil {
		return 0, ErrUnknownPID
	}

	size, err := wire.CallPayloadSize(fnName, args)
	if err != nil {
		return 0, fmt.Errorf("manager: send call: %w", err)
	}
	if size > wire.MaxPayload {
		return 0, fmt.Errorf("manager: send call: %w", wire.ErrPayloadTooLarge)
	}

	requestID := m.ids.alloc()
	m.pending.register(requestID) // before the write so a fast reply can never race ahead of it

	conn := wire.NewConn(d.Channel)
	if err := conn.WriteMessage(wire.Call{RequestID: requestID, FnName: fnName, Args: args}); err != nil {
		m.pending.forget(requestID)
		return 0, fmt.Errorf("manager: send call: %w", err)
	}
	return requestID, nil
}

// AwaitResponse blocks until a reply for requestID is queued by the reader
// goroutine or timeout elapses. ErrCallFailed wraps both a plugin-reported
// Result{ok=false} and a transport-level Error.
func (m *Manager) AwaitResponse(requestID uint32, timeout time.Duration) (output string, err error) {
	r, err := m.pending.wait(requestID, timeout)
	if err != nil {
		return "", err
	}
	if r.isError {
		return "", fmt.Errorf("%w: code=%d: %s", ErrCallFailed, r.code, r.message)
	}
	if !r.ok {
		return r.output, fmt.Errorf("%w: %s", ErrCallFailed, r.output)
	}
	return r.output, nil
}

// Close kills every registered plugin, aggregating per-plugin kill
// failures instead of stopping at the first one.
func (m *Manager) Close() error {
	var result *multierror.Error
	for _, d := range m.reg.Snapshot() {
		if d.Process != nil {
			if err := d.Process.Kill(); err != nil {
				result = multierror.Append(result, fmt.Errorf("pid %d: %w", d.PID, err))
			}
		}
		m.reg.Remove(d.PID)
	}
	return result.ErrorOrNil()
}
