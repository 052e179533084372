package manager

import (
	"io"
	"net"

	"github.com/griffonhq/griffond/wire"
)

// readLoop decodes messages from a handshaken plugin's channel until a
// read error or peer closure, dispatching Result/Error into the pending
// reply map and logging everything else. It is the only goroutine that
// ever reads channel; SendCall only ever writes to it.
func (m *Manager) readLoop(pid int, channel net.Conn) {
	conn := wire.NewConn(channel)
	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			if err != io.EOF {
				m.log.Info("plugin channel closed", "pid", pid, "err", err)
			} else {
				m.log.Info("plugin channel closed", "pid", pid)
			}
			return
		}

		switch v := msg.(type) {
		case wire.Result:
			m.log.Debug("result received", "pid", pid, "request_id", v.RequestID, "ok", v.Ok)
			m.pending.deliver(v.RequestID, reply{ok: v.Ok, output: v.Output})

		case wire.Error:
			m.log.Debug("error received", "pid", pid, "request_id", v.RequestID, "code", v.Code)
			m.pending.deliver(v.RequestID, reply{isError: true, code: v.Code, message: v.Message})

		case wire.Heartbeat:
			// Reserved for future liveness tracking; no eviction policy
			// is defined for heartbeat absence.
			m.log.Debug("heartbeat", "pid", pid)

		default:
			m.log.Debug("unexpected message", "pid", pid, "type", v)
		}
	}
}
