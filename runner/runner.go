// Package runner implements the per-plugin supervisor child: it loads a
// shared library via the abi package, runs its init introspection, and
// serves framed messages on an inherited control socket until the channel
// closes.
package runner

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/griffonhq/griffond/abi"
	"github.com/griffonhq/griffond/wire"
)

// ErrNotASharedLibrary means the path argument did not end in .so.
var ErrNotASharedLibrary = errors.New("runner: not a shared library")

// Run loads pluginPath, performs init introspection, and serves framed
// messages on channel until a read error or peer closure ends the loop.
// load-time failure (bad suffix, abi.Load error) is returned to the caller,
// who is expected to exit the process non-zero; every other failure mode
// (init error, schema violation, call panic) is handled internally and
// logged, matching the Runner's "never take the host down" contract.
func Run(pluginPath string, channel io.ReadWriter, log hclog.Logger) error {
	if !strings.HasSuffix(pluginPath, ".so") {
		return ErrNotASharedLibrary
	}

	tbl, err := abi.Load(pluginPath)
	if err != nil {
		return err
	}

	return serve(pluginPath, tbl, channel, log)
}

// serve runs the event loop against an already-loaded table. It is split
// out from Run so tests can exercise the loop with a fabricated abi.Table
// instead of a real compiled .so.
func serve(pluginPath string, tbl *abi.Table, channel io.ReadWriter, log hclog.Logger) error {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	log = log.Named("runner")

	name, functions := introspect(tbl, pluginPath, log)

	conn := wire.NewConn(channel)
	handshaken := false

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			log.Info("channel closed, exiting", "err", err)
			return nil
		}

		switch v := msg.(type) {
		case wire.Hello:
			if handshaken {
				log.Warn("received a second Hello on an already-handshaken channel")
			}
			handshaken = true
			if err := conn.WriteMessage(wire.HelloOk{Name: name, Functions: functions}); err != nil {
				log.Error("failed to write HelloOk", "err", err)
				return nil
			}

		case wire.Call:
			handleCall(conn, tbl, v, log)

		case wire.Heartbeat:
			// No reply required; liveness policy is unspecified.

		default:
			log.Debug("ignoring unexpected message", "type", v)
		}
	}
}

// introspect calls the plugin's Init, validates the result, and derives the
// display name and function list. Both init errors and schema violations
// are non-fatal: the Runner falls back to the file's base name and an
// empty function list.
func introspect(tbl *abi.Table, pluginPath string, log hclog.Logger) (name string, functions []string) {
	fallbackName := filepath.Base(pluginPath)

	info, err := abi.SafeInit(tbl)
	if err != nil {
		log.Warn("plugin init failed", "err", err)
		return fallbackName, nil
	}

	if err := abi.ValidateInfo(info); err != nil {
		log.Warn("plugin init metadata failed validation", "err", err)
		return fallbackName, nil
	}

	name = info["name"]
	if name == "" {
		name = fallbackName
	}
	functions = parseFunctionList(info["function"])
	return name, functions
}

// parseFunctionList accepts either '/' or ',' as the separator the source
// historically emitted, trimming each entry and dropping empties.
func parseFunctionList(raw string) []string {
	if raw == "" {
		return nil
	}
	raw = strings.ReplaceAll(raw, ",", "/")
	pieces := strings.Split(raw, "/")
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// handleCall renders the wire form of a Call, invokes handle_message under
// panic protection, and replies with Result or Error.
func handleCall(conn *wire.Conn, tbl *abi.Table, call wire.Call, log hclog.Logger) {
	input := wire.CallWireForm(call.FnName, call.Args)

	output, err := abi.SafeHandleMessage(tbl, input)
	if err != nil {
		log.Error("plugin handler failed", "fn", call.FnName, "err", err)
		if werr := conn.WriteMessage(wire.Error{RequestID: call.RequestID, Code: 1, Message: err.Error()}); werr != nil {
			log.Error("failed to write Error reply", "err", werr)
		}
		return
	}

	if err := conn.WriteMessage(wire.Result{RequestID: call.RequestID, Ok: true, Output: output}); err != nil {
		log.Error("failed to write Result reply", "err", err)
	}
}
