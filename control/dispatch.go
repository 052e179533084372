// Package control implements the six-verb text command language shared by
// every front-end: info, refresh, restart, kill, call, exit/quit.
package control

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/griffonhq/griffond/manager"
)

// callTimeout bounds the synchronous call verb's wait for a reply.
const callTimeout = 5 * time.Second

// Dispatch interprets one command line against mgr and returns the output
// text a caller should display, plus whether the line was exit/quit. It
// mutates no state itself beyond whatever the underlying Manager operation
// does, so both a REPL driver and a GUI can reuse it without re-parsing.
// The exit signal is returned out-of-band rather than as a sentinel output
// string, so a call verb whose plugin output happens to read "exit" can
// never be mistaken for the exit/quit command.
func Dispatch(mgr *manager.Manager, line string) (output string, exit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}

	parts := strings.SplitN(line, " ", 3)
	cmd := parts[0]

	switch cmd {
	case "info":
		return formatInfo(mgr), false

	case "refresh":
		if err := mgr.ScanDir(); err != nil {
			return fmt.Sprintf("(ERROR) refresh failed: %v", err), false
		}
		return "refreshed", false

	case "exit", "quit":
		return "", true

	case "restart":
		if len(parts) < 2 {
			return "(INPUT ERROR) usage: restart <pid>", false
		}
		pid, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Sprintf("(INPUT ERROR) invalid pid: %q", parts[1]), false
		}
		if err := mgr.RestartPlugin(pid); err != nil {
			return fmt.Sprintf("(ERROR) restart failed: %v", err), false
		}
		return fmt.Sprintf("plugin %d restarted", pid), false

	case "kill":
		if len(parts) < 2 {
			return "(INPUT ERROR) usage: kill <pid>", false
		}
		pid, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Sprintf("(INPUT ERROR) invalid pid: %q", parts[1]), false
		}
		if err := mgr.KillPlugin(pid); err != nil {
			return fmt.Sprintf("(ERROR) kill failed: %v", err), false
		}
		return fmt.Sprintf("plugin %d killed", pid), false

	case "call":
		return dispatchCall(mgr, parts), false

	default:
		return fmt.Sprintf("unknown command: %s", cmd), false
	}
}

func formatInfo(mgr *manager.Manager) string {
	plugins := mgr.ListPlugins()
	if len(plugins) == 0 {
		return "no plugins running"
	}
	var b strings.Builder
	for _, p := range plugins {
		fmt.Fprintf(&b, "- PID: %d | NAME: %s | PATH: %s | FUNCTIONS: %v\n", p.PID, p.Name, p.Path, p.Functions)
	}
	return strings.TrimRight(b.String(), "\n")
}

func dispatchCall(mgr *manager.Manager, parts []string) string {
	if len(parts) < 3 {
		return "(INPUT ERROR) usage: call <pid> <fn_name> <arg1|arg2|...>"
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Sprintf("(INPUT ERROR) invalid pid: %q", parts[1])
	}

	rest := strings.SplitN(parts[2], " ", 2)
	fnName := rest[0]
	if fnName == "" {
		return "(INPUT ERROR) usage: call <pid> <fn_name> <arg1|arg2|...>"
	}

	var args []string
	if len(rest) > 1 {
		args = splitArgs(rest[1])
	}

	requestID, err := mgr.SendCall(pid, fnName, args)
	if err != nil {
		return fmt.Sprintf("(ERROR) call failed: %v", err)
	}

	output, err := mgr.AwaitResponse(requestID, callTimeout)
	if err != nil {
		return fmt.Sprintf("(ERROR) call %d failed: %v", requestID, err)
	}
	return output
}

// splitArgs splits a call verb's argument string on '|', trims whitespace
// around each piece, and drops empty pieces.
func splitArgs(raw string) []string {
	pieces := strings.Split(raw, "|")
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
