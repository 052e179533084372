// Command runner is the per-plugin supervisor child. It is never invoked
// directly by a user: the Plugin Manager spawns it as
// "runner <plugin-path>" with the control socket inherited on file
// descriptor 3.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/griffonhq/griffond/runner"
)

// controlFD is the file descriptor the Manager guarantees the child half
// of the socket pair is inherited on.
const controlFD = 3

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "runner: usage: runner <plugin-path>")
		return 1
	}
	pluginPath := os.Args[1]

	file := os.NewFile(uintptr(controlFD), "griffon-control-socket")
	if file == nil {
		fmt.Fprintln(os.Stderr, "runner: file descriptor 3 is not open")
		return 1
	}

	conn, err := net.FileConn(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runner: adopt control socket: %v\n", err)
		return 1
	}
	defer conn.Close()

	log := hclog.New(&hclog.LoggerOptions{
		Name:   "runner",
		Level:  hclog.Info,
		Output: os.Stderr,
	})

	if err := runner.Run(pluginPath, conn, log); err != nil {
		fmt.Fprintf(os.Stderr, "runner: %v\n", err)
		return 1
	}
	return 0
}
