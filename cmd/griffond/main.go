// Command griffond is the plugin host daemon: it scans a plugins
// directory, spawns and handshakes a runner per shared library, and serves
// the info/refresh/restart/kill/call/exit command language on stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/griffonhq/griffond/control"
	"github.com/griffonhq/griffond/internal/config"
	"github.com/griffonhq/griffond/manager"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	pluginsDir := flag.String("plugins-dir", "", "override the configured plugins directory")
	runnerPath := flag.String("runner-path", "", "override the configured runner binary path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "griffond: %v\n", err)
		return 1
	}
	if *pluginsDir != "" {
		cfg.PluginsDir = *pluginsDir
	}
	if *runnerPath != "" {
		cfg.RunnerPath = *runnerPath
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "griffond",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	mgr := manager.New(cfg.PluginsDir, cfg.RunnerPath, log)
	defer mgr.Close()

	if err := mgr.ScanDir(); err != nil {
		log.Error("initial scan failed", "err", err)
	}

	repl(mgr, log)
	return 0
}

func repl(mgr *manager.Manager, log hclog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("$> ")
		if !scanner.Scan() {
			return
		}

		output, exit := control.Dispatch(mgr, scanner.Text())
		if output != "" {
			fmt.Println(output)
		}
		if exit {
			return
		}
	}
}
