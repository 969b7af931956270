// Command mcrelay runs the proxy as a standalone process: load a TOML
// config file, bind the listener, and serve until the process is killed.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/novastosha/rustyproxy/proxy"
)

const relayVersion = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "-v", "--version":
			fmt.Printf("mcrelay v%s\n", relayVersion)
			return
		}
	}

	configPath := "mcrelay.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "mcrelay: building logger:", err)
		os.Exit(1)
	}
	defer log.Sync()
	sugar := log.Sugar()

	cfg, err := proxy.LoadConfig(configPath)
	if err != nil {
		sugar.Fatalw("loading config", "path", configPath, "error", err)
	}

	color.New(color.FgCyan, color.Bold).Printf("mcrelay %s\n", relayVersion)
	color.New(color.FgHiBlack).Printf("  binding %s, %d configured server(s)\n", cfg.BindAddr(), len(cfg.Servers))

	inst := proxy.NewInstance(cfg, nil, log)

	if err := proxy.Start(inst); err != nil {
		sugar.Fatalw("proxy stopped", "error", err)
	}
}
