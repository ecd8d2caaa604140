package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-learn-admin/admin"
	"github.com/jrsteele09/go-learn-admin/internal/config"
	"github.com/jrsteele09/go-learn-admin/internal/logging"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg)

	registry := NewCommandRegistry()
	registerCommands(registry, cfg)

	if len(os.Args) < 2 {
		displayAppname(cfg.GetAppName())
	}
	if err := registry.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", admin.UserMessage(err))
		os.Exit(1)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
