package main

import (
	"context"
	"os"

	"dictlookup/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	return cli.NewRootCmd(version).ExecuteContext(context.Background())
}
