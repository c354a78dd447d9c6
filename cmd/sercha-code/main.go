// Command sercha-code analyses a workspace with a remote code analysis service.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/sercha-code/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", domain.UserMessage(err))
		os.Exit(1)
	}
}
