package main

import (
	"os"

	"github.com/notewind/syncagent/cmd/cli"

	// Register the storage providers
	_ "github.com/notewind/syncagent/internal/providers/dropbox"
	_ "github.com/notewind/syncagent/internal/providers/googledrive"
	_ "github.com/notewind/syncagent/internal/providers/webdav"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
