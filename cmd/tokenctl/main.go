// Command tokenctl issues and inspects bearer tokens signed with the
// configured JWT_SECRET. It is meant for local development and support.
package main

import (
	"fmt"
	"os"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/config"
)

func main() {
	if err := newRootCmd(config.LoadCredentials).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
