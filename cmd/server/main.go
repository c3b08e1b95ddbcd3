/*
main.go - Application entry point

PURPOSE:
  Starts the office quota tracker. Two commands:

    serve   HTTP API plus the periodic synthesis sweep
    plan    Prints requirements, progress and suggestions for a month

STARTUP SEQUENCE (serve):
  1. Load OFFICEQUOTA_* environment, apply flag overrides
  2. Build the zap logger
  3. Initialize SQLite store
  4. Create API handler and router
  5. Start the sweep and the server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the sweep
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server serve --db=./data/quota.db --port=3000
  ./server serve --db=":memory:"
  ./server plan --month=2025-03
  ./server plan --watch --interval=30s

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment variables
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
