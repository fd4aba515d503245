// relnotes: release notes dashboard
//
// Serves a product release notes catalog with per-user preferences and
// AI-assisted search over HTTP, MCP (stdio) and a terminal dashboard.
//
// Usage:
//
//	relnotes serve     # HTTP API on the configured address
//	relnotes mcp       # MCP server (stdio transport)
//	relnotes tui       # Terminal dashboard
//	relnotes ingest    # Offline data preparation
//	relnotes prefs     # Export, import or reset preferences
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
