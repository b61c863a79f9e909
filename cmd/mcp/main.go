// Liquidity service MCP server.
// Exposes liquidity provisioning tools over MCP stdio transport.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcptools "github.com/tokenforge/liquidity/internal/mcp"
)

func main() {
	serviceURL := os.Getenv("LIQUIDITY_URL")
	if serviceURL == "" {
		serviceURL = "http://localhost:3001"
	}

	s := server.NewMCPServer(
		"liquidity",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	client := mcptools.NewClient(serviceURL)
	mcptools.RegisterTools(s, client)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
