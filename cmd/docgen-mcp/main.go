// Command docgen-mcp is an MCP (Model Context Protocol) server that lets AI
// assistants render procurement documents.
//
// # Installation
//
//	go install github.com/alqadi/procuredocs/cmd/docgen-mcp@latest
//
// # Configuration
//
//	{
//	  "mcpServers": {
//	    "procuredocs": {
//	      "command": "docgen-mcp",
//	      "env": {
//	        "DOCS_FONT_DIR": "/usr/share/fonts/noto",
//	        "DOCS_FONT_FAMILY": "NotoNaskhArabic"
//	      }
//	    }
//	  }
//	}
//
// The environment variables are those read by the config package. Logs go
// to stderr since stdout carries the protocol.
//
// # Available Tools
//
//   - list_categories: Document categories and their templates
//   - list_variables: Variables a category's templates expect
//   - render_document: Render a PDF from a context or a typed entity
//   - preview_document: Paginate without producing the PDF
//
// # Available Resources
//
//   - templates://index : Every registered template
//   - template://{id} : One template definition as YAML
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alqadi/procuredocs/config"
	"github.com/alqadi/procuredocs/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "docgen-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	log.SetOutput(os.Stderr)

	eng, err := cfg.Engine(log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(mcp.WithLogger(log))
	mcp.RegisterTools(server, eng)
	mcp.RegisterResources(server, eng)

	if err := server.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
