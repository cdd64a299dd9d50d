// Command mcp-reminder provides an MCP server for reminder management.
//
// This server provides tools for creating, listing, checking, delivering
// and deleting reminders stored in a JSON file or SQLite database.
//
// Usage:
//
//	./mcp-reminder          # Start MCP server (stdio)
//	./mcp-reminder --watch  # Also deliver due reminders in the background
//	./mcp-reminder --help   # Show help
//
// Environment:
//
//	REMIND_CONFIG       Path to config file (default: ~/.remind/config.yaml)
//	REMIND_STORE__PATH  Path to the reminder file
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/notexe/remind/internal/app"
	"github.com/notexe/remind/internal/config"
	"github.com/notexe/remind/internal/logging"
	"github.com/notexe/remind/internal/mcpserver"
	"github.com/notexe/remind/internal/reminder"
	"go.uber.org/zap"
)

func main() {
	watch := false
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--help", "-h":
			printHelp()
			return
		case "--watch":
			watch = true
		}
	}

	configPath := os.Getenv("REMIND_CONFIG")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the MCP protocol
	cfg.Notify.Console.Enabled = false

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger, app.Options{Out: os.Stderr})
	if err != nil {
		if a == nil {
			fmt.Fprintf(os.Stderr, "Failed to open reminders: %v\n", err)
			os.Exit(1)
		}
		if errors.Is(err, reminder.ErrCorrupt) {
			logger.Error("reminder file is corrupt, changes will not be saved", zap.Error(err))
		} else {
			logger.Error("reminders not loaded, changes will not be saved", zap.Error(err))
		}
	}
	defer a.Close()

	if watch {
		go func() {
			if err := a.Scheduler.Run(ctx); err != nil {
				logger.Error("scheduler stopped", zap.Error(err))
			}
		}()
	}

	s := mcpserver.NewServer(a.Store, a.Scheduler, logger.Named("mcp"))

	if err := server.ServeStdio(s.MCPServer()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`MCP Reminder Server - Reminder management via MCP protocol

USAGE:
    mcp-reminder          Start MCP server (communicates via stdio)
    mcp-reminder --watch  Start MCP server and deliver due reminders
    mcp-reminder --help   Show this help

ENVIRONMENT:
    REMIND_CONFIG         Path to config file
                          Default: ~/.remind/config.yaml
    REMIND_STORE__PATH    Path to the reminder file (default: ./output.json)
    REMIND_STORE__DRIVER  json or sqlite

TOOLS:
    add_reminder       Add a reminder (title, description, date, time, lead_hours)
    list_reminders     List reminders (optional state filter)
    get_due_reminders  Check which reminders are due this minute
    deliver_reminder   Notify a reminder and mark it delivered
    delete_reminder    Delete a reminder permanently
    update_reminder    Update reminder fields

CONFIGURATION:
    Add to your MCP client config:
    {
      "mcpServers": {
        "reminder": {
          "command": "/path/to/mcp-reminder",
          "args": ["--watch"]
        }
      }
    }`)
}
