package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-pdf-tagger/internal/config"
	"github.com/a3tai/mcp-pdf-tagger/internal/mcp"
	"github.com/a3tai/mcp-pdf-tagger/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the server mode
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// stdout carries the MCP protocol in stdio mode
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
	} else {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// newService builds the PDF service from the tagging defaults in cfg
func newService(cfg *config.Config) (*pdf.Service, error) {
	return pdf.NewService(cfg.MaxFileSize, cfg.PDFDirectory, pdf.TagDefaults{
		Role:      cfg.Role,
		Tag:       cfg.Tag,
		Policy:    cfg.Policy(),
		Overwrite: cfg.Overwrite,
		Verify:    cfg.Verify,
		Suffix:    cfg.Suffix,
		Logger:    log.Default(),
	})
}

// isVersionRequest reports whether args ask for the version
func isVersionRequest(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

func main() {
	if isVersionRequest(os.Args[1:]) {
		printVersion()
		return
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	pdfService, err := newService(cfg)
	if err != nil {
		log.Fatalf("Failed to create PDF service: %v", err)
	}
	if err := pdfService.ValidateConfiguration(); err != nil {
		log.Fatalf("Invalid service configuration: %v", err)
	}

	server, err := mcp.NewServer(cfg, pdfService)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	// In stdio mode the parent process controls our lifecycle and closes stdin
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Printf("Server error: %v", err)
		stop()
		os.Exit(1)
	}

	if cfg.IsServerMode() {
		log.Println("Server stopped successfully")
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP PDF Tagger\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
