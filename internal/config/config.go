package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdferrors "github.com/a3tai/mcp-pdf-tagger/internal/pdf/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultRole        = "P"
	DefaultTag         = "Span"
	DefaultOnError     = "skip"
	DefaultSuffix      = "-tagged"

	// EnvPrefix is prepended to every configuration key to form its environment variable
	EnvPrefix = "MCP_PDF_TAGGER"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the PDF tagging MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string

	// Tagging configuration
	Role      string // structure type of each element
	Tag       string // marked content tag
	OnError   string // "skip" or "abort" when a content stream cannot be tagged
	Overwrite bool   // replace an existing structure tree
	Verify    bool   // compare extracted text before and after tagging
	Suffix    string // appended to the input name when no output is given

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:         ModeStdio, // Default to stdio mode for MCP compatibility
		Host:         DefaultHost,
		Port:         DefaultPort,
		PDFDirectory: currentDir,
		Role:         DefaultRole,
		Tag:          DefaultTag,
		OnError:      DefaultOnError,
		Suffix:       DefaultSuffix,
		Version:      "1.0.0",
		ServerName:   "mcp-pdf-tagger",
		LogLevel:     DefaultLogLevel,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	// Define flags with Viper
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("role", cfg.Role)
	viper.SetDefault("tag", cfg.Tag)
	viper.SetDefault("onerror", cfg.OnError)
	viper.SetDefault("overwrite", cfg.Overwrite)
	viper.SetDefault("verify", cfg.Verify)
	viper.SetDefault("suffix", cfg.Suffix)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("role", cfg.Role, "Structure role of each tagged content stream")
	pflag.String("tag", cfg.Tag, "Marked content tag wrapped around each text operator")
	pflag.String("onerror", cfg.OnError, "What to do when a content stream cannot be tagged: 'skip' or 'abort'")
	pflag.Bool("overwrite", cfg.Overwrite, "Replace an existing structure tree instead of refusing the document")
	pflag.Bool("verify", cfg.Verify, "Compare extracted page text before and after tagging")
	pflag.String("suffix", cfg.Suffix, "Suffix for tagged output files when no output path is given")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("role", pflag.Lookup("role"))
	_ = viper.BindPFlag("tag", pflag.Lookup("tag"))
	_ = viper.BindPFlag("onerror", pflag.Lookup("onerror"))
	_ = viper.BindPFlag("overwrite", pflag.Lookup("overwrite"))
	_ = viper.BindPFlag("verify", pflag.Lookup("verify"))
	_ = viper.BindPFlag("suffix", pflag.Lookup("suffix"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Tagger - A Model Context Protocol server that makes PDF files accessible\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs                     "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/pdfs       # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --onerror=abort --verify                # strict tagging with text check\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		for _, key := range []string{"mode", "host", "port", "dir", "loglevel", "maxfilesize",
			"role", "tag", "onerror", "overwrite", "verify", "suffix"} {
			fmt.Fprintf(os.Stderr, "  %s_%s\n", EnvPrefix, strings.ToUpper(key))
		}
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Role = viper.GetString("role")
	cfg.Tag = viper.GetString("tag")
	cfg.OnError = viper.GetString("onerror")
	cfg.Overwrite = viper.GetBool("overwrite")
	cfg.Verify = viper.GetBool("verify")
	cfg.Suffix = viper.GetString("suffix")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return c.validateTagging()
}

// validateTagging checks the tagging defaults
func (c *Config) validateTagging() error {
	if !isName(c.Role) {
		return fmt.Errorf("invalid structure role: %q", c.Role)
	}
	if !isName(c.Tag) {
		return fmt.Errorf("invalid marked content tag: %q", c.Tag)
	}
	if _, err := pdferrors.ParsePolicy(c.OnError); err != nil {
		return err
	}
	if c.Suffix == "" || strings.ContainsAny(c.Suffix, `/\`) {
		return fmt.Errorf("invalid output suffix: %q", c.Suffix)
	}
	return nil
}

// Policy returns the parsed stream failure policy
func (c *Config) Policy() pdferrors.Policy {
	policy, err := pdferrors.ParsePolicy(c.OnError)
	if err != nil {
		return pdferrors.PolicySkip
	}
	return policy
}

// isName accepts a non-empty PDF name without the leading slash
func isName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b <= ' ' || b >= 0x7f || strings.IndexByte("()<>[]{}/%#", b) >= 0 {
			return false
		}
	}
	return true
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"Role: %s, Tag: %s, OnError: %s, Overwrite: %t, Verify: %t, Suffix: %s}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize,
		c.Role, c.Tag, c.OnError, c.Overwrite, c.Verify, c.Suffix)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
