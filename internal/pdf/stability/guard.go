// Package stability keeps one malformed document from taking the server
// down: tagging runs execute under a deadline and a panic in the PDF
// libraries becomes an ordinary error.
package stability

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

// PanicRecord stores information about a recovered panic
type PanicRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Operation  string    `json:"operation"`
	Message    string    `json:"message"`
	StackTrace string    `json:"-"`
}

// Config configures a Guard
type Config struct {
	Timeout   time.Duration `json:"timeout"`
	MaxPanics int           `json:"max_panics"`
	Debug     bool          `json:"debug"`
}

// DefaultConfig returns the limits used by the server
func DefaultConfig() Config {
	return Config{
		Timeout:   2 * time.Minute,
		MaxPanics: 10,
	}
}

// Health summarizes the runs a Guard has seen
type Health struct {
	Runs      int64         `json:"runs"`
	Failures  int64         `json:"failures"`
	Timeouts  int64         `json:"timeouts"`
	Panics    int           `json:"panics"`
	LastPanic *PanicRecord  `json:"last_panic,omitempty"`
	Timeout   time.Duration `json:"timeout"`
	Healthy   bool          `json:"healthy"`
}

// Guard runs operations with a deadline and panic recovery
type Guard struct {
	config Config
	logger *log.Logger

	mu       sync.RWMutex
	runs     int64
	failures int64
	timeouts int64
	panics   []PanicRecord
}

// NewGuard creates a guard. A nil logger writes to stderr.
func NewGuard(config Config, logger *log.Logger) *Guard {
	if config.MaxPanics <= 0 {
		config.MaxPanics = DefaultConfig().MaxPanics
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[Stability] ", log.LstdFlags)
	}
	return &Guard{config: config, logger: logger}
}

// Run calls fn with a context bounded by the configured timeout. A panic
// in fn is recovered, recorded and returned as an error.
func (g *Guard) Run(ctx context.Context, operation string, fn func(ctx context.Context) error) (err error) {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			g.recordPanic(operation, r, debug.Stack())
			err = fmt.Errorf("%s panicked: %v", operation, r)
		}
		g.finish(ctx, err)
	}()

	return fn(ctx)
}

func (g *Guard) recordPanic(operation string, value any, stack []byte) {
	record := PanicRecord{
		Timestamp:  time.Now(),
		Operation:  operation,
		Message:    fmt.Sprint(value),
		StackTrace: string(stack),
	}

	g.mu.Lock()
	g.panics = append(g.panics, record)
	if len(g.panics) > g.config.MaxPanics {
		g.panics = g.panics[len(g.panics)-g.config.MaxPanics:]
	}
	g.mu.Unlock()

	g.logger.Printf("PANIC RECOVERED in %s: %v", operation, value)
	if g.config.Debug {
		g.logger.Printf("Stack trace: %s", record.StackTrace)
	}
}

func (g *Guard) finish(ctx context.Context, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.runs++
	if err == nil {
		return
	}
	g.failures++
	if ctx.Err() == context.DeadlineExceeded {
		g.timeouts++
	}
}

// Panics returns the most recent panic records, oldest first
func (g *Guard) Panics() []PanicRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]PanicRecord, len(g.panics))
	copy(result, g.panics)
	return result
}

// Health returns a snapshot of the guard's counters. The guard reports
// unhealthy once its panic history is full.
func (g *Guard) Health() Health {
	g.mu.RLock()
	defer g.mu.RUnlock()

	h := Health{
		Runs:     g.runs,
		Failures: g.failures,
		Timeouts: g.timeouts,
		Panics:   len(g.panics),
		Timeout:  g.config.Timeout,
		Healthy:  len(g.panics) < g.config.MaxPanics,
	}
	if n := len(g.panics); n > 0 {
		last := g.panics[n-1]
		h.LastPanic = &last
	}
	return h
}

// Reset clears all counters and recorded panics
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.runs, g.failures, g.timeouts = 0, 0, 0
	g.panics = nil
}
