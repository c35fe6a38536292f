// Package scad turns modeling-language source into a binary model artifact by
// driving the OpenSCAD binary inside a per-call throwaway workspace.
package scad

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"
)

// Format is an export format understood by the compiler.
type Format string

const (
	FormatSTL Format = "stl"
	FormatAMF Format = "amf"
	Format3MF Format = "3mf"
)

// ParseFormat validates a caller-supplied format string. Empty means STL.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatSTL:
		return FormatSTL, nil
	case FormatAMF:
		return FormatAMF, nil
	case Format3MF:
		return Format3MF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// CompileError means the compiler rejected the source. It is an expected
// outcome, not an internal fault; callers surface Diagnostic to the user.
type CompileError struct {
	Diagnostic string
}

func (e *CompileError) Error() string {
	return "openscad failed to compile: " + e.Diagnostic
}

const (
	sourceFileName  = "model.scad"
	workspacePrefix = "openpad-"
)

// Compiler invokes the external compiler with a bounded number of concurrent
// subprocesses. Fs and Runner default to the real filesystem and a real
// subprocess; tests swap them to observe workspace lifecycle without
// spawning anything.
type Compiler struct {
	Fs       afero.Fs
	Runner   Runner
	TempRoot string // empty means the OS temp dir

	bin     string
	timeout time.Duration
	sem     *semaphore.Weighted
	logger  zerolog.Logger
}

func NewCompiler(bin string, maxConcurrent int64, timeout time.Duration, logger zerolog.Logger) *Compiler {
	if bin == "" {
		bin = "openscad"
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Compiler{
		Fs:      afero.NewOsFs(),
		Runner:  ExecRunner{},
		bin:     bin,
		timeout: timeout,
		sem:     semaphore.NewWeighted(maxConcurrent),
		logger:  logger.With().Str("component", "compiler").Logger(),
	}
}

// Compile writes source into a fresh workspace, runs the compiler, and reads
// back the artifact. The workspace is removed on every path; removal errors
// are logged but never replace the primary outcome. A *CompileError is
// returned when the compiler itself rejects the source; any other error is an
// internal fault.
func (c *Compiler) Compile(ctx context.Context, source string, format Format) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for compile slot: %w", err)
	}
	defer c.sem.Release(1)

	dir, err := afero.TempDir(c.Fs, c.TempRoot, workspacePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() {
		if rmErr := c.Fs.RemoveAll(dir); rmErr != nil {
			c.logger.Warn().Err(rmErr).Str("workspace", dir).Msg("failed to remove workspace")
		}
	}()

	sourcePath := filepath.Join(dir, sourceFileName)
	if err := afero.WriteFile(c.Fs, sourcePath, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write source: %w", err)
	}

	outputPath := filepath.Join(dir, "model."+string(format))
	args := []string{"-o", outputPath}
	if format != FormatSTL {
		// STL is inferred from the output extension; alternates are explicit.
		args = append(args, "--export-format", string(format))
	}
	args = append(args, sourcePath)

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	stderr, err := c.Runner.Run(runCtx, c.bin, args...)
	if err != nil {
		diagnostic := strings.TrimSpace(stderr)
		if diagnostic == "" {
			diagnostic = err.Error()
		}
		c.logger.Debug().Dur("elapsed", time.Since(start)).Str("diagnostic", diagnostic).Msg("compile failed")
		return nil, &CompileError{Diagnostic: diagnostic}
	}

	artifact, err := afero.ReadFile(c.Fs, outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	c.logger.Debug().Dur("elapsed", time.Since(start)).Int("bytes", len(artifact)).Msg("compile succeeded")
	return artifact, nil
}
