package inspector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/deploy-kit/internal/logger"
	"github.com/oshokin/deploy-kit/internal/msi"
)

// Options contains inputs for the package inspector entry point.
type Options struct {
	// Paths are the package files to inspect. When empty, paths are read
	// line by line from Input, allowing an upstream producer to pipe them in.
	Paths []string
	// Properties restricts the requested property names.
	// Empty means the full standard set.
	Properties []string
	// Engine optionally overrides the platform installer engine.
	// A supplied engine is not closed by Run; the caller keeps ownership.
	Engine msi.Engine
	// Output receives the YAML records. Defaults to standard output.
	Output io.Writer
	// Input supplies paths when none are given. Defaults to standard input.
	Input io.Reader
}

var (
	// errNoInputFiles indicates neither arguments nor piped input named a file.
	errNoInputFiles = errors.New("no package files to inspect")
	// errAllFilesFailed indicates every submitted file produced an error.
	errAllFilesFailed = errors.New("all package files failed to read")
)

// Run reads metadata from each package file independently and emits one YAML
// document per file. A failed file is reported and skipped; siblings proceed.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "deploy-inspect")

	// Validate the property subset before any file is touched.
	names, err := msi.ValidateProperties(opts.Properties)
	if err != nil {
		return err
	}

	engine := opts.Engine
	if engine == nil {
		engine, err = msi.NewEngine()
		if err != nil {
			return fmt.Errorf("initialize installer engine: %w", err)
		}

		// Only an engine created here is released here. A caller-supplied
		// engine stays open for the caller to reuse.
		defer func() {
			_ = engine.Close()
		}()
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	encoder := yaml.NewEncoder(output)
	defer func() {
		_ = encoder.Close()
	}()

	reader := msi.NewReader(engine)

	var processed, failed int

	emit := func(path string) error {
		records, err := reader.Read(ctx, []string{path}, names)
		if err != nil {
			return err
		}

		processed++

		record := records[0]
		if record.Err != nil {
			failed++

			logger.ErrorKV(ctx, "Failed to read package", "path", record.Path, "error", record.Err)

			return nil
		}

		return encoder.Encode(record)
	}

	if len(opts.Paths) > 0 {
		for _, path := range opts.Paths {
			if err = emit(path); err != nil {
				return err
			}
		}
	} else if err = emitFromInput(opts.Input, emit); err != nil {
		return err
	}

	if processed == 0 {
		return errNoInputFiles
	}

	if failed > 0 {
		logger.WarnKV(ctx, "Some packages could not be read", "failed", failed, "total", processed)
	}

	if failed == processed {
		return errAllFilesFailed
	}

	return nil
}

// emitFromInput consumes package paths from the reader one line at a time,
// so a slow upstream producer sees results as they are ready.
func emitFromInput(input io.Reader, emit func(string) error) error {
	if input == nil {
		input = os.Stdin
	}

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		path := strings.TrimSpace(scanner.Text())
		if path == "" {
			continue
		}

		if err := emit(path); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input paths: %w", err)
	}

	return nil
}
