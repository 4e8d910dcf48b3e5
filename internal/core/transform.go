package core

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/sanctions/internal/fileutil"
	"github.com/JonMunkholm/sanctions/internal/source"
)

// TransformOptions configures a Transform run.
type TransformOptions struct {
	Input   string
	Output  string
	Shape   Shape
	Builder *Builder     // nil uses NewBuilder()
	Logger  *slog.Logger // nil uses slog.Default()
}

// TransformResult summarizes a Transform run.
type TransformResult struct {
	Rows     int // data rows read from the input
	Written  int // entities written
	Skipped  int // rows without a name
	Duration time.Duration
}

// Transform reads every row of opts.Input, normalizes it, builds an entity
// and writes one JSON object per line to opts.Output.
//
// The output file is replaced only when the whole input was processed; a
// failed run leaves any previous output in place.
func Transform(opts TransformOptions) (TransformResult, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("op", "transform", "input", opts.Input, "output", opts.Output)

	builder := opts.Builder
	if builder == nil {
		builder = NewBuilder()
	}
	shape := opts.Shape
	if shape == "" {
		shape = ShapeSimple
	}

	var result TransformResult
	err := fileutil.WriteAtomic(opts.Output, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)

		return source.Each(opts.Input, func(_ []string, raw source.RawRow) error {
			index := result.Rows
			result.Rows++

			entity, ok := builder.Build(Normalize(raw), index)
			if !ok {
				result.Skipped++
				logger.Debug("row skipped: no name", "line", raw.Line)
				return nil
			}
			if err := enc.Encode(shape.Encode(entity)); err != nil {
				return fmt.Errorf("encode entity at line %d: %w", raw.Line, err)
			}
			result.Written++
			return nil
		})
	})
	result.Duration = time.Since(start)
	if err != nil {
		logger.Error("transform failed", "rows", result.Rows, "error", err)
		return result, fmt.Errorf("transform %s: %w", opts.Input, err)
	}

	logger.Info("transform complete",
		"format", string(shape),
		"rows", result.Rows,
		"written", result.Written,
		"skipped", result.Skipped,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}
