package gen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Target is one output of a generation run.
type Target struct {
	// Path is the output file. When empty the output goes to Out.
	Path string
	// Out receives the output when Path is empty.
	Out io.Writer
	// Renderer produces the diagram text.
	Renderer Renderer
	// Transforms are applied in order to the rendered text.
	Transforms []Transform
}

func (t Target) name() string {
	if t.Path != "" {
		return t.Path
	}
	return "<" + t.Renderer.Name() + ">"
}

// Writer renders a graph into a set of targets in parallel.
type Writer struct {
	graph   *Graph
	workers int

	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks generation performance.
type WriterMetrics struct {
	FilesWritten  int
	TotalBytes    int64
	RenderTime    int64 // nanoseconds
	TransformTime int64 // nanoseconds
	WriteTime     int64 // nanoseconds
}

// NewWriter creates a writer for g.
func NewWriter(g *Graph) *Writer {
	return &Writer{
		graph:   g,
		workers: runtime.GOMAXPROCS(0),
		metrics: &WriterMetrics{},
	}
}

// WithWorkers sets the number of parallel workers.
func (w *Writer) WithWorkers(n int) *Writer {
	if n > 0 {
		w.workers = n
	}
	return w
}

// Metrics returns the generation metrics.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.metrics
}

// Produce renders t and applies its transforms, without writing anything.
func (w *Writer) Produce(ctx context.Context, t Target) ([]byte, error) {
	start := time.Now()
	out, err := t.Renderer.Render(w.graph)
	if err != nil {
		return nil, NewGenerationError("render", t.Path, t.Renderer.Name(), err)
	}
	rendered := time.Since(start)
	for _, tr := range t.Transforms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if out, err = tr(ctx, out); err != nil {
			return nil, NewGenerationError("transform", t.Path, t.Renderer.Name(), err)
		}
	}
	w.mu.Lock()
	w.metrics.RenderTime += int64(rendered)
	w.metrics.TransformTime += int64(time.Since(start) - rendered)
	w.mu.Unlock()
	return out, nil
}

// WriteAll produces and writes every target. Targets are independent and
// written concurrently; the first failure cancels the rest.
func (w *Writer) WriteAll(ctx context.Context, targets ...Target) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, t := range targets {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.write(ctx, t)
			}
		})
	}
	return eg.Wait()
}

func (w *Writer) write(ctx context.Context, t Target) error {
	out, err := w.Produce(ctx, t)
	if err != nil {
		return err
	}
	start := time.Now()
	switch {
	case t.Path != "":
		if err := os.MkdirAll(filepath.Dir(t.Path), 0o755); err != nil {
			return NewGenerationError("write", t.Path, "create directory", err)
		}
		if err := os.WriteFile(t.Path, out, 0o644); err != nil {
			return NewGenerationError("write", t.Path, "", err)
		}
	case t.Out != nil:
		// Targets may share a stream such as stdout.
		w.mu.Lock()
		_, err := io.Copy(t.Out, bytes.NewReader(out))
		w.mu.Unlock()
		if err != nil {
			return NewGenerationError("write", t.name(), "", err)
		}
	default:
		return NewGenerationError("write", t.name(), "target has neither path nor writer", nil)
	}

	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(out))
	w.metrics.WriteTime += int64(time.Since(start))
	w.mu.Unlock()

	w.graph.logger().Debug("wrote diagram",
		zap.String("target", t.name()),
		zap.String("format", t.Renderer.Name()),
		zap.Int("bytes", len(out)),
	)
	return nil
}

// String summarizes the metrics.
func (m WriterMetrics) String() string {
	return fmt.Sprintf("%d files, %d bytes (render %s, transform %s, write %s)",
		m.FilesWritten, m.TotalBytes,
		time.Duration(m.RenderTime), time.Duration(m.TransformTime), time.Duration(m.WriteTime))
}
