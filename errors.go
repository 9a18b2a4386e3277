package schemaviz

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors shared by the loader, the graph builder and the
// renderers.
var (
	// ErrMalformedIdentifier is returned when a schema identifier does not
	// have the data://<domain>/model/<version>/<model> shape.
	ErrMalformedIdentifier = errors.New("schemaviz: malformed schema identifier")

	// ErrNoSchemas is returned when no usable schema documents were loaded.
	ErrNoSchemas = errors.New("schemaviz: no schemas loaded")

	// ErrRenderTool is returned when the external graph renderer is
	// unavailable or fails.
	ErrRenderTool = errors.New("schemaviz: external render tool failed")

	// ErrNodeIDCollision is returned when two distinct schemas normalize to
	// the same node id and collisions are configured as fatal.
	ErrNodeIDCollision = errors.New("schemaviz: node id collision")
)

// IdentifierError describes why a schema identifier could not be parsed.
type IdentifierError struct {
	ID     string // Raw identifier string
	Reason string // What part of the identifier is missing
}

// Error returns the error string.
func (e *IdentifierError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schemaviz: unsupported id format %q: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("schemaviz: unsupported id format %q", e.ID)
}

// Is reports whether the target error matches IdentifierError.
// This allows errors.Is(idErr, ErrMalformedIdentifier) to return true.
func (e *IdentifierError) Is(err error) bool {
	return err == ErrMalformedIdentifier
}

// NewIdentifierError returns a new IdentifierError for the given identifier.
func NewIdentifierError(id, reason string) *IdentifierError {
	return &IdentifierError{ID: id, Reason: reason}
}

// IsMalformedIdentifier returns true if the error is an IdentifierError.
func IsMalformedIdentifier(err error) bool {
	if err == nil {
		return false
	}
	var e *IdentifierError
	return errors.As(err, &e) || errors.Is(err, ErrMalformedIdentifier)
}

// LoadError wraps a failure to read or decode one schema file.
type LoadError struct {
	Path string // File or directory that failed
	Err  error  // Underlying error
}

// Error returns the error string.
func (e *LoadError) Error() string {
	return fmt.Sprintf("schemaviz: failed to load %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError returns a new LoadError.
func NewLoadError(path string, err error) *LoadError {
	return &LoadError{Path: path, Err: err}
}

// IsLoadError returns true if the error is a LoadError.
func IsLoadError(err error) bool {
	if err == nil {
		return false
	}
	var e *LoadError
	return errors.As(err, &e)
}

// RenderToolError represents a failure of the external rendering binary.
// Stderr carries the tool's own diagnostic text.
type RenderToolError struct {
	Tool   string   // Binary name or path
	Args   []string // Arguments the tool was invoked with
	Stderr string   // Diagnostic output of the tool
	Err    error    // Underlying exec error
}

// Error returns the error string.
func (e *RenderToolError) Error() string {
	var b strings.Builder
	b.WriteString("schemaviz: ")
	b.WriteString(e.Tool)
	if len(e.Args) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(e.Args, " "))
	}
	b.WriteString(" failed")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *RenderToolError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches RenderToolError.
func (e *RenderToolError) Is(err error) bool {
	return err == ErrRenderTool
}

// NewRenderToolError returns a new RenderToolError.
func NewRenderToolError(tool string, args []string, stderr string, err error) *RenderToolError {
	return &RenderToolError{Tool: tool, Args: args, Stderr: stderr, Err: err}
}

// IsRenderToolError returns true if the error is a RenderToolError.
func IsRenderToolError(err error) bool {
	if err == nil {
		return false
	}
	var e *RenderToolError
	return errors.As(err, &e) || errors.Is(err, ErrRenderTool)
}

// CollisionError reports two identifiers that normalize to the same node id.
type CollisionError struct {
	NodeID string // Sanitized node id both identifiers map to
	First  string // Identifier seen first
	Second string // Identifier seen later
}

// Error returns the error string.
func (e *CollisionError) Error() string {
	return fmt.Sprintf("schemaviz: node id %q used by both %q and %q", e.NodeID, e.First, e.Second)
}

// Is reports whether the target error matches CollisionError.
func (e *CollisionError) Is(err error) bool {
	return err == ErrNodeIDCollision
}

// NewCollisionError returns a new CollisionError.
func NewCollisionError(nodeID, first, second string) *CollisionError {
	return &CollisionError{NodeID: nodeID, First: first, Second: second}
}

// IsCollisionError returns true if the error is a CollisionError.
func IsCollisionError(err error) bool {
	if err == nil {
		return false
	}
	var e *CollisionError
	return errors.As(err, &e) || errors.Is(err, ErrNodeIDCollision)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "schemaviz: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("schemaviz: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors so errors.Is and errors.As can
// inspect each of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
