package taxonomy

import (
	"errors"
	"fmt"
)

// ErrNoEntries is returned when a document parses but yields no entries.
var ErrNoEntries = errors.New("no taxonomy entries found")

// Taxonomy names used in errors, logs and metrics.
const (
	Weaknesses     = "cwe"
	AttackPatterns = "capec"
)

// ParseError wraps a failure to turn a downloaded document into an index.
type ParseError struct {
	Taxonomy string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s catalog: %v", e.Taxonomy, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
