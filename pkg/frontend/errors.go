package frontend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInputModel reports that the model handle passed to a conversion
// entry point is nil or carries no decoded graph.
var ErrInvalidInputModel = errors.New("invalid input model")

// RetryResolutionError reports that targeted re-translation found no
// translator for a placeholder it was told to resolve. The retry path
// assumes a prior decision that the node must now be translatable, so this
// is a contract violation rather than an ordinary coverage gap.
type RetryResolutionError struct {
	OpType string
	Node   string
}

// Error implements error.
func (e *RetryResolutionError) Error() string {
	return fmt.Sprintf("no translator found for %s node %q", e.OpType, e.Node)
}

// ConversionError aggregates every coverage gap a strict conversion found.
// The message enumerates all distinct failures and names the first
// unsupported operation; the full unsupported list stays available for
// tooling.
type ConversionError struct {
	// Unsupported lists distinct op types with no registered translator,
	// in first-seen order.
	Unsupported []string
	// Failures maps op types whose translator raised to the first
	// recorded failure message.
	Failures map[string]string

	msg string
}

func newConversionError(rep *Report) *ConversionError {
	var b strings.Builder
	for _, op := range rep.FailedOps {
		fmt.Fprintf(&b, "conversion failed for %s operation with a message:\n%s\n", op, rep.Failures[op])
	}
	if len(rep.Operations) > 0 {
		fmt.Fprintf(&b, "no translator found for %s node", rep.Operations[0])
	}
	return &ConversionError{
		Unsupported: append([]string(nil), rep.Operations...),
		Failures:    rep.Failures,
		msg:         b.String(),
	}
}

// Error implements error.
func (e *ConversionError) Error() string { return e.msg }
