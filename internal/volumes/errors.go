package volumes

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Malformed required fields. These stop the pass that hit them.
var (
	ErrMalformedCapacity   = errors.New("malformed capacity")
	ErrMalformedIdentifier = errors.New("malformed volume identifier")
	ErrMalformedVersion    = errors.New("malformed system version")
)

// StartError reports an external command that could not be launched at all.
// There is no other data source, so callers treat it as fatal to the run.
type StartError struct {
	Path string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("unable to start %s: %v", e.Path, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// ExitError reports a command that ran but did not finish cleanly.
type ExitError struct {
	Path   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Path, strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }
