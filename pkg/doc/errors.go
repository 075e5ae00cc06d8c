package doc

import "fmt"

// ExecError is a feature-level execution failure: parameter validation
// that fails before the kernel is invoked, or a kernel failure translated
// at the execute boundary. The recompute driver collects these per
// feature without aborting the document recompute.
type ExecError struct {
	Feature string
	Reason  string
	Err     error
}

func (e *ExecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Feature, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Feature, e.Reason)
}

func (e *ExecError) Unwrap() error { return e.Err }
