package kernel

import "fmt"

// Error is the distinguished kernel failure category. Construction,
// transform and repair failures from any backend surface as *Error so
// upper layers can catch and translate them at the accessor and
// feature-execute boundaries instead of letting them propagate raw.
type Error struct {
	Op  string // kernel operation that failed, e.g. "fuse", "transform"
	Msg string // backend message text
}

func (e *Error) Error() string {
	if e.Op == "" {
		return "kernel: " + e.Msg
	}
	return fmt.Sprintf("kernel: %s: %s", e.Op, e.Msg)
}

// IsKernelError reports whether err is (or wraps) a kernel failure.
func IsKernelError(err error) bool {
	for err != nil {
		if _, ok := err.(*Error); ok {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
