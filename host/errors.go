package host

import "fmt"

// RTECode is the code reported when a core stops on a runtime error.
type RTECode int

// Runtime error codes.
const (
	RTENone RTECode = iota
	RTESWErr
	RTEAbort
)

func (c RTECode) String() string {
	switch c {
	case RTENone:
		return "RTE_NONE"
	case RTESWErr:
		return "RTE_SWERR"
	case RTEAbort:
		return "RTE_ABORT"
	default:
		return fmt.Sprintf("RTE(%d)", int(c))
	}
}

// RuntimeError is raised, as a panic, when a core aborts.
type RuntimeError struct {
	Core string
	Code RTECode
	Err  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Core, e.Code, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
