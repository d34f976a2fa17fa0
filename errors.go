package cleave

import "fmt"

// ErrToolNotFound reports that the structural analysis command could not be
// located on the system.
type ErrToolNotFound struct {
	Command string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("structural tool not found: %s", e.Command)
}

// ErrToolExec reports that the structural analysis tool ran but failed:
// a nonzero exit code or output that does not parse as the expected JSON.
// Output carries the tool's diagnostic output.
type ErrToolExec struct {
	Command string
	Output  string
}

func (e *ErrToolExec) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Command, e.Output)
}

// ErrHTTP reports a non-2xx response from a generation or scoring endpoint.
type ErrHTTP struct {
	Status int
	Body   string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}
