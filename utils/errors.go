package utils

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
)

// ErrorKind classifies the failures the helpers can report.
type ErrorKind int

const (
	CapabilityError ErrorKind = iota + 1
	NoCompatibleMemoryType
	ResourceCreationError
	ShaderLoadError
	SubmissionError
)

func (k ErrorKind) String() string {
	switch k {
	case CapabilityError:
		return "capability error"
	case NoCompatibleMemoryType:
		return "no compatible memory type"
	case ResourceCreationError:
		return "resource creation error"
	case ShaderLoadError:
		return "shader load error"
	case SubmissionError:
		return "submission error"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrCapability             = &Error{Kind: CapabilityError}
	ErrNoCompatibleMemoryType = &Error{Kind: NoCompatibleMemoryType}
	ErrResourceCreation       = &Error{Kind: ResourceCreationError}
	ErrShaderLoad             = &Error{Kind: ShaderLoadError}
	ErrSubmission             = &Error{Kind: SubmissionError}
)

// Error is returned by every helper in this package. Op names the failing
// operation and Result carries the Vulkan status when a driver call produced one.
type Error struct {
	Kind   ErrorKind
	Op     string
	Result common.VkResult
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Result != 0 {
		msg += fmt.Sprintf(" (%v)", e.Result)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

func newError(kind ErrorKind, op string, res common.VkResult, err error) *Error {
	if err == nil {
		err = errors.New("failed")
	}
	return &Error{Kind: kind, Op: op, Result: res, Err: errors.WithStack(err)}
}
