package services

import "fmt"

type ErrorKind string

const (
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindInvalidRequest   ErrorKind = "INVALID_REQUEST"
	KindWorkflowMismatch ErrorKind = "WORKFLOW_MISMATCH"
	KindIdentityMismatch ErrorKind = "IDENTITY_MISMATCH"
	KindConflict         ErrorKind = "CONFLICT"
)

// ServiceError is a domain failure. Two ServiceErrors match under errors.Is
// when their kinds are equal, so the sentinels below can be used as targets.
type ServiceError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound         = &ServiceError{Kind: KindNotFound, Message: "not found"}
	ErrInvalidRequest   = &ServiceError{Kind: KindInvalidRequest, Message: "invalid request"}
	ErrWorkflowMismatch = &ServiceError{Kind: KindWorkflowMismatch, Message: "workflow does not match reservation record"}
	ErrIdentityMismatch = &ServiceError{Kind: KindIdentityMismatch, Message: "Phone number does not match reservation customer"}
	ErrConflict         = &ServiceError{Kind: KindConflict, Message: "reservation was modified concurrently, retry with fresh state"}
)

func newError(kind ErrorKind, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
