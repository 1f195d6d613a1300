// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import (
	"errors"
	"fmt"
)

// Kind categorizes an [Error].
type Kind uint8

const (
	// KindUsage reports a call that is invalid for the handle it was made on,
	// such as joining a fiber from itself. The handle stays usable.
	KindUsage Kind = iota + 1
	// KindState reports a violation of a shared result's exactly-once rules.
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

// Usage errors.
var (
	ErrJoinSelf    = errors.New("resource deadlock would occur: fiber joins itself")
	ErrNotJoinable = errors.New("fiber is not joinable")
	ErrNoContext   = errors.New("operation requires a running context")
	ErrNoEndpoint  = errors.New("pipe effect evaluated without an endpoint")
)

// State errors.
var (
	ErrAlreadySatisfied = errors.New("result has already been set")
	ErrAlreadyRetrieved = errors.New("future has already been retrieved")
	ErrNoState          = errors.New("operation not permitted on an object without an associated state")
)

// ErrClosed is returned by pipe operations after either endpoint closed
// and no buffered value remains.
var ErrClosed = errors.New("pipe closed")

// Error is the structured error returned by fiber handles and the future layer.
type Error struct {
	Err  error
	Op   string
	Kind Kind
}

func (e *Error) Error() string {
	return "fiber: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func usageError(op string, err error) error {
	return &Error{Kind: KindUsage, Op: op, Err: err}
}

func stateError(op string, err error) error {
	return &Error{Kind: KindState, Op: op, Err: err}
}

// IsUsage reports whether err is a usage error.
func IsUsage(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindUsage
}

// IsState reports whether err is a state error.
func IsState(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindState
}

// PanicError carries a panic recovered at a fiber body or packaged task
// boundary. It is re-raised by [Fiber.Join] and returned by [Future.Get].
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("fiber: panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
