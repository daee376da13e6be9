package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument is matched by every *InvalidArgumentError.
var ErrInvalidArgument = errors.New("vmodel: invalid argument")

// ErrDisposed is returned by every operation on a disposed model.
var ErrDisposed = errors.New("vmodel: model is disposed")

// ErrReadOnly is matched by every *ReadOnlyComputedPropertyError.
var ErrReadOnly = errors.New("vmodel: computed property is read-only")

// ErrCircularDependency is returned when defining a computed property would
// make it depend on itself, directly or through other computed properties.
var ErrCircularDependency = errors.New("vmodel: circular computed dependency")

// InvalidArgumentError reports a missing or malformed argument.
type InvalidArgumentError struct {
	Op     string // operation, e.g. "set"
	Arg    string // argument name, e.g. "name"
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("vmodel: %s: invalid %s: %s", e.Op, e.Arg, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidArgument) hold.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ReadOnlyComputedPropertyError reports a write to a computed property
// that has no setter.
type ReadOnlyComputedPropertyError struct {
	Name string
}

func (e *ReadOnlyComputedPropertyError) Error() string {
	return fmt.Sprintf("vmodel: computed property %q has no setter", e.Name)
}

// Is makes errors.Is(err, ErrReadOnly) hold.
func (e *ReadOnlyComputedPropertyError) Is(target error) bool {
	return target == ErrReadOnly
}

// CycleError reports the dependency path that closes a cycle.
type CycleError struct {
	// Path starts and ends with the property being defined.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCircularDependency, strings.Join(e.Path, " -> "))
}

// Unwrap returns ErrCircularDependency.
func (e *CycleError) Unwrap() error {
	return ErrCircularDependency
}

func invalidArg(op, arg, reason string) error {
	return &InvalidArgumentError{Op: op, Arg: arg, Reason: reason}
}
