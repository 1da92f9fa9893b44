package traj

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the errors produced by this package.
type ErrorKind int

const (
	// ConfigError signals a bad request: a malformed mask, a mask selecting no atoms,
	// mismatched atom counts on growth, or a reference frame that doesn't exist.
	ConfigError ErrorKind = iota + 1
	// StateError signals an operation on a Trajectory that can't support it, such as
	// indexing an empty Trajectory.
	StateError
	// ShapeError signals incompatible coordinate shapes.
	ShapeError
	// BoundsError signals an index out of range.
	BoundsError
	// LengthError signals mismatched frame counts, or an unknown count where one is required.
	LengthError
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigError:
		return "configuration error"
	case StateError:
		return "state error"
	case ShapeError:
		return "shape mismatch"
	case BoundsError:
		return "out of bounds"
	case LengthError:
		return "length mismatch"
	default:
		return "error"
	}
}

// Sentinels to be used with errors.Is.
var (
	ErrConfig = &Error{kind: ConfigError}
	ErrState  = &Error{kind: StateError}
	ErrShape  = &Error{kind: ShapeError}
	ErrBounds = &Error{kind: BoundsError}
	ErrLength = &Error{kind: LengthError}
)

// Error is the general error type of the package. All errors of this type are critical.
type Error struct {
	message  string
	deco     []string
	critical bool
	kind     ErrorKind
}

func newError(kind ErrorKind, caller string, format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...), deco: []string{caller}, critical: true, kind: kind}
}

// Error returns a string with an error message.
func (err *Error) Error() string {
	return fmt.Sprintf("traj: %s: %s", err.kind, err.message)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns true if the error is critical, false otherwise.
func (err *Error) Critical() bool { return err.critical }

// Kind returns the class of the error.
func (err *Error) Kind() ErrorKind { return err.kind }

// Is reports whether target is a sentinel (or any Error) of the same kind.
func (err *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.kind == err.kind && (t.message == "" || t.message == err.message)
}

// errDecorate decorates err with the caller's name if err implements Decorator.
// Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	var d Decorator
	if errors.As(err, &d) {
		d.Decorate(caller)
	}
	return err
}

// lastFrameError implements LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "memory" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(caller string) *lastFrameError {
	return &lastFrameError{deco: []string{caller}}
}

// IsLastFrame returns true if err signals the normal end of a frame sequence.
func IsLastFrame(err error) bool {
	var l LastFrameError
	return errors.As(err, &l)
}
