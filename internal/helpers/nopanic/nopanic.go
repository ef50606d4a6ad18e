package nopanic

import (
	"errors"
	"fmt"

	"github.com/lattesec/luatrace/internal/helpers/debughelper"
	"github.com/lattesec/log"
)

var ErrPanicked = errors.New("panicked")

// PanicError carries a recovered panic value and the goroutine stack at the
// point of recovery.
type PanicError struct {
	Name  string
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Name, e.Value)
}

func (e *PanicError) Unwrap() error { return ErrPanicked }

// Wrap turns a recovered value into a *PanicError for callers that recover
// inline.
func Wrap(name string, r any) error {
	return &PanicError{Name: name, Value: r, Stack: debughelper.TraceStack()}
}

// Recover runs fn and converts a panic into a *PanicError. It does not log,
// the caller decides where the failure goes.
func Recover(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Wrap(name, r)
		}
	}()
	return fn()
}

// NoPanicRun runs fn and logs a panic instead of propagating it, returning
// the zero T.
func NoPanicRun[T any](name string, fn func() T) (out T) {
	err := Recover(name, func() error {
		out = fn()
		return nil
	})
	if err != nil {
		log.Error().WithMeta("scope", "nopanic").Msg(err.Error()).Send()
	}
	return
}
