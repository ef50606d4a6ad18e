package mirror

import (
	"errors"
	"reflect"
)

var (
	ErrNotPointer         = errors.New("not a pointer")
	ErrNilPointer         = errors.New("nil pointer")
	ErrInvalidPointerKind = errors.New("invalid pointer")
)

// IsStructPointer checks that v is a non-nil pointer to a struct, which is
// what decoders and mergo need as a destination.
func IsStructPointer(v any) error {
	switch rv := reflect.ValueOf(v); {
	case rv.Kind() != reflect.Pointer:
		return ErrNotPointer
	case rv.IsNil():
		return ErrNilPointer
	case rv.Elem().Kind() != reflect.Struct:
		return ErrInvalidPointerKind
	}
	return nil
}
