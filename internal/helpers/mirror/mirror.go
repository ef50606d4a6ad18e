package mirror

import "reflect"

// Fresh returns a new zeroed instance of T.
// If T is a pointer type, it allocates the pointed-to value and returns T itself.
// If T is a value type, it returns a pointer to a new zeroed value.
func Fresh[T any]() any {
	typ := reflect.TypeFor[T]()
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return reflect.New(typ).Interface()
}
