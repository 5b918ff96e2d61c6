package sizeof

import "reflect"

// Shape is the closed set of value shapes the estimator understands. Every
// reflect.Kind maps to exactly one Shape via [Classify].
type Shape int

const (
	// Leaf values (numbers, bools, strings) contribute their own size only.
	Leaf Shape = iota
	// Sequence values (slices, arrays) add the estimate of every element.
	Sequence
	// Set values are maps with zero-sized elements; only keys are followed.
	Set
	// Mapping values add the estimate of every key and value.
	Mapping
	// Composite values are structs; every field is followed.
	Composite
	// Reference values (pointers, interfaces) follow their target once per
	// identity.
	Reference
	// Opaque values (funcs, channels, unsafe pointers) are never traversed.
	Opaque
)

func (s Shape) String() string {
	switch s {
	case Leaf:
		return "leaf"
	case Sequence:
		return "sequence"
	case Set:
		return "set"
	case Mapping:
		return "mapping"
	case Composite:
		return "composite"
	case Reference:
		return "reference"
	default:
		return "opaque"
	}
}

// Classify returns the Shape for values of type t. A nil type is Opaque.
func Classify(t reflect.Type) Shape {
	if t == nil {
		return Opaque
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return Leaf
	case reflect.Slice, reflect.Array:
		return Sequence
	case reflect.Map:
		if t.Elem().Size() == 0 {
			return Set
		}
		return Mapping
	case reflect.Struct:
		return Composite
	case reflect.Pointer, reflect.Interface:
		return Reference
	default:
		return Opaque
	}
}
