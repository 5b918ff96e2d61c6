package gorawrmemo

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnkeyableArgument is returned by [Memo.Call] and [NewKey] when an
	// argument cannot take part in a comparable key (slices, maps, funcs, or
	// structs and arrays holding them). The computation is not invoked.
	ErrUnkeyableArgument = errors.New("gorawrmemo: unkeyable argument")

	// ErrInvalidConfiguration is returned by [New] for negative bounds, a
	// negative TTL, an invalid rate limit or a nil computation.
	ErrInvalidConfiguration = errors.New("gorawrmemo: invalid configuration")
)

// UnkeyableArgumentError identifies the offending argument. Position is the
// positional index, or -1 for a named argument.
type UnkeyableArgumentError struct {
	Position int
	Name     string
	Type     reflect.Type
}

func (e *UnkeyableArgumentError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("%v: named argument %q of type %v is not comparable", ErrUnkeyableArgument, e.Name, e.Type)
	}
	return fmt.Sprintf("%v: argument %d of type %v is not comparable", ErrUnkeyableArgument, e.Position, e.Type)
}

// Unwrap lets errors.Is match [ErrUnkeyableArgument].
func (e *UnkeyableArgumentError) Unwrap() error {
	return ErrUnkeyableArgument
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfiguration}, args...)...)
}
