package gorawrmemo

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/dgraph-io/ristretto/v2/z"
)

// NamedArg is one keyword argument. Named arguments are part of the key in
// the order the caller supplied them.
type NamedArg struct {
	Name  string
	Value any
}

// Args is the argument list of one invocation.
type Args struct {
	Positional []any
	Named      []NamedArg
}

// Pos builds Args from positional values.
func Pos(values ...any) Args {
	return Args{Positional: values}
}

// With returns a copy of a with the named argument appended.
func (a Args) With(name string, value any) Args {
	named := make([]NamedArg, len(a.Named), len(a.Named)+1)
	copy(named, a.Named)
	a.Named = append(named, NamedArg{Name: name, Value: value})
	return a
}

func (a Args) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range a.Positional {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatArg(v))
	}
	for i, n := range a.Named {
		if i > 0 || len(a.Positional) > 0 {
			b.WriteString(", ")
		}
		b.WriteString(n.Name)
		b.WriteByte('=')
		b.WriteString(formatArg(n.Value))
	}
	b.WriteByte(')')
	return b.String()
}

func formatArg(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(v)
}

var (
	anyType   = reflect.TypeFor[any]()
	namedType = reflect.TypeFor[NamedArg]()
)

// Key is the comparable form of an Args value. Two keys are equal iff their
// positional values are pairwise == and their named arguments are pairwise
// equal in the same order. Keys can be used as map keys.
type Key struct {
	pos   any // [n]any
	named any // [m]NamedArg
}

// NewKey derives the key for args. It fails with an [*UnkeyableArgumentError]
// if any value is not comparable at runtime.
func NewKey(args Args) (Key, error) {
	for i, v := range args.Positional {
		if !isComparable(v) {
			return Key{}, &UnkeyableArgumentError{Position: i, Type: reflect.TypeOf(v)}
		}
	}
	for _, n := range args.Named {
		if !isComparable(n.Value) {
			return Key{}, &UnkeyableArgumentError{Position: -1, Name: n.Name, Type: reflect.TypeOf(n.Value)}
		}
	}

	pos := reflect.New(reflect.ArrayOf(len(args.Positional), anyType)).Elem()
	for i := range args.Positional {
		pos.Index(i).Set(reflect.ValueOf(&args.Positional[i]).Elem())
	}
	named := reflect.New(reflect.ArrayOf(len(args.Named), namedType)).Elem()
	for i, n := range args.Named {
		named.Index(i).Set(reflect.ValueOf(n))
	}
	return Key{pos: pos.Interface(), named: named.Interface()}, nil
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}

// Args rebuilds the argument list the key was derived from.
func (k Key) Args() Args {
	var a Args
	if k.pos != nil {
		pos := reflect.ValueOf(k.pos)
		for i := range pos.Len() {
			a.Positional = append(a.Positional, pos.Index(i).Interface())
		}
	}
	if k.named != nil {
		named := reflect.ValueOf(k.named)
		for i := range named.Len() {
			a.Named = append(a.Named, named.Index(i).Interface().(NamedArg))
		}
	}
	return a
}

func (k Key) String() string {
	return k.Args().String()
}

// Hash returns a 64-bit fingerprint of the key. Equal keys have equal
// fingerprints; the converse does not hold.
func (k Key) Hash() uint64 {
	h, _ := z.KeyToHash(k.ident())
	return h
}

// ident renders the key with dynamic types so that values which print the
// same but differ in type (int(1), int64(1)) stay apart. Pointer-shaped
// arguments render by address, matching == on them.
func (k Key) ident() string {
	var b strings.Builder
	a := k.Args()
	for _, v := range a.Positional {
		writeIdent(&b, v)
	}
	b.WriteByte('|')
	for _, n := range a.Named {
		b.WriteString(strconv.Quote(n.Name))
		b.WriteByte(':')
		writeIdent(&b, n.Value)
	}
	return b.String()
}

func writeIdent(b *strings.Builder, v any) {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		fmt.Fprintf(b, "%T@%p;", v, v)
	default:
		fmt.Fprintf(b, "%T=%#v;", v, v)
	}
}
