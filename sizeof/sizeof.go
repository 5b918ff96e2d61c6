// Package sizeof approximates the transitive in-memory footprint of arbitrary
// Go values. It is a best-effort estimate: layout padding, allocator size
// classes and runtime map internals are modelled with fixed constants.
//
// Every distinct pointer, map and slice view is counted at most once per
// traversal, so shared sub-values are not double counted and reference cycles
// terminate. The result does not depend on the order values are visited in.
//
//	n := sizeof.Estimate(map[string][]int{"a": {1, 2, 3}})
//
// To measure several values as one graph (so values shared between them are
// counted once), use an [Estimator]:
//
//	est := sizeof.New()
//	total := est.Of(a) + est.Of(b)
package sizeof

import "reflect"

const (
	// mapHeader approximates the fixed runtime header of a non-nil map.
	mapHeader = 48
	// mapSlotOverhead approximates per-entry bookkeeping (control bytes,
	// tophash, load-factor slack) on top of the inline key and element.
	mapSlotOverhead = 8
)

// visit identifies an object reached through a reference. The type is part of
// the identity because a struct and its first field share an address. Slices
// also carry len and cap: views of one backing array that differ in either
// are counted separately, each for its own extent.
type visit struct {
	ptr      uintptr
	typ      reflect.Type
	len, cap int
}

// Estimator is a single traversal session. Values passed to [Estimator.Of]
// share one visited set, so an object reachable from several of them is
// counted once. An Estimator is not safe for concurrent use.
type Estimator struct {
	seen map[visit]struct{}
}

// New returns an Estimator with an empty visited set.
func New() *Estimator {
	return &Estimator{seen: make(map[visit]struct{})}
}

// Estimate returns the approximate number of bytes occupied by v and
// everything it references, using a fresh traversal. A nil v is 0.
func Estimate(v any) int64 {
	return New().Of(v)
}

// Of returns the approximate size of v, skipping objects already counted by
// earlier calls on the same Estimator.
func (e *Estimator) Of(v any) int64 {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	return int64(rv.Type().Size()) + e.indirect(rv)
}

// mark records id and reports whether it was unseen.
func (e *Estimator) mark(id visit) bool {
	if _, ok := e.seen[id]; ok {
		return false
	}
	e.seen[id] = struct{}{}
	return true
}

// indirect returns the bytes reachable from rv that are not stored inline in
// rv itself.
func (e *Estimator) indirect(rv reflect.Value) int64 {
	if !rv.IsValid() {
		return 0
	}
	t := rv.Type()
	switch Classify(t) {
	case Leaf:
		if t.Kind() == reflect.String {
			return int64(rv.Len())
		}
		return 0

	case Sequence:
		if t.Kind() == reflect.Array {
			if !hasRefs(t.Elem()) {
				return 0
			}
			var n int64
			for i := range rv.Len() {
				n += e.indirect(rv.Index(i))
			}
			return n
		}
		if rv.IsNil() || !e.mark(visit{ptr: rv.Pointer(), typ: t, len: rv.Len(), cap: rv.Cap()}) {
			return 0
		}
		n := int64(rv.Cap()) * int64(t.Elem().Size())
		if hasRefs(t.Elem()) {
			for i := range rv.Len() {
				n += e.indirect(rv.Index(i))
			}
		}
		return n

	case Set, Mapping:
		if rv.IsNil() || !e.mark(visit{ptr: rv.Pointer(), typ: t}) {
			return 0
		}
		slot := int64(t.Key().Size()) + int64(t.Elem().Size()) + mapSlotOverhead
		n := mapHeader + int64(rv.Len())*slot
		followElem := Classify(t) == Mapping && hasRefs(t.Elem())
		iter := rv.MapRange()
		for iter.Next() {
			n += e.indirect(iter.Key())
			if followElem {
				n += e.indirect(iter.Value())
			}
		}
		return n

	case Composite:
		var n int64
		for i := range rv.NumField() {
			n += e.indirect(rv.Field(i))
		}
		return n

	case Reference:
		if rv.IsNil() {
			return 0
		}
		if t.Kind() == reflect.Pointer {
			if !e.mark(visit{ptr: rv.Pointer(), typ: t}) {
				return 0
			}
			target := rv.Elem()
			return int64(target.Type().Size()) + e.indirect(target)
		}
		// Interface: pointer-shaped dynamic values live in the data word,
		// everything else is boxed.
		dyn := rv.Elem()
		if pointerShaped(dyn.Type()) {
			return e.indirect(dyn)
		}
		return int64(dyn.Type().Size()) + e.indirect(dyn)
	}
	return 0
}

// hasRefs reports whether values of t can reference memory outside
// themselves.
func hasRefs(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasRefs(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasRefs(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func pointerShaped(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}
