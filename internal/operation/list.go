package operation

import "reflect"

// List is an ordered list of Operations, the element type Program wraps
// with a parser and execution cursor.
type List []Operation

// RemoveOperation removes the first operation equal (by value) to op and
// reports whether anything was removed.
//
// This resolves the design note's open question about
// harp_action_list_remove_action, which matches by pointer identity and
// keeps scanning past the first match so duplicate pointers are each
// removed: this implementation documents and pins first-match-only
// semantics, since Go's value-typed operations have no pointer identity
// to distinguish duplicates by in the first place, and a program that
// repeats the same operation twice almost always means to remove one
// instance of it, not all.
func (l *List) RemoveOperation(op Operation) bool {
	for i, o := range *l {
		if reflect.DeepEqual(o, op) {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return true
		}
	}
	return false
}

// IndexOfKind returns the position of the first operation with the given
// kind starting at or after from, or -1.
func (l List) IndexOfKind(from int, k Kind) int {
	for i := from; i < len(l); i++ {
		if l[i].Kind() == k {
			return i
		}
	}
	return -1
}
