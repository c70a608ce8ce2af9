package utils

import (
	"github.com/exascience/pargo/sync"

	"github.com/exascience/elcall/internal"
)

type symbolName string

// A Symbol is a unique pointer to a string. Target names in alignments
// are interned as Symbols so that records for the same target share one
// map key and compare by pointer.
type Symbol *string

func (s symbolName) Hash() uint64 {
	return internal.StringHash(string(s))
}

var symbolTable = sync.NewMap(0)

/*
Intern returns a Symbol for the given string.

It always returns the same pointer for strings that are equal, and
different pointers for strings that are not equal. Dereferencing the
pointer always yields a string that is equal to the original string.

It is safe for multiple goroutines to call Intern concurrently.
*/
func Intern(s string) Symbol {
	entry, _ := symbolTable.LoadOrStore(symbolName(s), Symbol(&s))
	return entry.(Symbol)
}
