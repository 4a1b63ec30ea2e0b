// Package context implements TransformerContext, the set of interned
// identifier tables every transform pass resolves names against. Each of
// the nine tables (alias, const, external, function, intrinsic, module,
// struct, type, variable) is a Table[T] differing only in payload type: a
// dense-index interning table with register/preregister/retrieve/clear,
// implemented once as a generic container and instantiated nine times.
package context

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/source"
)

// Table is a dense-index interning table: each entry gets a stable uint32
// index the moment it is registered, and that index never changes even if
// entries are later cleared, so every other structure that stored the
// index by value stays valid.
//
// Misuse -- registering over an already-registered index, or touching an
// index that was never allocated -- is a compiler bug, not a user-facing
// error, and panics with an Ast-family diagnostic rather than returning it.
type Table[T any] struct {
	byName        map[string]uint32
	entries       []T
	preregistered *bitset.BitSet
	used          *bitset.BitSet
}

// NewTable constructs an empty Table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		byName:        make(map[string]uint32),
		preregistered: bitset.New(0),
		used:          bitset.New(0),
	}
}

// RegisterNewIndex allocates a fresh index for name with no payload yet
// (used when a forward reference must be resolvable before its
// declaration's body has been processed, e.g. a function calling itself).
func (t *Table[T]) RegisterNewIndex(name string) uint32 {
	idx := uint32(len(t.entries))
	var zero T
	t.entries = append(t.entries, zero)
	t.byName[name] = idx
	t.preregistered.Set(uint(idx))
	return idx
}

// PreregisterIndex reserves idx (already known, e.g. from a binary module
// being deserialized) for name without requiring sequential allocation.
func (t *Table[T]) PreregisterIndex(name string, idx uint32) {
	for uint32(len(t.entries)) <= idx {
		var zero T
		t.entries = append(t.entries, zero)
	}
	//
	t.byName[name] = idx
	t.preregistered.Set(uint(idx))
}

// Register stores value at idx and marks the entry used. idx must have
// been allocated (RegisterNewIndex/PreregisterIndex) and not yet
// registered; registering an already-used index panics with
// AstAlreadyUsedIndexPreregister, an unallocated one with AstInvalidIndex.
// To overwrite a registered entry, use Update.
func (t *Table[T]) Register(idx uint32, value T) {
	if int(idx) >= len(t.entries) {
		panic(errors.New(errors.Ast, errors.AstInvalidIndex, source.NoSpan,
			"register of unallocated index %d (table has %d entries)", idx, len(t.entries)))
	}
	//
	if t.used.Test(uint(idx)) {
		panic(errors.New(errors.Ast, errors.AstAlreadyUsedIndexPreregister, source.NoSpan,
			"index %d is already registered", idx))
	}
	//
	t.entries[idx] = value
	t.used.Set(uint(idx))
	t.preregistered.Clear(uint(idx))
}

// Update overwrites the entry at idx, which must already be registered;
// an index that is missing or only preregistered panics with
// AstExpectedIndex.
func (t *Table[T]) Update(idx uint32, value T) {
	if int(idx) >= len(t.entries) || !t.used.Test(uint(idx)) {
		panic(errors.New(errors.Ast, errors.AstExpectedIndex, source.NoSpan,
			"update of unregistered index %d", idx))
	}
	//
	t.entries[idx] = value
}

// RegisterNamed is the common case: allocate a new index and register its
// value in one step.
func (t *Table[T]) RegisterNamed(name string, value T) uint32 {
	idx := t.RegisterNewIndex(name)
	t.Register(idx, value)
	return idx
}

// Retrieve looks up an entry by name.
func (t *Table[T]) Retrieve(name string) (T, uint32, bool) {
	idx, ok := t.byName[name]
	if !ok {
		var zero T
		return zero, 0, false
	}
	//
	return t.entries[idx], idx, true
}

// Get returns the entry at idx directly, for callers that already hold a
// resolved index (e.g. an ir.Identifier.VarIndex). An index the table
// never allocated panics with AstInvalidIndex.
func (t *Table[T]) Get(idx uint32) T {
	if int(idx) >= len(t.entries) {
		panic(errors.New(errors.Ast, errors.AstInvalidIndex, source.NoSpan,
			"retrieve of unallocated index %d (table has %d entries)", idx, len(t.entries)))
	}
	//
	return t.entries[idx]
}

// Len reports how many entries have been allocated.
func (t *Table[T]) Len() int {
	return len(t.entries)
}

// IsUsed reports whether idx has had Register called on it (as opposed to
// only having been preregistered).
func (t *Table[T]) IsUsed(idx uint32) bool {
	return t.used.Test(uint(idx))
}

// Clear resets the table to empty, used between independent compilations
// sharing one TransformerContext instance.
func (t *Table[T]) Clear() {
	t.byName = make(map[string]uint32)
	t.entries = nil
	t.preregistered = bitset.New(0)
	t.used = bitset.New(0)
}
