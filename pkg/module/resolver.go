// Package module implements the module resolver contract the compiler pipeline
// consults whenever a source file contains an `import`. A Resolver turns a
// bare module name into its already-compiled ir.Module; this package supplies
// a filesystem-backed implementation plus a read-only one backed by a
// pre-built pkg/serialize archive.
package module

import "github.com/nzsl-lang/nzslc/pkg/ir"

// Resolver looks up a compiled module by name. Implementations may cache or
// recompile on demand; the only contract is that Resolve's result reflects the
// module's current on-disk state at the time of the call.
type Resolver interface {
	// Resolve returns the compiled module registered under name, or
	// (nil, false) if no such module exists.
	Resolve(name string) (*ir.Module, bool)
}

// UpdateNotifier is implemented by a Resolver that can tell interested
// callers when a previously resolved module has changed on disk, so a
// long-running host (an editor, a watch-mode build) can re-run the
// pipeline for every module that imported it instead of polling.
type UpdateNotifier interface {
	// OnModuleUpdated registers cb to be called with a module's name every
	// time that module's compiled form changes. Returns a function that
	// unregisters cb.
	OnModuleUpdated(cb func(name string)) (unregister func())
}
