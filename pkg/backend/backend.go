// Package backend defines the contract a code-generating back-end
// implements to plug into the compiler pipeline. Only the contract lives
// here; no concrete back-end ships in this module -- target codegen
// (GLSL/SPIR-V/WGSL emission) is a separate, out-of-tree concern.
package backend

import (
	"hash/fnv"

	"github.com/nzsl-lang/nzslc/pkg/context"
	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/module"
	"github.com/nzsl-lang/nzslc/pkg/transform"
)

// OptionHash is a 32-bit FNV-1a hash of an option's name, the stable,
// externally-visible identifier BackendParameters.OptionValues is keyed by.
type OptionHash uint32

// HashOption computes the OptionHash for a given option name.
func HashOption(name string) OptionHash {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return OptionHash(h.Sum32())
}

// RequiredPass names one of the semantic passes a Backend can declare it
// needs run before it is invoked; the executor runs the union requested
// by every registered back-end, in the pipeline's canonical order.
type RequiredPass uint8

const (
	Optimize RequiredPass = iota
	RemoveDeadCode
	ResolvePass
	TargetRequired
	Validate
)

// DebugLevel controls how much source-location and name metadata a
// back-end is asked to retain in its output. None emits the minimum
// needed for a valid artifact; Full embeds source lines.
type DebugLevel uint8

const (
	DebugNone DebugLevel = iota
	DebugMinimal
	DebugRegular
	DebugFull
)

// BackendParameters configures a single Backend invocation.
type BackendParameters struct {
	// ModuleResolver resolves this module's imports to their compiled
	// form; nil is valid for a back-end compiling a single self-contained
	// module with no imports.
	ModuleResolver module.Resolver
	// OptionValues supplies a concrete value for every `option`
	// declaration the module references, keyed by OptionHash rather than
	// by name so a back-end never needs to re-derive the hash itself.
	OptionValues map[OptionHash]ir.Value
	// Passes is the set of semantic passes this invocation requires, in
	// addition to whatever the Backend itself declares via
	// RegisterPasses.
	Passes map[RequiredPass]bool
	// DebugLevel controls emitted source-location/name metadata.
	DebugLevel DebugLevel
}

// RequestsPass reports whether p was requested, either directly in
// Passes or implied by DebugLevel (DebugFull always implies Validate,
// since embedding source lines into an invalid module would be
// meaningless).
func (p *BackendParameters) RequestsPass(pass RequiredPass) bool {
	if p.Passes != nil && p.Passes[pass] {
		return true
	}
	//
	return pass == Validate && p.DebugLevel == DebugFull
}

// Backend is implemented by a code generator that consumes a fully
// transformed ir.Module and produces a target-specific artifact. This
// module ships no implementation (back-end codegen is out of scope), only
// the contract every back-end is expected to satisfy.
type Backend interface {
	// Name identifies this back-end for diagnostics (e.g. "spirv", "glsl").
	Name() string
	// RegisterPasses declares, by mutating the executor's pass list via
	// the given PassSet, the set of semantic passes this back-end needs
	// to have run before Emit is called.
	RegisterPasses(set transform.PassSet, params BackendParameters) *transform.TransformerExecutor
	// Emit produces this back-end's target artifact from an already
	// fully-transformed module, alongside any side-tables (e.g. explicit
	// binding assignments) the caller might need.
	Emit(mod *ir.Module, ctx *context.TransformerContext, params BackendParameters) (artifact []byte, diags []errors.Diagnostic)
}
