package module

import (
	"os"

	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/serialize"
)

// ArchiveResolver resolves modules out of a pre-serialized nzsla archive, for
// a deployed back-end that ships a batch of precompiled dependencies instead
// of recompiling from source on every run. It implements Resolver but not
// UpdateNotifier: an archive is a static snapshot, with no filesystem to
// watch.
type ArchiveResolver struct {
	modules map[string]*ir.Module
}

// LoadArchive reads and decodes every module in the nzsla file at path.
func LoadArchive(path string) (*ArchiveResolver, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	//
	return NewArchiveResolver(raw)
}

// NewArchiveResolver decodes an archive already read into memory.
func NewArchiveResolver(raw []byte) (*ArchiveResolver, error) {
	r := serialize.NewReader(raw)
	//
	modules, err := serialize.ReadArchive(r)
	if err != nil {
		return nil, err
	}
	//
	return &ArchiveResolver{modules: modules}, nil
}

// Resolve implements Resolver.
func (a *ArchiveResolver) Resolve(name string) (*ir.Module, bool) {
	mod, ok := a.modules[name]
	return mod, ok
}
