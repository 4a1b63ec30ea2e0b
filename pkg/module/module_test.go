package module_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/module"
	"github.com/nzsl-lang/nzslc/pkg/serialize"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	//
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func stubCompile(calls *int) module.CompileFunc {
	return func(path string) (*ir.Module, bool) {
		*calls++
		return &ir.Module{Metadata: ir.Metadata{Name: filepath.Base(path)}}, true
	}
}

func TestFSResolverResolvesByStem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lighting.nzsl", "// lighting module")
	//
	var calls int
	r, err := module.NewFSResolver(dir, ".nzsl", stubCompile(&calls))
	if err != nil {
		t.Fatalf("NewFSResolver: %v", err)
	}
	//
	mod, ok := r.Resolve("lighting")
	if !ok || mod == nil {
		t.Fatalf("expected to resolve lighting, got ok=%v", ok)
	}
	//
	if calls != 1 {
		t.Fatalf("expected compile to run once, got %d", calls)
	}
	//
	if _, ok := r.Resolve("missing"); ok {
		t.Fatalf("expected missing module to fail to resolve")
	}
}

func TestFSResolverCachesUntilInvalidated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.nzsl", "// a")
	//
	var calls int
	r, err := module.NewFSResolver(dir, ".nzsl", stubCompile(&calls))
	if err != nil {
		t.Fatalf("NewFSResolver: %v", err)
	}
	//
	r.Resolve("a")
	r.Resolve("a")
	//
	if calls != 1 {
		t.Fatalf("expected one compile across repeated resolves, got %d", calls)
	}
}

func TestFSResolverWatchNotifiesOnUpdate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.nzsl", "// a")
	//
	var calls int
	r, err := module.NewFSResolver(dir, ".nzsl", stubCompile(&calls))
	if err != nil {
		t.Fatalf("NewFSResolver: %v", err)
	}
	//
	if err := r.Watch(); err != nil {
		t.Skipf("filesystem watch unavailable in this environment: %v", err)
	}
	//
	defer r.Close()
	//
	r.Resolve("a")
	//
	notified := make(chan string, 1)
	unregister := r.OnModuleUpdated(func(name string) { notified <- name })
	defer unregister()
	//
	writeFile(t, dir, "a.nzsl", "// a changed")
	//
	select {
	case name := <-notified:
		if name != "a" {
			t.Fatalf("expected notification for %q, got %q", "a", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for OnModuleUpdated notification")
	}
	//
	r.Resolve("a")
	//
	if calls != 2 {
		t.Fatalf("expected recompile after invalidation, got %d calls", calls)
	}
}

func TestArchiveResolverRoundTrip(t *testing.T) {
	a := serialize.NewArchive()
	mod := &ir.Module{Metadata: ir.Metadata{Name: "geometry"}}
	//
	if err := a.AddModule("geometry", mod, false); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	//
	w := serialize.NewWriter()
	if err := serialize.WriteArchive(w, a); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	//
	resolver, err := module.NewArchiveResolver(w.Bytes())
	if err != nil {
		t.Fatalf("NewArchiveResolver: %v", err)
	}
	//
	got, ok := resolver.Resolve("geometry")
	if !ok || got.Metadata.Name != "geometry" {
		t.Fatalf("expected to resolve geometry, got %#v ok=%v", got, ok)
	}
	//
	if _, ok := resolver.Resolve("missing"); ok {
		t.Fatalf("expected missing module to fail to resolve")
	}
}
