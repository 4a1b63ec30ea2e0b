package compile

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/module"
	"github.com/nzsl-lang/nzslc/pkg/source"
)

// Project compiles a directory tree of NZSL modules, resolving `import`
// statements against sibling files by name. Imported modules are
// transformed before their importer, topologically; a cycle is reported as
// CircularImport rather than compiled. Project owns the module.FSResolver
// those imports are resolved through, so every module reachable from a
// single entry point is compiled at most once and shares one
// TransformerContext per module compile.
type Project struct {
	config CompilationConfig
	fs     *source.FileSet
	ext    string
	resolver *module.FSResolver
	//
	mu    sync.Mutex
	stack []string
	diags []errors.Diagnostic
}

// NewProject indexes root (recursively, matching files by ext) and
// prepares a Project ready to compile any module stem found under it.
func NewProject(root, ext string, config CompilationConfig) (*Project, error) {
	p := &Project{config: config, fs: source.NewFileSet(), ext: ext}
	//
	resolver, err := module.NewFSResolver(root, ext, p.compileModule)
	if err != nil {
		return nil, err
	}
	//
	p.resolver = resolver
	return p, nil
}

// Resolver exposes the Project's backing resolver, e.g. for a caller that
// wants to Watch() it for live recompilation.
func (p *Project) Resolver() *module.FSResolver { return p.resolver }

// CompileFile compiles the module at path (which must live under the root
// Project was constructed with) together with every module it
// transitively imports, returning the entry module's Result. Diagnostics
// raised while compiling a dependency (including CCircularImport) are
// folded into the returned Result.
func (p *Project) CompileFile(path string) Result {
	result := p.compile(path)
	//
	p.mu.Lock()
	depDiags := append([]errors.Diagnostic(nil), p.diags...)
	p.mu.Unlock()
	//
	result.Diags = append(depDiags, result.Diags...)
	return result
}

// compileModule adapts compile to module.CompileFunc's (*ir.Module, bool)
// signature for use as the FSResolver's compile callback; diagnostics
// raised here (a dependency's own errors, or a detected import cycle) are
// accumulated on p.diags rather than returned directly, since CompileFunc
// has no channel for them.
func (p *Project) compileModule(path string) (*ir.Module, bool) {
	result := p.compile(path)
	//
	if len(result.Diags) > 0 {
		p.mu.Lock()
		p.diags = append(p.diags, result.Diags...)
		p.mu.Unlock()
		return nil, false
	}
	//
	return result.Module, true
}

func (p *Project) compile(path string) Result {
	name := strings.TrimSuffix(filepath.Base(path), p.ext)
	//
	if cycle, detected := p.enter(name); detected {
		diag := errors.New(errors.Compilation, errors.CCircularImport, source.NoSpan,
			"import cycle detected: %s", strings.Join(cycle, " -> "))
		return Result{Diags: []errors.Diagnostic{*diag}}
	}
	defer p.leave()
	//
	file, err := source.ReadFile(path)
	if err != nil {
		diag := errors.New(errors.Compilation, errors.CModuleNotFound, source.NoSpan,
			"%s: %v", path, err)
		return Result{Diags: []errors.Diagnostic{*diag}}
	}
	//
	handle := p.fs.Intern(file)
	return CompileSource(p.config, p.fs, handle, p.resolver)
}

// enter pushes name onto the in-progress stack, reporting whether doing so
// would close a cycle (in which case the stack is left untouched and the
// cycle, read-only snapshot of the stack plus name, is returned for the
// diagnostic message).
func (p *Project) enter(name string) (cycle []string, detected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	//
	for _, s := range p.stack {
		if s == name {
			return append(append([]string(nil), p.stack...), name), true
		}
	}
	//
	p.stack = append(p.stack, name)
	return nil, false
}

func (p *Project) leave() {
	p.mu.Lock()
	defer p.mu.Unlock()
	//
	p.stack = p.stack[:len(p.stack)-1]
}
