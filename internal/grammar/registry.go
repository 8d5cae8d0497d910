// Package grammar holds the tree-sitter grammars simtool ships compiled in.
// Unlike the assistant this tool is descended from, simtool never loads a
// grammar dynamically at runtime: the set of languages it can tokenize is
// fixed at build time, so there is no download cache, no ABI negotiation,
// and no purego FFI layer — just a static name-to-language table.
package grammar

import (
	"fmt"
	"sync"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Provider is the signature every tree-sitter Go binding exposes: a
// function returning an unsafe.Pointer to its compiled TSLanguage.
type Provider func() unsafe.Pointer

// NotFoundError is returned by Registry.Load for a language simtool was not
// built with a grammar for.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("grammar %q is not compiled into this build", e.Name)
}

// Registry is the static set of grammars compiled into the binary. It
// memoizes the *tree_sitter.Language built from each Provider the first
// time it is asked for, since constructing one is not free.
type Registry struct {
	mu       sync.Mutex
	provider map[string]Provider
	loaded   map[string]*tree_sitter.Language
}

// NewRegistry returns a Registry preloaded with the 9 languages simtool
// ships support for.
func NewRegistry() *Registry {
	r := &Registry{
		provider: make(map[string]Provider),
		loaded:   make(map[string]*tree_sitter.Language),
	}
	r.register("go", tree_sitter_go.Language)
	r.register("python", tree_sitter_python.Language)
	r.register("javascript", tree_sitter_javascript.Language)
	r.register("typescript", func() unsafe.Pointer { return tree_sitter_typescript.LanguageTypescript() })
	r.register("rust", tree_sitter_rust.Language)
	r.register("java", tree_sitter_java.Language)
	r.register("c", tree_sitter_c.Language)
	r.register("cpp", tree_sitter_cpp.Language)
	r.register("zig", tree_sitter_zig.Language)
	return r
}

func (r *Registry) register(name string, p Provider) {
	r.provider[name] = p
}

// Load returns the Language for name, building and caching it on first use.
func (r *Registry) Load(name string) (*tree_sitter.Language, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lang, ok := r.loaded[name]; ok {
		return lang, nil
	}
	p, ok := r.provider[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	lang := tree_sitter.NewLanguage(p())
	r.loaded[name] = lang
	return lang, nil
}

// Has reports whether name is one of the compiled-in grammars.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.provider[name]
	return ok
}

// Names returns every compiled-in grammar name.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.provider))
	for name := range r.provider {
		names = append(names, name)
	}
	return names
}

// ByExtension maps a file extension (without the leading dot) to the
// grammar name that handles it, or "" if none does.
func ByExtension(ext string) string {
	switch ext {
	case "go":
		return "go"
	case "py":
		return "python"
	case "js", "jsx", "mjs":
		return "javascript"
	case "ts", "tsx":
		return "typescript"
	case "rs":
		return "rust"
	case "java":
		return "java"
	case "c", "h":
		return "c"
	case "cpp", "cc", "cxx", "hpp":
		return "cpp"
	case "zig":
		return "zig"
	default:
		return ""
	}
}
