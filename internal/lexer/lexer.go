// Package lexer turns parsed source into the normalized simcore.Token
// stream the similarity engine compares. It walks a tree-sitter parse tree
// leaf by leaf, the same shape the token sequence in the tool this one was
// adapted from, but emits the engine's compact interned Token type instead
// of a (kind, line) pair — position information belongs to the Store's
// Text ranges now, not to the token itself.
package lexer

import (
	"fmt"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/jmylchreest/simtool/internal/grammar"
	"github.com/jmylchreest/simtool/internal/simcore"
)

// identifierKinds are tree-sitter node types that represent identifiers.
// Normalized to a single "id" symbol so renamed variables still collide.
var identifierKinds = map[string]bool{
	"identifier":                            true,
	"type_identifier":                       true,
	"field_identifier":                      true,
	"package_identifier":                    true,
	"property_identifier":                   true,
	"shorthand_property_identifier":         true,
	"shorthand_property_identifier_pattern": true,
}

// literalKinds are tree-sitter node types for literal values, normalized to
// a single "lit" symbol so clones differing only by a literal still match.
var literalKinds = map[string]bool{
	"interpreted_string_literal": true,
	"raw_string_literal":         true,
	"string":                     true,
	"template_string":            true,
	"string_literal":             true,
	"number":                     true,
	"integer":                    true,
	"float":                      true,
	"int_literal":                true,
	"float_literal":              true,
	"true":                       true,
	"false":                      true,
	"nil":                        true,
	"null":                       true,
	"none":                       true,
	"None":                       true,
	"undefined":                  true,
}

// keywordKinds are structural keywords preserved verbatim (prefixed) since
// they carry most of a clone's shape.
var keywordKinds = map[string]bool{
	"if": true, "else": true, "for": true, "while": true, "switch": true,
	"case": true, "return": true, "break": true, "continue": true,
	"func": true, "function": true, "def": true, "class": true,
	"struct": true, "import": true, "try": true, "catch": true,
	"finally": true, "throw": true, "async": true, "await": true,
}

// Interner assigns a stable simcore.Token to every distinct normalized
// symbol it has seen, reserving simcore.SeparatorToken (0) for the driver's
// own use. It is safe for concurrent use; cmd/simtool tokenizes files
// from a worker pool sharing one Interner so tokens agree across files.
type Interner struct {
	mu     sync.Mutex
	ids    map[string]simcore.Token
	next   simcore.Token
	starts map[simcore.Token]bool // may this token begin a run?
}

// NewInterner returns an empty Interner. Token values start at 1.
func NewInterner() *Interner {
	return &Interner{
		ids:    make(map[string]simcore.Token),
		next:   1,
		starts: make(map[simcore.Token]bool),
	}
}

func (in *Interner) intern(symbol string, mayStart bool) simcore.Token {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.ids[symbol]; ok {
		return t
	}
	t := in.next
	in.next++
	in.ids[symbol] = t
	in.starts[t] = mayStart
	return t
}

// StartPredicate returns the simcore.StartPredicate this Interner backs.
// Tokens the interner never marked as valid run starts (punctuation,
// single-character operators) return false.
func (in *Interner) StartPredicate() simcore.StartPredicate {
	return func(t simcore.Token) bool {
		if t == simcore.SeparatorToken {
			return false
		}
		in.mu.Lock()
		defer in.mu.Unlock()
		return in.starts[t]
	}
}

// File is one source file's token sequence, ready to be pushed into a
// simcore.Store and registered as a Text.
type File struct {
	Path   string
	Tokens []simcore.Token
	// Lines[k] is the 1-indexed source line Tokens[k] came from, used to
	// translate a reported run back into human-readable coordinates.
	Lines []int
}

// Tokenize parses content with lang's grammar and returns its normalized
// token sequence. A nil, nil result means lang has no registered grammar —
// the caller should skip the file rather than treat it as an error.
func Tokenize(reg *grammar.Registry, in *Interner, path string, content []byte, lang string) (*File, error) {
	if !reg.Has(lang) {
		return nil, nil
	}
	sitterLang, err := reg.Load(lang)
	if err != nil {
		return nil, nil
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(sitterLang); err != nil {
		return nil, fmt.Errorf("lexer: set language %s: %w", lang, err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("lexer: parse %s: tree-sitter returned no tree", path)
	}
	defer tree.Close()

	f := &File{Path: path}
	walkLeaves(tree.RootNode(), content, in, f)
	return f, nil
}

// DebugToken is one normalized symbol emitted during Tokenize, reported
// without interning so a human can read it directly (the `simtool lex`
// command's only consumer).
type DebugToken struct {
	Symbol   string
	Line     int
	MayStart bool
}

// TokenizeDebug parses content the same way Tokenize does but returns the
// normalized symbol strings instead of interned Tokens, for the `lex`
// command's human-readable dump (spec's "-" lexical-scan-only option).
func TokenizeDebug(reg *grammar.Registry, path string, content []byte, lang string) ([]DebugToken, error) {
	if !reg.Has(lang) {
		return nil, nil
	}
	sitterLang, err := reg.Load(lang)
	if err != nil {
		return nil, nil
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(sitterLang); err != nil {
		return nil, fmt.Errorf("lexer: set language %s: %w", lang, err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("lexer: parse %s: tree-sitter returned no tree", path)
	}
	defer tree.Close()

	var out []DebugToken
	walkLeavesDebug(tree.RootNode(), content, &out)
	return out, nil
}

func walkLeavesDebug(node *tree_sitter.Node, content []byte, out *[]DebugToken) {
	if node.ChildCount() == 0 {
		kind := node.Kind()
		line := int(node.StartPosition().Row) + 1
		symbol, mayStart := normalize(kind, node, content)
		if symbol != "" {
			*out = append(*out, DebugToken{Symbol: symbol, Line: line, MayStart: mayStart})
		}
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil {
			walkLeavesDebug(child, content, out)
		}
	}
}

func walkLeaves(node *tree_sitter.Node, content []byte, in *Interner, f *File) {
	if node.ChildCount() == 0 {
		kind := node.Kind()
		line := int(node.StartPosition().Row) + 1

		symbol, mayStart := normalize(kind, node, content)
		if symbol != "" {
			f.Tokens = append(f.Tokens, in.intern(symbol, mayStart))
			f.Lines = append(f.Lines, line)
		}
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil {
			walkLeaves(child, content, in, f)
		}
	}
}

// normalize maps a tree-sitter leaf to a normalized symbol and reports
// whether that symbol may begin a run. Comments and whitespace are
// dropped (empty symbol). Punctuation and short operators are kept
// verbatim but excluded from being a run start, matching the lexer
// contract in SPEC_FULL.md §4.7: a run should read as a recognizable
// statement, not begin mid-punctuation.
func normalize(kind string, node *tree_sitter.Node, content []byte) (symbol string, mayStart bool) {
	if kind == "comment" || strings.HasSuffix(kind, "comment") {
		return "", false
	}
	if identifierKinds[kind] {
		return "id", true
	}
	if literalKinds[kind] {
		return "lit", true
	}
	if keywordKinds[kind] {
		return "kw:" + kind, true
	}

	text := string(content[node.StartByte():node.EndByte()])
	if len(text) <= 3 {
		return text, false // operators and punctuation: +, -, ==, (, {, ...
	}
	return kind, false
}
