package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/simtool/internal/grammar"
	"github.com/jmylchreest/simtool/internal/lexer"
)

// cmdLex implements `simtool lex <path>`: tokenize a single file and print
// its normalized token stream, the debugging aid mirroring the original
// tool's lexical-scan-only mode (spec §6, SPEC_FULL.md CLI surface).
func cmdLex(args []string) error {
	jsonOut := hasFlag(args, "--json")
	paths := positionalArgs(args)
	if len(paths) != 1 {
		return fmt.Errorf("usage: simtool lex [--json] <path>")
	}
	path := paths[0]

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	lang := grammar.ByExtension(ext)
	if lang == "" {
		return fmt.Errorf("simtool: no grammar registered for extension %q", ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("simtool: read %s: %w", path, err)
	}

	reg := grammar.NewRegistry()
	tokens, err := lexer.TokenizeDebug(reg, path, content, lang)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tokens)
	}
	for _, t := range tokens {
		start := " "
		if t.MayStart {
			start = "*"
		}
		fmt.Printf("%5d %s %s\n", t.Line, start, t.Symbol)
	}
	return nil
}
