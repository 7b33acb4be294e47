// Package interp wires the lexer, parser and evaluator into a single
// source-to-output run. The CLI is a thin shell over Run; tests drive Run
// directly with an in-memory sink.
package interp

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"brew/internal/evaluator"
	"brew/internal/lexer"
	"brew/internal/object"
	"brew/internal/parser"
	"brew/internal/token"
)

type Options struct {
	// MaxCallDepth bounds interpreted recursion; zero means the default.
	MaxCallDepth int
	// DebugASTPath, when non-empty, writes the parsed program as JSON to
	// the given file before evaluation.
	DebugASTPath string
	// Input feeds the program's input builtin; nil means stdin.
	Input io.Reader
}

// CompileError carries every lex and parse diagnostic for a source text.
// Nothing was executed when this is returned.
type CompileError struct {
	Diagnostics []parser.Diagnostic
	Source      string
}

func (e *CompileError) Error() string {
	lines := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		lines = append(lines, d.Format(e.Source))
	}
	return strings.Join(lines, "\n")
}

// RuntimeError wraps an error value raised during evaluation, formatted
// with the kind and the source position it surfaced at.
type RuntimeError struct {
	Kind    string
	Message string
	Line    int
	Column  int
	HasPos  bool
}

func (e *RuntimeError) Error() string {
	if e.HasPos {
		return fmt.Sprintf("%s [%d:%d]: %s", e.Kind, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Run executes source and writes program output to out. It returns a
// *CompileError when the source does not parse, a *RuntimeError when
// evaluation raises, and nil on success.
func Run(source string, out io.Writer, opts Options) error {
	l := lexer.New(source)
	p := parser.New(l, source)
	program := p.ParseProgram()

	if diags := p.Diagnostics(); len(diags) > 0 {
		slog.Debug("parse failed", slog.Int("diagnostics", len(diags)))
		return &CompileError{Diagnostics: diags, Source: source}
	}

	if opts.DebugASTPath != "" {
		if err := parser.WriteASTToJSON(program, opts.DebugASTPath); err != nil {
			slog.Warn("failed to write AST dump",
				slog.String("path", opts.DebugASTPath),
				slog.Any("err", err))
		}
	}

	env := object.NewEnvironment()
	ev := evaluator.New(out, env, opts.MaxCallDepth)
	if opts.Input != nil {
		ev.In = opts.Input
	}
	result := ev.Eval(program)

	if errObj, ok := result.(*object.Error); ok {
		return runtimeError(source, errObj)
	}
	return nil
}

func runtimeError(source string, errObj *object.Error) *RuntimeError {
	re := &RuntimeError{Kind: errObj.Kind, Message: errObj.Message}
	if errObj.Position >= 0 {
		re.Line, re.Column = token.LineAndColumn(source, errObj.Position)
		re.HasPos = true
	}
	return re
}
