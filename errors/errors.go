package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Is and As re-export the standard helpers so callers need only one errors
// import.

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// Phase indicates where in the pipeline the error occurred
type Phase string

const (
	PhaseParse       Phase = "parse"       // declaration parsing
	PhaseScan        Phase = "scan"        // source tree scanning
	PhaseLower       Phase = "lower"       // type lowering / ABI mapping
	PhaseMonomorph   Phase = "monomorph"   // generic instantiation
	PhaseGenerate    Phase = "generate"    // binding code generation
	PhaseBuild       Phase = "build"       // foreign compiler invocation
	PhaseLink        Phase = "link"        // linker directive emission
	PhaseConfig      Phase = "config"      // tool configuration
	PhaseVerify      Phase = "verify"      // artifact verification
)

// Kind categorizes the error
type Kind string

const (
	KindSyntax           Kind = "syntax"
	KindUnknownAttribute Kind = "unknown_attribute"
	KindInvalidGeneric   Kind = "invalid_generic"
	KindUnsupportedType  Kind = "unsupported_type"
	KindMissingLayout    Kind = "missing_layout"
	KindTypeNotDeclared  Kind = "type_not_declared"
	KindInvalidIdent     Kind = "invalid_identifier"
	KindInvalidConfig    Kind = "invalid_config"
	KindCompilerFailed   Kind = "compiler_failed"
	KindTargetUnmapped   Kind = "target_unmapped"
	KindMissingExport    Kind = "missing_export"
	KindIO               Kind = "io"
)

// Error is the structured error type used throughout the pipeline
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	File   string
	Decl   string
	Detail string
	Line   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.File != "" {
		b.WriteString(" at ")
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
	}

	if e.Decl != "" {
		b.WriteString(" in ")
		b.WriteString(e.Decl)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Location sets the source file and line the error refers to
func (b *Builder) Location(file string, line int) *Builder {
	b.err.File = file
	b.err.Line = line
	return b
}

// Decl sets the declaration or symbol name involved
func (b *Builder) Decl(name string) *Builder {
	b.err.Decl = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Syntax creates a declaration syntax error
func Syntax(file string, line int, detail string, args ...any) *Error {
	return New(PhaseParse, KindSyntax).Location(file, line).Detail(detail, args...).Build()
}

// UnknownAttribute creates an unknown-attribute-key error.
// Unknown keys are hard errors: silently ignoring a typo would produce
// confusingly incomplete bindings.
func UnknownAttribute(file string, line int, key string) *Error {
	return New(PhaseParse, KindUnknownAttribute).
		Location(file, line).
		Detail("unknown attribute key %q", key).
		Build()
}

// MissingLayout creates an error for a record used across the boundary
// without a declared fixed layout.
func MissingLayout(record string) *Error {
	return New(PhaseLower, KindMissingLayout).
		Decl(record).
		Detail("record %s has no declared C layout; add #[repr(c)]", record).
		Build()
}

// CompilerFailed wraps a non-zero foreign compiler exit. The diagnostic text
// is passed through unmodified so line/column references stay useful.
func CompilerFailed(diagnostics string) *Error {
	return New(PhaseBuild, KindCompilerFailed).Detail("%s", diagnostics).Build()
}

// TargetUnmapped creates an error for a target triple absent from the static
// mapping table, listing the known triples.
func TargetUnmapped(triple string, known []string) *Error {
	return New(PhaseBuild, KindTargetUnmapped).
		Detail("no foreign target for %q; known triples: %s", triple, strings.Join(known, ", ")).
		Build()
}
