// Package errors provides structured error types for the zigbind pipeline.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: source location, the
// declaration or symbol involved, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindUnknownAttribute).
//		Location("src/hash.go", 42).
//		Decl("compute_hash").
//		Detail("unknown attribute key %q", key).
//		Build()
//
// All errors implement the standard error interface and support errors.Is/As.
// Every error in the pipeline is fatal: nothing is retried, everything
// propagates to the caller and aborts the host build.
package errors
