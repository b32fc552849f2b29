// Package sig defines the signature model shared by the zigbind pipeline.
//
// A Signature is the structured form of one interface declaration: the
// function name, its ordered parameters with type descriptors, the return
// type descriptor, generic parameters, the async marker, and the optional
// binding-strategy configuration.
//
// Signatures are created once by the declaration parser and are never
// mutated afterwards; the monomorphization engine and the code generator
// share them read-only. Monomorphization produces new Signature values
// rather than editing existing ones.
package sig
