// Package mono instantiates generic signatures with concrete types.
//
// Substitution is a pure tree visitor over type descriptors: it builds a new
// signature and never mutates the input, so repeated instantiation of the
// same signature is byte-identical. The build cache relies on that.
package mono
