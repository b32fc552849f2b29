// Package lower maps declared type descriptors to their FFI-safe ABI form.
//
// Lowering is total over the supported shapes and fails explicitly on
// everything else. The one rule with teeth: a record only lowers by identity
// when it declared a fixed C layout. Guessing a layout is the bug class this
// whole tool exists to prevent, so a record without #[repr(c)] is a hard
// error, not a warning.
package lower
