// Package parser turns declaration blocks into signature models.
//
// A declaration block is the text after the "---" separator of an embedded
// foreign-code annotation. It contains function signature statements in an
// IDL syntax, optionally preceded by attributes, plus record declarations
// for types that cross the boundary:
//
//	#[repr(c)]
//	record Vec3 { x: f32, y: f32, z: f32 }
//
//	#[monomorphize(i32, f64)]
//	fn sum<T>(data: slice<T>) -> T;
//
//	#[bind(strategy = "dual", prefix_low = "c_")]
//	fn hash(data: slice<u8>) -> u64;
//
//	async fn compress(data: slice<u8>) -> u64;
//
// Parsing is a pure function: no side effects, and every malformed input is
// a hard error. Unknown attribute keys are rejected rather than ignored,
// since a silently dropped typo would produce confusingly incomplete
// bindings.
package parser
