// SPDX-License-Identifier: MIT

// Package value provides Box, the typed, ownership-holding container that
// every DAG node uses for its current value.
//
// What:
//
//   - Box[T] owns a value of type T together with its shape ("lengths"):
//     empty for scalars, [n] for vectors, [r, c] for rectangular matrices.
//   - Clone deep-copies slice payloads, so two boxes never alias storage.
//   - Float64s exposes a typed, zero-copy view for numeric inner loops.
//   - Convert performs the dynamic conversions a model front-end needs when
//     it hands an untyped datum to a typed node.
//
// Why:
//
//   - Nodes hand values to distributions and functions many thousands of
//     times per second; the box keeps one representation and offers a fast
//     path instead of a second "lean" copy of the model.
//
// Errors:
//
//   - ErrNotConvertible  the supplied value cannot be converted to T.
//
// Complexity:
//
//   - Get/Set on scalars O(1); Set on slices O(d) for shape discovery
//     (d = nesting depth, rows scanned once for rectangularity).
//   - Clone O(n) in the number of elements.
package value
