// Package ir provides the intermediate representation shared by the cqrsgen
// pipeline.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. The analysis stages (compiler) fill
// the descriptor types, the synthesis stage (synth) builds a Program from
// them, and the emitter serializes the Program without further validation.
//
// Key design constraints:
//   - Descriptors are immutable once the compiler returns them
//   - Program fragments carry rendered Go type strings, already qualified for
//     the output package
//   - Ordering is fixed by the producers (declaration order for effect
//     variants, lexicographic order for operations), never by map iteration
package ir
