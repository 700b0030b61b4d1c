// Package synth builds the declarations of the generated file.
//
// Every synthesizer is a pure function from compiler descriptors to ir
// fragments. Aggregate combines them into an ir.Program and enforces the
// cross-model rules: unique model names, unique generated identifiers and
// collision-free import aliases.
package synth
