package ir

// Version constants for the generator.
const (
	// GeneratorName appears in the header of every generated file.
	GeneratorName = "cqrsgen"

	// GeneratorVersion is the cqrsgen release.
	GeneratorVersion = "0.1.0"
)
