package compiler

import (
	"errors"
	"fmt"
	"go/token"
)

// Analysis error codes (E200-E299)
const (
	// Module errors (E201)
	ErrParseFailure = "E201" // module is not valid Go

	// Capability errors (E202-E203)
	ErrMissingCapability   = "E202" // no type asserts a requested capability
	ErrDuplicateCapability = "E203" // more than one type asserts a capability

	// Tagged type errors (E204-E205)
	ErrMissingTaggedType   = "E204" // no Effect or Error type
	ErrAmbiguousTaggedType = "E205" // more than one Effect or Error type

	// Operation errors (E206-E209)
	ErrNoOperations           = "E206" // handle has no query or command
	ErrVariantCollision       = "E207" // two operations map to one variant name
	ErrUnsupportedDeclaration = "E208" // declaration cannot be referenced from the output package
	ErrNearMiss               = "E209" // almost-operation rejected in strict mode

	// Invocation errors (E210-E212)
	ErrNameCollision     = "E210" // two generated identifiers are equal
	ErrDuplicateModel    = "E211" // two modules share a domain or handle name
	ErrInvalidInvocation = "E212" // bad lifecycle or model list
)

// CompileError is a fatal analysis or synthesis error. Pos is set when the
// error points into a module.
type CompileError struct {
	Code    string         `json:"code"`
	Path    string         `json:"path,omitempty"`
	Pos     token.Position `json:"-"`
	Message string         `json:"message"`
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: [%s] %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: [%s] %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// CodeOf returns the code of the first CompileError in err's tree, or ""
// when there is none.
func CodeOf(err error) string {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func errorf(code, path string, pos token.Position, format string, args ...any) *CompileError {
	return &CompileError{
		Code:    code,
		Path:    path,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}
