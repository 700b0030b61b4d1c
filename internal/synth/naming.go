package synth

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// operationPrefixes are stripped from CamelCase operation names when
// followed by an upper-case letter, e.g. CommandAddItem -> AddItem.
var operationPrefixes = []string{"Command", "Query", "Com"}

// snakePrefixes are stripped from snake_case operation names, e.g.
// command_add_item -> AddItem.
var snakePrefixes = []string{"command", "query", "com"}

// VariantName derives the enumeration variant of an operation name.
func VariantName(op string) string {
	if strings.Contains(op, "_") {
		parts := strings.FieldsFunc(op, func(r rune) bool { return r == '_' })
		if len(parts) > 1 && slices.Contains(snakePrefixes, strings.ToLower(parts[0])) {
			parts = parts[1:]
		}
		caser := cases.Title(language.Und, cases.NoLower)
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(caser.String(p))
		}
		return b.String()
	}

	for _, prefix := range operationPrefixes {
		rest, ok := strings.CutPrefix(op, prefix)
		if !ok || rest == "" {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsUpper(r) {
			op = rest
			break
		}
	}
	return upperFirst(op)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
