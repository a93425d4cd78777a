package util

import (
	"strings"
	"unicode"

	"github.com/teranos/pbts/errors"
)

// Naming is the casing rule applied to output file base names.
type Naming string

const (
	NamingPreserve Naming = "preserve"
	NamingSnake    Naming = "snake"
	NamingKebab    Naming = "kebab"
	NamingCamel    Naming = "camel"
	NamingPascal   Naming = "pascal"
)

// ParseNaming validates a naming convention read from flags or config.
// An empty string means NamingPreserve.
func ParseNaming(s string) (Naming, error) {
	switch n := Naming(strings.ToLower(strings.TrimSpace(s))); n {
	case "":
		return NamingPreserve, nil
	case NamingPreserve, NamingSnake, NamingKebab, NamingCamel, NamingPascal:
		return n, nil
	default:
		return "", errors.WithHint(
			errors.Newf("unknown naming convention %q", s),
			"use one of: preserve, snake, kebab, camel, pascal")
	}
}

// Apply converts a base name according to the convention.
func (n Naming) Apply(name string) string {
	switch n {
	case NamingSnake:
		return ToSnakeCase(name)
	case NamingKebab:
		return ToKebabCase(name)
	case NamingCamel:
		return ToCamelCase(ToSnakeCase(name))
	case NamingPascal:
		return ToPascalCase(ToSnakeCase(name))
	default:
		return name
	}
}

// ToSnakeCase converts PascalCase, camelCase or kebab-case to snake_case.
// Handles acronyms properly (e.g., "HTTPSConnection" -> "https_connection")
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(strings.ReplaceAll(s, "-", "_"))

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		// Check if we need to insert underscore before this character
		if i > 0 && unicode.IsUpper(r) && runes[i-1] != '_' {
			// Don't insert underscore if previous char was uppercase (acronym)
			// unless next char is lowercase (end of acronym)
			prevUpper := unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if !prevUpper || nextLower {
				result.WriteRune('_')
			}
		}

		result.WriteRune(r)
	}

	return strings.ToLower(result.String())
}

// ToKebabCase converts any supported casing to kebab-case
func ToKebabCase(s string) string {
	return strings.ReplaceAll(ToSnakeCase(s), "_", "-")
}

// ToPascalCase converts snake_case or kebab-case to PascalCase
func ToPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			// Capitalize first letter, keep rest as-is
			runes := []rune(part)
			result.WriteRune(unicode.ToUpper(runes[0]))
			result.WriteString(string(runes[1:]))
		}
	}

	return result.String()
}

// ToCamelCase converts snake_case or kebab-case to camelCase
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if len(pascal) == 0 {
		return pascal
	}

	// Lowercase first letter
	runes := []rune(pascal)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// LowerFirst lowercases only the first rune, e.g. RPC method "SayHello" -> "sayHello"
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
