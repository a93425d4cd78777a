package typescript

// reserved holds words that cannot name an exported declaration.
var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "implements": true, "interface": true, "let": true,
	"package": true, "private": true, "protected": true, "public": true,
	"static": true, "yield": true, "await": true, "arguments": true, "eval": true,
	"undefined": true, "NaN": true, "Infinity": true,
}

// SafeName appends an underscore to names that are reserved words.
func SafeName(name string) string {
	if reserved[name] {
		return name + "_"
	}
	return name
}
