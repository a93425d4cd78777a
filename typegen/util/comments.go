package util

import (
	"strings"
)

// CommentLines splits a leading proto comment into trimmed JSDoc-safe lines.
// Blank lines at either end are dropped; inner blank lines are kept so
// paragraphs survive.
func CommentLines(comment string) []string {
	if strings.TrimSpace(comment) == "" {
		return nil
	}

	raw := strings.Split(strings.ReplaceAll(comment, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, CleanCommentText(line))
	}

	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// CleanCommentText trims whitespace and neutralizes a closing block-comment
// marker so the text can sit inside /** */.
func CleanCommentText(text string) string {
	text = strings.TrimSpace(text)
	return strings.ReplaceAll(text, "*/", "*\\/")
}
