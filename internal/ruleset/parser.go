// Package ruleset counts rule entries in Surge-style list files and keeps their headers in sync.
package ruleset

import (
	"strings"
)

// SplitLines splits content on \r\n, \r or \n. A trailing line break does not
// produce an empty last element.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}

	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			lines = append(lines, content[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, content[start:i])
			if i+1 < len(content) && content[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}

func endsWithLineBreak(content string) bool {
	return strings.HasSuffix(content, "\n") || strings.HasSuffix(content, "\r")
}

func joinLines(lines []string, trailingBreak bool) string {
	out := strings.Join(lines, "\n")
	if trailingBreak {
		out += "\n"
	}
	return out
}

// ClassifyLine reports whether line is blank, a comment or a rule entry.
func ClassifyLine(line string) LineKind {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return LineBlank
	case strings.HasPrefix(trimmed, "#"):
		return LineComment
	default:
		return LineRule
	}
}

// Category extracts the category token of a rule entry: the text before the
// first comma, trimmed. Everything after the comma is ignored.
func Category(line string) string {
	category, _, _ := strings.Cut(line, ",")
	return strings.TrimSpace(category)
}

// Count parses a rule list and tallies its entries per category.
func Count(content string) Summary {
	summary := Summary{Categories: make(map[string]int)}

	for _, line := range SplitLines(content) {
		if ClassifyLine(line) != LineRule {
			continue
		}

		category := Category(line)
		if category == "" {
			continue
		}

		summary.Categories[category]++
		summary.Total++
	}

	return summary
}
