// Package ruleset counts rule entries in Surge-style list files and keeps their headers in sync.
package ruleset

import (
	"fmt"
	"regexp"
	"strings"
)

// UpdatedLabel starts the "last updated time" line of a rule-set README.
const UpdatedLabel = "最后更新时间："

// Default template placeholders found in READMEs copied from the template directory.
const (
	DefaultDatetimePlaceholder = "{{DATETIME}}"
	DefaultNamePlaceholder     = "{{TEMPLATE_NAME}}"
)

// summaryRowPattern matches a two-column summary row such as "| DOMAIN | 12 |".
var summaryRowPattern = regexp.MustCompile(`^\|\s*(DOMAIN|DOMAIN-SUFFIX|TOTAL)\s*\|\s*\d+\s*\|\s*$`)

// ReadmeRewriter rewrites README summary sections. The zero value uses the
// default placeholders.
type ReadmeRewriter struct {
	DatetimePlaceholder string
	NamePlaceholder     string
}

// RewriteReadme rewrites content with the default placeholders.
func RewriteReadme(content, updatedAt string, domainCount, domainSuffixCount, total int, templateName string) string {
	return ReadmeRewriter{}.Rewrite(content, updatedAt, domainCount, domainSuffixCount, total, templateName)
}

// Rewrite updates the timestamp line, the DOMAIN / DOMAIN-SUFFIX / TOTAL rows
// and template placeholders. An empty templateName leaves the name
// placeholder untouched.
func (r ReadmeRewriter) Rewrite(content, updatedAt string, domainCount, domainSuffixCount, total int, templateName string) string {
	counts := map[string]int{
		CategoryDomain:       domainCount,
		CategoryDomainSuffix: domainSuffixCount,
		string(TagTotal):     total,
	}
	datetime := r.datetimePlaceholder()
	name := r.namePlaceholder()

	lines := SplitLines(content)
	for i, line := range lines {
		lines[i] = rewriteReadmeLine(line, updatedAt, counts, datetime, name, templateName)
	}

	return joinLines(lines, endsWithLineBreak(content))
}

func rewriteReadmeLine(line, updatedAt string, counts map[string]int, datetime, name, templateName string) string {
	if strings.HasPrefix(line, UpdatedLabel) {
		return UpdatedLabel + updatedAt
	}

	if m := summaryRowPattern.FindStringSubmatch(line); m != nil {
		return SummaryRow(m[1], counts[m[1]])
	}

	if datetime != "" && strings.Contains(line, datetime) {
		return strings.Replace(line, datetime, updatedAt, 1)
	}

	if templateName != "" && name != "" && strings.Contains(line, name) {
		return strings.ReplaceAll(line, name, templateName)
	}

	return line
}

// SummaryRow renders a README summary row with fixed column widths.
func SummaryRow(key string, value int) string {
	return fmt.Sprintf("| %-14s | %-5d |", key, value)
}

func (r ReadmeRewriter) datetimePlaceholder() string {
	if r.DatetimePlaceholder == "" {
		return DefaultDatetimePlaceholder
	}
	return r.DatetimePlaceholder
}

func (r ReadmeRewriter) namePlaceholder() string {
	if r.NamePlaceholder == "" {
		return DefaultNamePlaceholder
	}
	return r.NamePlaceholder
}
