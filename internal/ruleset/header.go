// Package ruleset counts rule entries in Surge-style list files and keeps their headers in sync.
package ruleset

import (
	"strconv"
	"strings"
)

// Tag is a header field maintained in list files.
type Tag string

const (
	TagUpdated      Tag = "UPDATED"
	TagDomain       Tag = "DOMAIN"
	TagDomainSuffix Tag = "DOMAIN-SUFFIX"
	TagTotal        Tag = "TOTAL"
)

// headerTags lists the tags in scan order. DOMAIN-SUFFIX cannot shadow DOMAIN
// because the prefix includes the colon.
var headerTags = []Tag{TagUpdated, TagDomain, TagDomainSuffix, TagTotal}

// Prefix returns the comment prefix that identifies the tag's line.
func (t Tag) Prefix() string {
	return "# " + string(t) + ":"
}

// Line renders the canonical header line for value.
func (t Tag) Line(value string) string {
	return t.Prefix() + " " + value
}

// Fixed insertion points for missing count tags. They are positions in the
// line slice at the time of insertion and do not account for where UPDATED
// ended up; existing files depend on this layout.
var fixedInsertIndex = map[Tag]int{
	TagDomain:       2,
	TagDomainSuffix: 3,
	TagTotal:        4,
}

// RewriteListHeader updates the UPDATED, DOMAIN, DOMAIN-SUFFIX and TOTAL
// header lines of a rule list, inserting the ones that are missing. All
// other lines are kept in order.
func RewriteListHeader(content, updatedAt string, domainCount, domainSuffixCount, total int) string {
	values := map[Tag]string{
		TagUpdated:      updatedAt,
		TagDomain:       strconv.Itoa(domainCount),
		TagDomainSuffix: strconv.Itoa(domainSuffixCount),
		TagTotal:        strconv.Itoa(total),
	}

	lines := SplitLines(content)
	found := make(map[Tag]bool, len(headerTags))

	for i, line := range lines {
		for _, tag := range headerTags {
			if strings.HasPrefix(line, tag.Prefix()) {
				lines[i] = tag.Line(values[tag])
				found[tag] = true
				break
			}
		}
	}

	if !found[TagUpdated] {
		lines = insertLine(lines, firstNonBlank(lines)+1, TagUpdated.Line(values[TagUpdated]))
	}
	for _, tag := range []Tag{TagDomain, TagDomainSuffix, TagTotal} {
		if !found[tag] {
			lines = insertLine(lines, fixedInsertIndex[tag], tag.Line(values[tag]))
		}
	}

	return joinLines(lines, endsWithLineBreak(content))
}

// firstNonBlank returns the index of the first non-blank line, or -1.
func firstNonBlank(lines []string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			return i
		}
	}
	return -1
}

// insertLine inserts line at index, appending when index is past the end.
func insertLine(lines []string, index int, line string) []string {
	if index > len(lines) {
		index = len(lines)
	}
	if index < 0 {
		index = 0
	}
	lines = append(lines, "")
	copy(lines[index+1:], lines[index:])
	lines[index] = line
	return lines
}
