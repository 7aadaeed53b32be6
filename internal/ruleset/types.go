// Package ruleset counts rule entries in Surge-style list files and keeps their headers in sync.
package ruleset

import "sort"

// Well-known rule categories tracked in headers.
const (
	CategoryDomain       = "DOMAIN"
	CategoryDomainSuffix = "DOMAIN-SUFFIX"
)

// TimestampLayout is the format of the UPDATED header and README timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// LineKind classifies a single line of a rule list.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineRule
)

// Summary is the result of counting a rule list.
type Summary struct {
	Categories map[string]int
	Total      int
}

// Count returns the number of entries for category.
func (s Summary) Count(category string) int {
	return s.Categories[category]
}

// Domain returns the DOMAIN count.
func (s Summary) Domain() int {
	return s.Count(CategoryDomain)
}

// DomainSuffix returns the DOMAIN-SUFFIX count.
func (s Summary) DomainSuffix() int {
	return s.Count(CategoryDomainSuffix)
}

// CategoryCount is one row of SortedCategories.
type CategoryCount struct {
	Category string
	Count    int
}

// SortedCategories returns the category counts ordered by name.
func (s Summary) SortedCategories() []CategoryCount {
	out := make([]CategoryCount, 0, len(s.Categories))
	for category, n := range s.Categories {
		out = append(out, CategoryCount{Category: category, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Category < out[j].Category
	})
	return out
}
