// Package facet filters program records by category, country and grade level.
//
// Each facet key maps to a fixed keyword. A record passes a facet when the
// facet has no selection, or when one of its relevant fields contains the
// keyword of at least one selected key. A record is kept only if it passes
// every facet.
package facet

import (
	"fmt"
	"slices"
	"strings"

	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
	"github.com/garyellow/program-catalog-go/internal/program"
)

// Facet names a filter dimension.
type Facet string

// Supported facets.
const (
	Category   Facet = "category"
	Country    Facet = "country"
	GradeLevel Facet = "grade_level"
)

// Facets lists every facet in display order.
var Facets = []Facet{Category, Country, GradeLevel}

// Keyword tables. Changing the taxonomy requires a code change.
var (
	categoryKeywords = map[string]string{
		"academic":   "academic",
		"cultural":   "cultural",
		"language":   "language",
		"internship": "internship",
		"volunteer":  "volunteer",
	}
	countryKeywords = map[string]string{
		"usa":       "usa",
		"uk":        "uk",
		"france":    "france",
		"germany":   "germany",
		"australia": "australia",
		"japan":     "japan",
		"canada":    "canada",
	}
	gradeLevelKeywords = map[string]string{
		"elementary": "elementary",
		"middle":     "middle",
		"high":       "high",
		"university": "university",
	}
)

func (f Facet) keywords() map[string]string {
	switch f {
	case Category:
		return categoryKeywords
	case Country:
		return countryKeywords
	case GradeLevel:
		return gradeLevelKeywords
	}
	return nil
}

// Keys returns the sorted keys accepted by the facet.
func (f Facet) Keys() []string {
	table := f.keywords()
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Valid reports whether key belongs to the facet's table.
func (f Facet) Valid(key string) bool {
	_, ok := f.keywords()[key]
	return ok
}

// ParseFacet maps a facet name to a Facet.
func ParseFacet(s string) (Facet, error) {
	switch Facet(s) {
	case Category, Country, GradeLevel:
		return Facet(s), nil
	case "gradeLevel", "grade":
		return GradeLevel, nil
	}
	return "", domerrors.NewValidationError("facet", fmt.Sprintf("unknown facet %q", s))
}

// Apply returns the records passing every facet of state, in input order.
func Apply(records []program.Program, state FilterState) []program.Program {
	if state.IsEmpty() {
		return records
	}
	out := make([]program.Program, 0, len(records))
	for i := range records {
		if Matches(&records[i], state) {
			out = append(out, records[i])
		}
	}
	return out
}

// Matches reports whether a single record passes every facet of state.
func Matches(p *program.Program, state FilterState) bool {
	return matchCategory(p, state.Category) &&
		matchCountry(p, state.Country) &&
		matchGradeLevel(p, state.GradeLevel)
}

func matchCategory(p *program.Program, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, tag := range p.Tags {
		if containsAny(tag.NameEN, selected, categoryKeywords) {
			return true
		}
	}
	return false
}

func matchCountry(p *program.Program, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	return containsAny(p.Country, selected, countryKeywords)
}

func matchGradeLevel(p *program.Program, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, level := range p.GradeLevels {
		if containsAny(level, selected, gradeLevelKeywords) {
			return true
		}
	}
	return false
}

// containsAny reports whether the lower-cased value contains the keyword of
// any selected key. Keys missing from the table never match.
func containsAny(value string, selected []string, table map[string]string) bool {
	if value == "" {
		return false
	}
	value = strings.ToLower(value)
	for _, key := range selected {
		keyword, ok := table[key]
		if !ok {
			continue
		}
		if strings.Contains(value, keyword) {
			return true
		}
	}
	return false
}
