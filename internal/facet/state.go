package facet

import (
	"fmt"
	"slices"
	"strings"

	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
)

// FilterState is the current facet selection. Each facet holds a sorted set
// of keys. The zero value selects nothing.
type FilterState struct {
	Category   []string `json:"category"`
	Country    []string `json:"country"`
	GradeLevel []string `json:"grade_level"`
}

// NewFilterState builds a normalized state from raw selections.
func NewFilterState(category, country, gradeLevel []string) FilterState {
	return FilterState{
		Category:   normalize(category),
		Country:    normalize(country),
		GradeLevel: normalize(gradeLevel),
	}
}

// Selected returns the keys selected for f.
func (s FilterState) Selected(f Facet) []string {
	switch f {
	case Category:
		return s.Category
	case Country:
		return s.Country
	case GradeLevel:
		return s.GradeLevel
	}
	return nil
}

// Toggle adds key to f when absent and removes it when present.
func (s FilterState) Toggle(f Facet, key string) FilterState {
	key = strings.ToLower(strings.TrimSpace(key))
	current := s.Selected(f)
	var next []string
	if slices.Contains(current, key) {
		next = slices.DeleteFunc(slices.Clone(current), func(k string) bool { return k == key })
	} else {
		next = normalize(append(slices.Clone(current), key))
	}
	return s.with(f, next)
}

// Clear returns an empty state.
func (s FilterState) Clear() FilterState {
	return FilterState{}
}

// IsEmpty reports whether no facet has a selection.
func (s FilterState) IsEmpty() bool {
	return len(s.Category) == 0 && len(s.Country) == 0 && len(s.GradeLevel) == 0
}

// Key returns a canonical representation, equal for equal selections.
func (s FilterState) Key() string {
	return fmt.Sprintf("category=%s;country=%s;grade_level=%s",
		strings.Join(s.Category, ","),
		strings.Join(s.Country, ","),
		strings.Join(s.GradeLevel, ","),
	)
}

// Validate rejects keys that are not in their facet's keyword table.
func (s FilterState) Validate() error {
	for _, f := range Facets {
		for _, key := range s.Selected(f) {
			if !f.Valid(key) {
				return domerrors.NewValidationError(string(f),
					fmt.Sprintf("unknown value %q (allowed: %s)", key, strings.Join(f.Keys(), ", ")))
			}
		}
	}
	return nil
}

func (s FilterState) with(f Facet, keys []string) FilterState {
	if len(keys) == 0 {
		keys = nil
	}
	switch f {
	case Category:
		s.Category = keys
	case Country:
		s.Country = keys
	case GradeLevel:
		s.GradeLevel = keys
	}
	return s
}

func normalize(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
