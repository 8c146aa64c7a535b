package facet

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/program-catalog-go/internal/program"
)

func rec(id, country string, tags []string, levels ...string) program.Program {
	p := program.Program{ID: id, TitleEN: "Program " + id, Country: country, GradeLevels: levels}
	for i, name := range tags {
		p.Tags = append(p.Tags, program.Tag{ID: fmt.Sprint(i), NameEN: name})
	}
	return p
}

func ids(records []program.Program) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestApply_CountryScenario(t *testing.T) {
	t.Parallel()
	var records []program.Program
	countries := []string{"usa", "uk", "USA", "japan", "france", "canada", "usa", "germany", "australia", "uk"}
	for i, c := range countries {
		records = append(records, rec(fmt.Sprint(i), c, nil))
	}

	got := Apply(records, NewFilterState(nil, []string{"usa"}, nil))

	assert.Len(t, got, 3)
	assert.Equal(t, []string{"0", "2", "6"}, ids(got))
}

func TestApply(t *testing.T) {
	t.Parallel()
	records := []program.Program{
		rec("1", "usa", []string{"Academic Excellence"}, "High School"),
		rec("2", "japan", []string{"Cultural Immersion", "Language"}, "Middle School"),
		rec("3", "uk", []string{"Internship"}, "University"),
		rec("4", "usa", nil),
		rec("5", "france", []string{"Volunteer Work"}, "Elementary", "Middle School"),
	}

	tests := []struct {
		name  string
		state FilterState
		want  []string
	}{
		{name: "empty state keeps everything", state: FilterState{}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "category substring on tag name", state: NewFilterState([]string{"cultural"}, nil, nil), want: []string{"2"}},
		{name: "or within a facet", state: NewFilterState([]string{"academic", "internship"}, nil, nil), want: []string{"1", "3"}},
		{name: "and across facets", state: NewFilterState(nil, []string{"usa"}, []string{"high"}), want: []string{"1"}},
		{name: "missing tags excluded when category selected", state: NewFilterState([]string{"academic"}, []string{"usa"}, nil), want: []string{"1"}},
		{name: "missing grade levels excluded when level selected", state: NewFilterState(nil, []string{"usa"}, []string{"high", "middle"}), want: []string{"1"}},
		{name: "any grade entry may match", state: NewFilterState(nil, nil, []string{"middle"}), want: []string{"2", "5"}},
		{name: "unknown key never matches", state: NewFilterState(nil, []string{"narnia"}, nil), want: []string{}},
		{name: "case insensitive record values", state: NewFilterState(nil, nil, []string{"university"}), want: []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ids(Apply(records, tt.state)))
		})
	}
}

// Filtering keeps a record iff it passes all three facet predicates, and
// never reorders or duplicates records.
func TestApply_ConjunctionProperty(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(1, 2))
	categories := []string{"Academic", "Cultural", "Language", "Internship", "Volunteer", "Sports"}
	countries := Country.Keys()
	levels := []string{"Elementary", "Middle School", "High School", "University", "Adult"}

	pick := func(pool []string) []string {
		var out []string
		for _, v := range pool {
			if rng.IntN(3) == 0 {
				out = append(out, v)
			}
		}
		return out
	}

	var records []program.Program
	for i := range 200 {
		records = append(records, rec(fmt.Sprint(i), countries[rng.IntN(len(countries))], pick(categories), pick(levels)...))
	}

	for range 50 {
		state := NewFilterState(pick(Category.Keys()), pick(Country.Keys()), pick(GradeLevel.Keys()))
		got := Apply(records, state)

		var want []string
		for i := range records {
			if matchCategory(&records[i], state.Category) &&
				matchCountry(&records[i], state.Country) &&
				matchGradeLevel(&records[i], state.GradeLevel) {
				want = append(want, records[i].ID)
			}
		}
		if want == nil {
			want = []string{}
		}
		require.Equal(t, want, ids(got), "state %s", state.Key())
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	records := []program.Program{rec("1", "usa", nil), rec("2", "uk", nil)}
	_ = Apply(records, NewFilterState(nil, []string{"uk"}, nil))
	assert.Equal(t, []string{"1", "2"}, ids(records))
}

func TestParseFacet(t *testing.T) {
	t.Parallel()
	f, err := ParseFacet("country")
	require.NoError(t, err)
	assert.Equal(t, Country, f)

	f, err = ParseFacet("gradeLevel")
	require.NoError(t, err)
	assert.Equal(t, GradeLevel, f)

	_, err = ParseFacet("price")
	require.Error(t, err)
}

func TestFacetKeys(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"academic", "cultural", "internship", "language", "volunteer"}, Category.Keys())
	assert.Equal(t, []string{"elementary", "high", "middle", "university"}, GradeLevel.Keys())
	assert.Len(t, Country.Keys(), 7)
	assert.True(t, Country.Valid("japan"))
	assert.False(t, Country.Valid("Japan"))
}
