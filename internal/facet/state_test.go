package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
)

func TestNewFilterState_Normalizes(t *testing.T) {
	t.Parallel()
	s := NewFilterState([]string{" Cultural", "academic", "cultural", ""}, nil, []string{})

	assert.Equal(t, []string{"academic", "cultural"}, s.Category)
	assert.Nil(t, s.Country)
	assert.Nil(t, s.GradeLevel)
	assert.False(t, s.IsEmpty())
}

func TestFilterState_Toggle(t *testing.T) {
	t.Parallel()
	var s FilterState
	require.True(t, s.IsEmpty())

	s = s.Toggle(Country, "usa")
	s = s.Toggle(Country, "Japan")
	assert.Equal(t, []string{"japan", "usa"}, s.Country)

	next := s.Toggle(Country, "usa")
	assert.Equal(t, []string{"japan"}, next.Country)
	assert.Equal(t, []string{"japan", "usa"}, s.Country, "toggle must not mutate the receiver")

	next = next.Toggle(Country, "japan")
	assert.Nil(t, next.Country)
	assert.True(t, next.IsEmpty())
}

func TestFilterState_Clear(t *testing.T) {
	t.Parallel()
	s := NewFilterState([]string{"academic"}, []string{"uk"}, []string{"high"})
	assert.True(t, s.Clear().IsEmpty())
}

func TestFilterState_Key(t *testing.T) {
	t.Parallel()
	a := NewFilterState([]string{"cultural", "academic"}, []string{"usa"}, nil)
	b := FilterState{}.Toggle(Country, "usa").Toggle(Category, "academic").Toggle(Category, "cultural")

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), FilterState{}.Key())
	assert.NotEqual(t, NewFilterState([]string{"uk"}, nil, nil).Key(), NewFilterState(nil, []string{"uk"}, nil).Key())
}

func TestFilterState_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		state   FilterState
		wantErr bool
	}{
		{name: "empty", state: FilterState{}},
		{name: "all known", state: NewFilterState([]string{"volunteer"}, []string{"canada"}, []string{"elementary"})},
		{name: "unknown category", state: NewFilterState([]string{"sports"}, nil, nil), wantErr: true},
		{name: "unknown country", state: NewFilterState(nil, []string{"brazil"}, nil), wantErr: true},
		{name: "unknown grade", state: NewFilterState(nil, nil, []string{"kindergarten"}), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.state.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domerrors.IsInvalidInput(err))
		})
	}
}
