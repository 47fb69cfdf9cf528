package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ossy/internal/domain/token"
	"ossy/pkg/errors"
)

func TestCatalog(t *testing.T) {
	all := Catalog()
	require.Len(t, all, 3)

	assert.Equal(t, []string{"Aggressive", "Growth", "Inflation Fighting"}, Titles())
	assert.Len(t, Guidance(), 3)

	for _, s := range all {
		assert.NotEmpty(t, s.Description, s.ID)
		assert.NotEmpty(t, s.PromptContext, s.ID)
		assert.NoError(t, s.Criteria.Validate(), s.ID)
		assert.False(t, s.Criteria.IsEmpty(), s.ID)
	}

	// Mutating the returned copy leaves the catalog intact
	all[0].Title = "changed"
	assert.Equal(t, "Aggressive", Catalog()[0].Title)
}

func TestCatalog_DefaultCriteriaRanking(t *testing.T) {
	aggressive, err := Lookup("aggressive")
	require.NoError(t, err)
	assert.Equal(t, token.SortByVolume, token.SortKeyFor(aggressive.Criteria))

	defensive, err := Lookup("inflation_fighting")
	require.NoError(t, err)
	assert.Equal(t, token.SortByLiquidity, token.SortKeyFor(defensive.Criteria))

	growth, err := Lookup("growth")
	require.NoError(t, err)
	assert.Equal(t, token.SortByMarketCap, token.SortKeyFor(growth.Criteria))
}

func TestLookup(t *testing.T) {
	s, err := Lookup(" Inflation Fighting ")
	require.NoError(t, err)
	assert.Equal(t, InflationFighting, s.ID)

	s, err = Lookup("GROWTH")
	require.NoError(t, err)
	assert.Equal(t, Growth, s.ID)

	_, err = Lookup("yolo")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestMatch(t *testing.T) {
	s, ok := Match("I want to execute the Growth strategy. Look for mid caps.")
	require.True(t, ok)
	assert.Equal(t, Growth, s.ID)

	_, ok = Match("what is the weather")
	assert.False(t, ok)
}
