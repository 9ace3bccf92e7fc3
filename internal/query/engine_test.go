package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

func TestEngineRecomputesOnlyOnChange(t *testing.T) {
	engine := NewEngine(language.English)
	engine.SetEvents(sampleEvents())

	first := engine.Results()
	assert.Len(t, first, 5)
	assert.Equal(t, 1, engine.Recomputations())

	engine.Results()
	engine.SetState(DefaultState())
	engine.SetState(State{}) // normalizes to the default state
	engine.Results()
	assert.Equal(t, 1, engine.Recomputations())

	engine.SetState(State{Price: PriceFree})
	assert.Equal(t, []model.ID{"3"}, ids(engine.Results()))
	assert.Equal(t, 2, engine.Recomputations())

	engine.SetEvents(sampleEvents()[:2])
	assert.Empty(t, engine.Results())
	assert.Equal(t, 3, engine.Recomputations())
}

func TestEngineIsolatesCallerSlices(t *testing.T) {
	events := sampleEvents()
	engine := NewEngine(language.English)
	engine.SetEvents(events)

	events[0].Title = "mutated"
	results := engine.Results()
	results[0].Title = "also mutated"

	for _, e := range engine.Results() {
		assert.NotContains(t, []string{"mutated", "also mutated"}, e.Title)
	}
}

func TestEngineFacetsFollowSource(t *testing.T) {
	engine := NewEngine(language.English)
	assert.Equal(t, []string{All}, engine.Facets().Categories)

	engine.SetEvents(sampleEvents())
	assert.Contains(t, engine.Facets().Locations, "Johor Bahru")
	assert.Len(t, engine.Events(), 5)
}

func TestEngineState(t *testing.T) {
	engine := NewEngine(language.English)
	engine.SetState(State{SearchTerm: "gala"})

	state := engine.State()
	assert.Equal(t, "gala", state.SearchTerm)
	assert.Equal(t, All, state.Category)
	assert.Equal(t, SortDate, state.Sort)
}
