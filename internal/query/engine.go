package query

import (
	"slices"

	"golang.org/x/text/language"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// Engine caches the result of the filter and sort pipeline. The pipeline
// reruns only after the source list or the state has changed. An Engine is
// not safe for concurrent use; its owner serializes access.
type Engine struct {
	language language.Tag

	events []model.Event
	state  State
	facets Facets

	result         []model.Event
	dirty          bool
	recomputations int
}

// NewEngine returns an engine over an empty list in the default state.
// The language tag drives alphabetical collation.
func NewEngine(tag language.Tag) *Engine {
	return &Engine{
		language: tag,
		state:    DefaultState(),
		facets:   FacetsOf(nil),
		dirty:    true,
	}
}

// SetEvents replaces the source list. The engine keeps its own copy.
func (e *Engine) SetEvents(events []model.Event) {
	e.events = slices.Clone(events)
	e.facets = FacetsOf(e.events)
	e.dirty = true
}

// SetState replaces the query state. Setting an equal state keeps the
// cached result.
func (e *Engine) SetState(s State) {
	s = s.normalized()
	if s == e.state {
		return
	}
	e.state = s
	e.dirty = true
}

// State returns the current query state.
func (e *Engine) State() State {
	return e.state
}

// Events returns a copy of the source list.
func (e *Engine) Events() []model.Event {
	return slices.Clone(e.events)
}

// Facets returns the options derived from the source list.
func (e *Engine) Facets() Facets {
	return Facets{
		Categories: slices.Clone(e.facets.Categories),
		Locations:  slices.Clone(e.facets.Locations),
	}
}

// Results returns the filtered and sorted list, recomputing it only when
// an input changed since the last call.
func (e *Engine) Results() []model.Event {
	if e.dirty {
		e.result = applyWith(e.events, e.state, e.language)
		e.dirty = false
		e.recomputations++
	}
	return slices.Clone(e.result)
}

// Recomputations counts how many times the pipeline has run.
func (e *Engine) Recomputations() int {
	return e.recomputations
}
