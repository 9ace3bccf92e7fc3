// Package query filters and orders an in-memory event list for display.
//
// Everything here is pure: the input slice is never modified and no
// network or storage is touched. A State describes one combination of
// search term, facet selections, price bucket and sort key; Apply turns
// (events, State) into the ordered list that is rendered.
package query

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// All is the pass-through selector for the category, location and price
// filters.
const All = "all"

var (
	// ErrUnknownPriceBucket is returned by ParsePriceBucket.
	ErrUnknownPriceBucket = errors.New("unknown price bucket")
	// ErrUnknownSortKey is returned by ParseSortKey.
	ErrUnknownSortKey = errors.New("unknown sort key")
)

// PriceBucket is one of the price ranges offered by the price filter.
type PriceBucket string

const (
	PriceAll      PriceBucket = All
	PriceFree     PriceBucket = "free"
	PriceUnder100 PriceBucket = "under-100"
	Price100To300 PriceBucket = "100-300"
	PriceOver300  PriceBucket = "over-300"
)

// PriceBuckets lists the concrete buckets in display order.
var PriceBuckets = []PriceBucket{PriceFree, PriceUnder100, Price100To300, PriceOver300}

// ParsePriceBucket validates a bucket name. The empty string means All.
func ParsePriceBucket(s string) (PriceBucket, error) {
	switch b := PriceBucket(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return PriceAll, nil
	case PriceAll, PriceFree, PriceUnder100, Price100To300, PriceOver300:
		return b, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownPriceBucket, s)
}

// Contains reports whether price falls in the bucket.
func (b PriceBucket) Contains(price float64) bool {
	switch b {
	case PriceFree:
		return price == 0
	case PriceUnder100:
		return price > 0 && price < 100
	case Price100To300:
		return price >= 100 && price <= 300
	case PriceOver300:
		return price > 300
	case PriceAll, "":
		return true
	}
	return false
}

// Label is the human-readable name of the bucket.
func (b PriceBucket) Label() string {
	switch b {
	case PriceFree:
		return "Free"
	case PriceUnder100:
		return "Under RM100"
	case Price100To300:
		return "RM100 - RM300"
	case PriceOver300:
		return "Over RM300"
	}
	return "All Prices"
}

// BucketOf returns the single bucket containing a non-negative price.
// Negative prices belong to no bucket and yield the empty string.
func BucketOf(price float64) PriceBucket {
	for _, b := range PriceBuckets {
		if b.Contains(price) {
			return b
		}
	}
	return ""
}

// SortKey selects the ordering of the result list.
type SortKey string

const (
	SortDate         SortKey = "date"
	SortPriceLow     SortKey = "price-low"
	SortPriceHigh    SortKey = "price-high"
	SortPopularity   SortKey = "popularity"
	SortAlphabetical SortKey = "alphabetical"
)

// SortKeys lists every key in display order.
var SortKeys = []SortKey{SortDate, SortPriceLow, SortPriceHigh, SortPopularity, SortAlphabetical}

// ParseSortKey validates a sort key name. The empty string means SortDate.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortDate, nil
	case SortDate, SortPriceLow, SortPriceHigh, SortPopularity, SortAlphabetical:
		return k, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownSortKey, s)
}

// Label is the human-readable name of the key.
func (k SortKey) Label() string {
	switch k {
	case SortPriceLow:
		return "Price: Low to High"
	case SortPriceHigh:
		return "Price: High to Low"
	case SortPopularity:
		return "Popularity"
	case SortAlphabetical:
		return "Alphabetical"
	}
	return "Date"
}

// State is the transient query selected by the user.
type State struct {
	SearchTerm string
	Category   string
	Location   string
	Price      PriceBucket
	Sort       SortKey
}

// DefaultState matches everything and orders by date.
func DefaultState() State {
	return State{Category: All, Location: All, Price: PriceAll, Sort: SortDate}
}

// normalized maps empty selectors to their pass-through values.
func (s State) normalized() State {
	if s.Category == "" {
		s.Category = All
	}
	if s.Location == "" {
		s.Location = All
	}
	if s.Price == "" {
		s.Price = PriceAll
	}
	if s.Sort == "" {
		s.Sort = SortDate
	}
	return s
}

// IsDefault reports whether the state applies no filter.
func (s State) IsDefault() bool {
	n := s.normalized()
	return n.SearchTerm == "" && n.Category == All && n.Location == All && n.Price == PriceAll
}

// Matches evaluates the filter predicate: text AND category AND location
// AND price.
func Matches(event *model.Event, s State) bool {
	s = s.normalized()
	return matches(event, s, strings.ToLower(s.SearchTerm))
}

// matches expects a normalized state and its lower-cased search term.
func matches(event *model.Event, s State, term string) bool {
	return matchesText(event, term) &&
		(s.Category == All || event.Category == s.Category) &&
		(s.Location == All || event.Location == s.Location) &&
		s.Price.Contains(event.Price)
}

func matchesText(event *model.Event, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(event.Title), term) ||
		strings.Contains(strings.ToLower(event.Description), term) {
		return true
	}
	for _, tag := range event.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Apply filters and sorts with English collation for alphabetical order.
func Apply(events []model.Event, s State) []model.Event {
	return applyWith(events, s, language.English)
}

func applyWith(events []model.Event, s State, tag language.Tag) []model.Event {
	s = s.normalized()
	term := strings.ToLower(s.SearchTerm)

	filtered := make([]model.Event, 0, len(events))
	for i := range events {
		if matches(&events[i], s, term) {
			filtered = append(filtered, events[i])
		}
	}

	slices.SortStableFunc(filtered, comparator(s.Sort, tag))
	return filtered
}

// comparator returns the ordering for key. Every ordering is total over its
// key; SortStableFunc keeps input order among ties.
func comparator(key SortKey, tag language.Tag) func(a, b model.Event) int {
	switch key {
	case SortPriceLow:
		return func(a, b model.Event) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceHigh:
		return func(a, b model.Event) int { return cmp.Compare(b.Price, a.Price) }
	case SortPopularity:
		return func(a, b model.Event) int { return cmp.Compare(b.CurrentAttendees, a.CurrentAttendees) }
	case SortAlphabetical:
		collator := collate.New(tag)
		return func(a, b model.Event) int { return collator.CompareString(a.Title, b.Title) }
	default:
		return compareDates
	}
}

// compareDates orders by calendar day; unparseable dates sort last.
func compareDates(a, b model.Event) int {
	dayA, okA := a.Day()
	dayB, okB := b.Day()
	switch {
	case okA && okB:
		return dayA.Compare(dayB)
	case okA:
		return -1
	case okB:
		return 1
	}
	return 0
}

// Facets holds the selectable options of the category and location filters.
type Facets struct {
	Categories []string
	Locations  []string
}

// FacetsOf derives the options from the events present: All first, then
// each distinct non-empty value in first-seen order.
func FacetsOf(events []model.Event) Facets {
	return Facets{
		Categories: distinct(events, func(e *model.Event) string { return e.Category }),
		Locations:  distinct(events, func(e *model.Event) string { return e.Location }),
	}
}

func distinct(events []model.Event, field func(*model.Event) string) []string {
	values := []string{All}
	seen := make(map[string]struct{}, len(events))
	for i := range events {
		value := field(&events[i])
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return values
}
