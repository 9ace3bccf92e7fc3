package query

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

func sampleEvents() []model.Event {
	return []model.Event{
		{ID: "1", Title: "Tech Conf", Description: "Annual technology conference", Category: "Technology",
			Location: "Kuala Lumpur", Price: 299, CurrentAttendees: 150, Date: "2025-05-20", Tags: []string{"AI", "Cloud"}},
		{ID: "2", Title: "Pitch Night", Description: "Startups pitch to investors", Category: "Business",
			Location: "Penang", Price: 75, CurrentAttendees: 40, Date: "2025-03-02", Tags: []string{"Funding"}},
		{ID: "3", Title: "brand Workshop", Description: "Hands-on session", Category: "Marketing",
			Location: "Kuala Lumpur", Price: 0, CurrentAttendees: 90, Date: "2025-04-11", Tags: []string{"Marketing", "Branding"}},
		{ID: "4", Title: "Gala Dinner", Description: "Black tie", Category: "Entertainment",
			Location: "Johor Bahru", Price: 450, CurrentAttendees: 20, Date: "2025-12-31", Tags: nil},
		{ID: "5", Title: "Community Run", Description: "5k fun run", Category: "Sports & Fitness",
			Location: "Penang", Price: 100, CurrentAttendees: 300, Date: "2025-01-15", Tags: []string{"Health"}},
	}
}

func ids(events []model.Event) []model.ID {
	out := make([]model.ID, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestDefaultStateKeepsEverySortedByKey(t *testing.T) {
	events := sampleEvents()
	for _, key := range SortKeys {
		t.Run(string(key), func(t *testing.T) {
			state := DefaultState()
			state.Sort = key
			got := Apply(events, state)

			assert.ElementsMatch(t, ids(events), ids(got))
			assert.True(t, slices.IsSortedFunc(got, comparator(key, language.English)))
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	events := sampleEvents()
	before := ids(events)

	state := DefaultState()
	state.Sort = SortPriceHigh
	_ = Apply(events, state)

	assert.Equal(t, before, ids(events))
}

func TestPriceBucketsPartitionNonNegativePrices(t *testing.T) {
	prices := []float64{0, 0.01, 1, 99.99, 100, 150, 300, 300.01, 1000}
	r := rand.New(rand.NewSource(7))
	for range 200 {
		prices = append(prices, float64(r.Intn(60000))/100)
	}

	for _, price := range prices {
		hits := 0
		for _, bucket := range PriceBuckets {
			if bucket.Contains(price) {
				hits++
			}
		}
		require.Equalf(t, 1, hits, "price %v is in %d buckets", price, hits)
		assert.True(t, BucketOf(price).Contains(price))
	}
}

func TestBucketBoundaries(t *testing.T) {
	assert.Equal(t, PriceFree, BucketOf(0))
	assert.Equal(t, PriceUnder100, BucketOf(99.99))
	assert.Equal(t, Price100To300, BucketOf(100))
	assert.Equal(t, Price100To300, BucketOf(300))
	assert.Equal(t, PriceOver300, BucketOf(300.5))
	assert.Equal(t, PriceBucket(""), BucketOf(-1))
}

func TestPriceLowReversedEqualsPriceHigh(t *testing.T) {
	events := sampleEvents()

	low := Apply(events, State{Sort: SortPriceLow})
	high := Apply(events, State{Sort: SortPriceHigh})

	reversed := slices.Clone(low)
	slices.Reverse(reversed)
	assert.Equal(t, ids(high), ids(reversed))
}

func TestSortIsStableOnTies(t *testing.T) {
	events := []model.Event{
		{ID: "a", Price: 50}, {ID: "b", Price: 10}, {ID: "c", Price: 50}, {ID: "d", Price: 50},
	}
	got := Apply(events, State{Sort: SortPriceLow})
	assert.Equal(t, []model.ID{"b", "a", "c", "d"}, ids(got))

	got = Apply(events, State{Sort: SortPriceHigh})
	assert.Equal(t, []model.ID{"a", "c", "d", "b"}, ids(got))
}

func TestSortOrders(t *testing.T) {
	events := sampleEvents()

	byDate := Apply(events, State{Sort: SortDate})
	assert.Equal(t, []model.ID{"5", "2", "3", "1", "4"}, ids(byDate))

	byPopularity := Apply(events, State{Sort: SortPopularity})
	assert.Equal(t, []model.ID{"5", "1", "3", "2", "4"}, ids(byPopularity))

	// Collation ignores case at the primary level: "brand" sorts before "Community".
	alphabetical := Apply(events, State{Sort: SortAlphabetical})
	assert.Equal(t, []model.ID{"3", "5", "4", "2", "1"}, ids(alphabetical))
}

func TestUnparseableDatesSortLast(t *testing.T) {
	events := []model.Event{{ID: "x", Date: "TBA"}, {ID: "y", Date: "2025-02-01"}}
	assert.Equal(t, []model.ID{"y", "x"}, ids(Apply(events, State{})))
}

func TestPriceBucketScenario(t *testing.T) {
	events := []model.Event{
		{ID: "1", Title: "Tech Conf", Price: 299},
		{ID: "2", Title: "Pitch Night", Price: 75},
	}
	state := DefaultState()
	state.Price = PriceUnder100

	got := Apply(events, state)
	require.Len(t, got, 1)
	assert.Equal(t, "Pitch Night", got[0].Title)
}

func TestSearchMatchesTagCaseInsensitively(t *testing.T) {
	events := []model.Event{
		{ID: "1", Title: "Brand Day", Description: "Hands-on session", Tags: []string{"Marketing"}},
		{ID: "2", Title: "Tech Conf", Description: "Talks", Tags: []string{"AI"}},
	}
	got := Apply(events, State{SearchTerm: "market"})
	assert.Equal(t, []model.ID{"1"}, ids(got))
}

func TestSearchMatchesTitleAndDescription(t *testing.T) {
	events := sampleEvents()

	assert.Equal(t, []model.ID{"2"}, ids(Apply(events, State{SearchTerm: "PITCH"})))
	assert.Equal(t, []model.ID{"4"}, ids(Apply(events, State{SearchTerm: "black tie"})))
	assert.Empty(t, Apply(events, State{SearchTerm: "quantum"}))
}

func TestFiltersAreConjunctive(t *testing.T) {
	events := sampleEvents()

	state := State{Location: "Kuala Lumpur", Price: PriceFree}
	assert.Equal(t, []model.ID{"3"}, ids(Apply(events, state)))

	state = State{Location: "Penang", Category: "Business", SearchTerm: "run"}
	assert.Empty(t, Apply(events, state))

	state = State{Category: "Sports & Fitness", Price: Price100To300}
	assert.Equal(t, []model.ID{"5"}, ids(Apply(events, state)))
}

func TestMatches(t *testing.T) {
	event := sampleEvents()[0]
	assert.True(t, Matches(&event, State{}))
	assert.True(t, Matches(&event, State{SearchTerm: "cloud", Price: Price100To300}))
	assert.False(t, Matches(&event, State{Category: "Business"}))
}

func TestFacetsOf(t *testing.T) {
	facets := FacetsOf(append(sampleEvents(), model.Event{ID: "6", Category: "", Location: "Penang"}))

	assert.Equal(t, []string{All, "Technology", "Business", "Marketing", "Entertainment", "Sports & Fitness"}, facets.Categories)
	assert.Equal(t, []string{All, "Kuala Lumpur", "Penang", "Johor Bahru"}, facets.Locations)
	assert.Equal(t, Facets{Categories: []string{All}, Locations: []string{All}}, FacetsOf(nil))
}

func TestParseSelectors(t *testing.T) {
	bucket, err := ParsePriceBucket(" Under-100 ")
	require.NoError(t, err)
	assert.Equal(t, PriceUnder100, bucket)

	bucket, err = ParsePriceBucket("")
	require.NoError(t, err)
	assert.Equal(t, PriceAll, bucket)

	_, err = ParsePriceBucket("cheap")
	assert.True(t, errors.Is(err, ErrUnknownPriceBucket))

	key, err := ParseSortKey("popularity")
	require.NoError(t, err)
	assert.Equal(t, SortPopularity, key)

	_, err = ParseSortKey("random")
	assert.True(t, errors.Is(err, ErrUnknownSortKey))
}

func TestStateIsDefault(t *testing.T) {
	assert.True(t, State{}.IsDefault())
	assert.True(t, State{Sort: SortPopularity}.IsDefault())
	assert.False(t, State{SearchTerm: "x"}.IsDefault())
}
