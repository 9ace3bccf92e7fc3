package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Shivanand-hulikatti/eventhub/internal/format"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/query"
)

func writeEventTable(w io.Writer, events []model.Event) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTITLE\tCATEGORY\tLOCATION\tPRICE\tSPOTS")
	for i := range events {
		e := &events[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Date, format.Truncate(e.Title, 40), e.Category, e.Location, format.Price(e.Price), format.Spots(e))
	}
	return tw.Flush()
}

func writeEventDetail(w io.Writer, e *model.Event, imageURL string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", e.Title)
	if e.ShortDescription != "" {
		fmt.Fprintf(tw, "%s\n", e.ShortDescription)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "When:\t%s\n", format.When(e.Date, e.Time))
	fmt.Fprintf(tw, "Where:\t%s\n", format.Place(e.Venue, e.Location))
	fmt.Fprintf(tw, "Category:\t%s\n", e.Category)
	fmt.Fprintf(tw, "Price:\t%s\n", format.Price(e.Price))
	fmt.Fprintf(tw, "Attendance:\t%d / %d (%s)\n", e.CurrentAttendees, e.MaxAttendees, format.Spots(e))
	if e.Organizer.Name != "" {
		fmt.Fprintf(tw, "Organizer:\t%s\n", e.Organizer.Name)
	}
	if e.Status != "" {
		fmt.Fprintf(tw, "Status:\t%s\n", e.Status)
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(e.Tags, ", "))
	}
	if imageURL != "" {
		fmt.Fprintf(tw, "Image:\t%s\n", imageURL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if e.Description != "" {
		_, err := fmt.Fprintf(w, "\n%s\n", e.Description)
		return err
	}
	return nil
}

func writeTicketTable(w io.Writer, tickets []model.Ticket) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKET\tEVENT\tWHEN\tVENUE\tPRICE\tSTATUS")
	for _, t := range tickets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, format.Truncate(t.EventTitle, 40), format.When(t.EventDate, t.EventTime),
			format.Place(t.EventVenue, t.EventLocation), format.Price(t.Price), t.Status)
	}
	return tw.Flush()
}

func writeFacets(w io.Writer, facets query.Facets) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Categories:\t%s\n", strings.Join(facets.Categories, ", "))
	fmt.Fprintf(tw, "Locations:\t%s\n", strings.Join(facets.Locations, ", "))

	prices := make([]string, len(query.PriceBuckets))
	for i, b := range query.PriceBuckets {
		prices[i] = string(b)
	}
	fmt.Fprintf(tw, "Prices:\t%s\n", strings.Join(prices, ", "))

	sorts := make([]string, len(query.SortKeys))
	for i, k := range query.SortKeys {
		sorts[i] = string(k)
	}
	fmt.Fprintf(tw, "Sort keys:\t%s\n", strings.Join(sorts, ", "))
	return tw.Flush()
}
