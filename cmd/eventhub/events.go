package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Shivanand-hulikatti/eventhub/internal/cli"
	"github.com/Shivanand-hulikatti/eventhub/internal/format"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/query"
	"github.com/Shivanand-hulikatti/eventhub/internal/tui"
	"github.com/Shivanand-hulikatti/eventhub/internal/validation"
)

func eventsCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "events",
		Summary: "Browse, attend and manage events",
		Subcommands: []*cli.Command{
			eventsListCommand(a),
			eventsFacetsCommand(a),
			eventsShowCommand(a),
			eventsBrowseCommand(a),
			eventsAttendCommand(a),
			eventsCreateCommand(a),
			eventsEditCommand(a),
			eventsDeleteCommand(a),
			eventsMineCommand(a),
		},
	}
}

func eventsListCommand(a *app) *cli.Command {
	var (
		search, category, location, price, sortKey string
		asJSON                                     bool
	)
	return &cli.Command{
		Name:    "list",
		Summary: "List events matching a search and filters",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
			fs.StringVarP(&search, "search", "s", "", "match title, description or tags")
			fs.StringVar(&category, "category", query.All, "category, or 'all'")
			fs.StringVar(&location, "location", query.All, "location, or 'all'")
			fs.StringVar(&price, "price", query.All, "all, free, under-100, 100-300 or over-300")
			fs.StringVar(&sortKey, "sort", string(query.SortDate), "date, price-low, price-high, popularity or alphabetical")
			fs.BoolVar(&asJSON, "json", false, "output as JSON")
			return fs
		},
		Examples: []cli.Example{
			{Description: "Cheap music nights", Command: "eventhub events list --category Music --price under-100 --sort price-low"},
		},
		Run: func(ctx context.Context, args []string) error {
			bucket, err := query.ParsePriceBucket(price)
			if err != nil {
				return err
			}
			key, err := query.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			if err := a.catalog.Refresh(ctx); err != nil {
				return err
			}

			state := query.State{
				SearchTerm: search,
				Category:   category,
				Location:   location,
				Price:      bucket,
				Sort:       key,
			}
			results := a.catalog.Results(state)
			if asJSON {
				return cli.WriteJSON(a.io.out, results)
			}
			if len(results) == 0 {
				if state.IsDefault() {
					fmt.Fprintln(a.io.out, "No events yet.")
				} else {
					fmt.Fprintln(a.io.out, "No events match your filters.")
				}
				return nil
			}
			return writeEventTable(a.io.out, results)
		},
	}
}

func eventsFacetsCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "facets",
		Summary: "Show the available filter values",
		Run: func(ctx context.Context, args []string) error {
			if err := a.catalog.Refresh(ctx); err != nil {
				return err
			}
			return writeFacets(a.io.out, a.catalog.Facets())
		},
	}
}

// findEvent loads the catalog and looks id up in it.
func (a *app) findEvent(ctx context.Context, id string) (model.Event, error) {
	if err := a.catalog.Refresh(ctx); err != nil {
		return model.Event{}, err
	}
	event, ok := a.catalog.Find(model.ID(id))
	if !ok {
		return model.Event{}, fmt.Errorf("event %s not found", id)
	}
	return event, nil
}

func eventsShowCommand(a *app) *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:    "show",
		Summary: "Show one event in full",
		Usage:   "eventhub events show <id>",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("show", pflag.ContinueOnError)
			fs.BoolVar(&asJSON, "json", false, "output as JSON")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if err := cli.ExactArgs("show", args, 1, "<id>"); err != nil {
				return err
			}
			event, err := a.findEvent(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(a.io.out, event)
			}
			return writeEventDetail(a.io.out, &event, a.client.ImageURL(event.Image))
		},
	}
}

func eventsBrowseCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Summary: "Search and filter events interactively",
		Run: func(ctx context.Context, args []string) error {
			if !a.io.interactive {
				return errors.New("browse needs a terminal; use 'eventhub events list' instead")
			}
			m := tui.New(ctx, a.catalog, a.client, a.client.ImageURL)
			return tui.Run(ctx, m, a.io.in, a.io.out)
		},
	}
}

func eventsAttendCommand(a *app) *cli.Command {
	var info model.AttendeeInfo
	return &cli.Command{
		Name:    "attend",
		Summary: "Register for an event and get a ticket",
		Usage:   "eventhub events attend <id> [--phone N] [--requests TEXT]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("attend", pflag.ContinueOnError)
			fs.StringVar(&info.Name, "name", "", "attendee name (default: your account name)")
			fs.StringVar(&info.Email, "email", "", "attendee email (default: your account email)")
			fs.StringVar(&info.Phone, "phone", "", "contact phone number")
			fs.StringVar(&info.SpecialRequests, "requests", "", "special requests for the organizer")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if err := cli.ExactArgs("attend", args, 1, "<id>"); err != nil {
				return err
			}
			user, err := a.requireUser()
			if err != nil {
				return err
			}
			if info.Name == "" {
				info.Name = user.Name
			}
			if info.Email == "" {
				info.Email = user.Email
			}
			if err := validation.Attendee(ctx, &info); err != nil {
				return err
			}

			ticket, err := a.client.RegisterAttendee(ctx, model.ID(args[0]), info)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintf(a.io.out, "You're going! Ticket %s for %s (%s).\n",
				ticket.ID, ticket.EventTitle, format.Price(ticket.Price))
			return nil
		},
	}
}

// draftFlags binds the event form to a flag set. Flag names follow the
// JSON field names of model.EventDraft.
func draftFlags(name string, draft *model.EventDraft, image *string, capacity int) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(&draft.Title, "title", "", "event title")
	fs.StringVar(&draft.ShortDescription, "short-description", "", "one-line summary (max 100 characters)")
	fs.StringVar(&draft.Description, "description", "", "full description")
	fs.StringVar(&draft.Date, "date", "", "date as YYYY-MM-DD")
	fs.StringVar(&draft.Time, "time", "", "start time as HH:MM")
	fs.StringVar(&draft.Location, "location", "", "city or area")
	fs.StringVar(&draft.Venue, "venue", "", "venue name")
	fs.StringVar(&draft.Category, "category", "", "category, e.g. "+strings.Join(model.DefaultCategories, ", "))
	fs.Float64Var(&draft.Price, "price", 0, "ticket price, 0 for free")
	fs.IntVar(&draft.MaxAttendees, "max-attendees", capacity, "capacity")
	fs.StringSliceVar(&draft.Tags, "tags", nil, "comma-separated tags")
	fs.StringVar(&draft.ImageURL, "image-url", "", "image path or URL already on the server")
	fs.StringVar(image, "image", "", "local image file to upload (max 5MB)")
	return fs
}

// uploadImage validates a local image file and uploads it.
func (a *app) uploadImage(ctx context.Context, path string) (*model.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if err := validation.Image(path, info.Size(), f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	result, err := a.client.UploadImage(ctx, info.Name(), f)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}
	return result, nil
}

// submitDraft uploads the image, if any, then validates draft.
func (a *app) submitDraft(ctx context.Context, draft *model.EventDraft, image string) error {
	if image != "" {
		result, err := a.uploadImage(ctx, image)
		if err != nil {
			return err
		}
		draft.ImageURL = result.FilePath
	}
	return validation.Draft(ctx, draft)
}

func eventsCreateCommand(a *app) *cli.Command {
	var (
		draft model.EventDraft
		image string
	)
	return &cli.Command{
		Name:    "create",
		Summary: "Create an event (organizers)",
		Flags: func() *pflag.FlagSet {
			return draftFlags("create", &draft, &image, 100)
		},
		Examples: []cli.Example{
			{
				Description: "A free meetup",
				Command: "eventhub events create --title 'Go Meetup' --short-description 'Talks and pizza' " +
					"--description '...' --date 2026-11-20 --time 19:00 --location 'Kuala Lumpur' " +
					"--venue 'Common Ground' --category Technology --max-attendees 80 --image poster.png",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("create: unexpected argument %q", args[0])
			}
			if _, err := a.requireOrganizer(); err != nil {
				return err
			}
			if err := a.submitDraft(ctx, &draft, image); err != nil {
				return err
			}

			event, err := a.client.CreateEvent(ctx, draft)
			if err != nil {
				return fmt.Errorf("create event: %w", err)
			}
			fmt.Fprintf(a.io.out, "Created event %s: %s\n", event.ID, event.Title)
			return nil
		},
	}
}

func eventsEditCommand(a *app) *cli.Command {
	var (
		edits model.EventDraft
		image string
		fs    *pflag.FlagSet
	)
	return &cli.Command{
		Name:    "edit",
		Summary: "Change fields of an event you organize",
		Usage:   "eventhub events edit <id> [--title T] [--price P] ...",
		Flags: func() *pflag.FlagSet {
			fs = draftFlags("edit", &edits, &image, 0)
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if err := cli.ExactArgs("edit", args, 1, "<id>"); err != nil {
				return err
			}
			if _, err := a.requireOrganizer(); err != nil {
				return err
			}
			event, err := a.findEvent(ctx, args[0])
			if err != nil {
				return err
			}

			draft := model.DraftFromEvent(event)
			overlay(fs, &draft, &edits)
			if err := a.submitDraft(ctx, &draft, image); err != nil {
				return err
			}

			updated, err := a.client.UpdateEvent(ctx, event.ID, draft)
			if err != nil {
				return fmt.Errorf("update event: %w", err)
			}
			fmt.Fprintf(a.io.out, "Updated event %s: %s\n", updated.ID, updated.Title)
			return nil
		},
	}
}

// overlay copies the fields whose flags were given from edits onto draft.
func overlay(fs *pflag.FlagSet, draft, edits *model.EventDraft) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "title":
			draft.Title = edits.Title
		case "short-description":
			draft.ShortDescription = edits.ShortDescription
		case "description":
			draft.Description = edits.Description
		case "date":
			draft.Date = edits.Date
		case "time":
			draft.Time = edits.Time
		case "location":
			draft.Location = edits.Location
		case "venue":
			draft.Venue = edits.Venue
		case "category":
			draft.Category = edits.Category
		case "price":
			draft.Price = edits.Price
		case "max-attendees":
			draft.MaxAttendees = edits.MaxAttendees
		case "tags":
			draft.Tags = edits.Tags
		case "image-url":
			draft.ImageURL = edits.ImageURL
		}
	})
}

func eventsDeleteCommand(a *app) *cli.Command {
	var yes bool
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete an event you organize",
		Usage:   "eventhub events delete <id> [--yes]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
			fs.BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if err := cli.ExactArgs("delete", args, 1, "<id>"); err != nil {
				return err
			}
			if _, err := a.requireOrganizer(); err != nil {
				return err
			}
			if !yes {
				ok, err := a.confirm(fmt.Sprintf("Delete event %s? This cannot be undone.", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.io.out, "Cancelled.")
					return nil
				}
			}

			if err := a.client.DeleteEvent(ctx, model.ID(args[0])); err != nil {
				return fmt.Errorf("delete event: %w", err)
			}
			fmt.Fprintf(a.io.out, "Deleted event %s\n", args[0])
			return nil
		},
	}
}

func eventsMineCommand(a *app) *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:    "mine",
		Summary: "List the events you organize",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("mine", pflag.ContinueOnError)
			fs.BoolVar(&asJSON, "json", false, "output as JSON")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if _, err := a.requireOrganizer(); err != nil {
				return err
			}
			events, err := a.client.ListOrganizedEvents(ctx)
			if err != nil {
				return fmt.Errorf("fetch organized events: %w", err)
			}
			if asJSON {
				return cli.WriteJSON(a.io.out, events)
			}
			if len(events) == 0 {
				fmt.Fprintln(a.io.out, "You haven't created any events yet.")
				return nil
			}
			return writeEventTable(a.io.out, events)
		},
	}
}
