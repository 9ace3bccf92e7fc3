// Package repository persists the development backend's users, bearer
// tokens, events and registrations. Two implementations share the Store
// interface: MemoryStore for local runs and tests, PostgresStore over pgx.
package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrEventFull is returned when an event has no remaining capacity.
var ErrEventFull = errors.New("event is fully booked")

// ErrAlreadyRegistered is returned when a user registers for the same event twice.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrEmailTaken is returned when an account already uses the email.
var ErrEmailTaken = errors.New("email address already in use")

// User is an account with its password hash.
type User struct {
	model.Identity
	PasswordHash []byte
}

// Store is the persistence boundary of the development backend.
type Store interface {
	CreateUser(ctx context.Context, user User) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	SaveToken(ctx context.Context, token string, userID model.ID) error
	UserForToken(ctx context.Context, token string) (*User, error)

	ListEvents(ctx context.Context) ([]model.Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID model.ID) ([]model.Event, error)
	GetEvent(ctx context.Context, id model.ID) (*model.Event, error)
	CreateEvent(ctx context.Context, organizer model.Identity, draft model.EventDraft) (*model.Event, error)
	UpdateEvent(ctx context.Context, id model.ID, draft model.EventDraft) (*model.Event, error)
	DeleteEvent(ctx context.Context, id model.ID) error

	// Book registers userID for eventID without exceeding capacity and
	// returns the issued ticket.
	Book(ctx context.Context, eventID, userID model.ID, info model.AttendeeInfo) (*model.Ticket, error)
	TicketsForUser(ctx context.Context, userID model.ID) ([]model.Ticket, error)
}

// parseID converts a wire id to the numeric key used by both stores.
// Anything that is not a positive integer cannot exist.
func parseID(id model.ID) (int64, error) {
	n, err := strconv.ParseInt(id.String(), 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

func formatID(n int64) model.ID {
	return model.ID(strconv.FormatInt(n, 10))
}

func eventFromDraft(id int64, organizer model.Identity, draft model.EventDraft) model.Event {
	tags := draft.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.Event{
		ID:               formatID(id),
		Title:            draft.Title,
		Description:      draft.Description,
		ShortDescription: draft.ShortDescription,
		Date:             draft.Date,
		Time:             draft.Time,
		Location:         draft.Location,
		Venue:            draft.Venue,
		Category:         draft.Category,
		Image:            draft.ImageURL,
		Price:            draft.Price,
		MaxAttendees:     draft.MaxAttendees,
		Organizer:        organizer,
		Status:           model.EventUpcoming,
		Tags:             tags,
	}
}

// applyDraft overwrites the editable fields of event.
func applyDraft(event *model.Event, draft model.EventDraft) {
	updated := eventFromDraft(0, event.Organizer, draft)
	updated.ID = event.ID
	updated.CurrentAttendees = event.CurrentAttendees
	updated.Status = event.Status
	*event = updated
}
