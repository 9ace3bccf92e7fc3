package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

func draft(title string, capacity int) model.EventDraft {
	return model.EventDraft{
		Title:            title,
		ShortDescription: "short",
		Description:      "long",
		Date:             "2026-09-01",
		Time:             "18:00",
		Location:         "Oslo",
		Venue:            "Hall A",
		Category:         "Music",
		Price:            30,
		MaxAttendees:     capacity,
		Tags:             []string{"live"},
	}
}

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	org, err := store.CreateUser(ctx, User{Identity: model.Identity{Name: "Olu", Email: "olu@example.com", Role: model.RoleOrganizer}, PasswordHash: []byte("h")})
	require.NoError(t, err)
	require.NotEmpty(t, org.ID)
	_, err = store.CreateUser(ctx, User{Identity: model.Identity{Name: "Dup", Email: "OLU@example.com", Role: model.RoleAttendee}, PasswordHash: []byte("h")})
	assert.ErrorIs(t, err, ErrEmailTaken)

	fan, err := store.CreateUser(ctx, User{Identity: model.Identity{Name: "Fan", Email: "fan@example.com", Role: model.RoleAttendee}, PasswordHash: []byte("h")})
	require.NoError(t, err)

	found, err := store.UserByEmail(ctx, "FAN@example.com")
	require.NoError(t, err)
	assert.Equal(t, fan.ID, found.ID)
	_, err = store.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveToken(ctx, "tok-fan", fan.ID))
	byToken, err := store.UserForToken(ctx, "tok-fan")
	require.NoError(t, err)
	assert.Equal(t, "fan@example.com", byToken.Email)
	_, err = store.UserForToken(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	small, err := store.CreateEvent(ctx, org.Identity, draft("Small Gig", 1))
	require.NoError(t, err)
	assert.Equal(t, model.EventUpcoming, small.Status)
	big, err := store.CreateEvent(ctx, org.Identity, draft("Big Gig", 100))
	require.NoError(t, err)

	events, err := store.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, big.ID, events[0].ID, "newest first")
	assert.Equal(t, org.ID, events[0].Organizer.ID)

	mine, err := store.ListEventsByOrganizer(ctx, org.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	none, err := store.ListEventsByOrganizer(ctx, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	edit := draft("Small Gig (moved)", 1)
	edit.Tags = nil
	updated, err := store.UpdateEvent(ctx, small.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "Small Gig (moved)", updated.Title)
	assert.NotNil(t, updated.Tags)
	_, err = store.UpdateEvent(ctx, "999999", edit)
	assert.ErrorIs(t, err, ErrNotFound)

	ticket, err := store.Book(ctx, small.ID, fan.ID, model.AttendeeInfo{Name: "Fan", Email: "fan@example.com"})
	require.NoError(t, err)
	assert.Equal(t, small.ID, ticket.EventID)
	assert.Equal(t, model.TicketActive, ticket.Status)
	assert.Equal(t, "Small Gig (moved)", ticket.EventTitle)
	assert.NotEmpty(t, ticket.QRCode)

	_, err = store.Book(ctx, small.ID, fan.ID, model.AttendeeInfo{Name: "Fan", Email: "fan@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	_, err = store.Book(ctx, small.ID, org.ID, model.AttendeeInfo{Name: "Olu", Email: "olu@example.com"})
	assert.ErrorIs(t, err, ErrEventFull)
	_, err = store.Book(ctx, "not-a-number", fan.ID, model.AttendeeInfo{})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.GetEvent(ctx, small.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentAttendees)

	tickets, err := store.TicketsForUser(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, ticket.ID, tickets[0].ID)

	require.NoError(t, store.DeleteEvent(ctx, small.ID))
	assert.ErrorIs(t, store.DeleteEvent(ctx, small.ID), ErrNotFound)
	_, err = store.GetEvent(ctx, small.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	tickets, err = store.TicketsForUser(ctx, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreDoesNotOverbook(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	org, err := store.CreateUser(ctx, User{Identity: model.Identity{Email: "o@example.com", Role: model.RoleOrganizer}})
	require.NoError(t, err)
	event, err := store.CreateEvent(ctx, org.Identity, draft("Tiny Room", 10))
	require.NoError(t, err)

	const attempts = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		full int
	)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := formatID(int64(1000 + i))
			_, err := store.Book(ctx, event.ID, userID, model.AttendeeInfo{Name: "x", Email: "x@example.com"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrEventFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, attempts-10, full)
	got, err := store.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.CurrentAttendees)
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	event, err := store.CreateEvent(ctx, model.Identity{ID: "1"}, draft("Copy", 5))
	require.NoError(t, err)

	event.Tags[0] = "mutated"
	listed, err := store.ListEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, listed[0].Tags)
}

// TestPostgresStore runs against a real database when EVENTHUB_TEST_DATABASE_URL
// points at a disposable one with the schema applied.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("EVENTHUB_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("EVENTHUB_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE registrations, auth_tokens, events, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	exerciseStore(t, NewPostgresStore(pool))
}
