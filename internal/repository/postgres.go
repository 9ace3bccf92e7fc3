package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresStore implements Store with pgx directly (no ORM).
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore. The schema must already be
// applied (see database.Migrate).
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateUser inserts a new account.
func (r *PostgresStore) CreateUser(ctx context.Context, user User) (*User, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (name, email, role, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		user.Name, user.Email, string(user.Role), user.PasswordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	user.ID = formatID(id)
	return &user, nil
}

// UserByEmail returns the account registered under email.
func (r *PostgresStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.db.QueryRow(ctx,
		`SELECT id, name, email, role, password_hash
		 FROM users WHERE lower(email) = lower($1)`,
		email,
	))
}

// SaveToken binds a bearer token to a user.
func (r *PostgresStore) SaveToken(ctx context.Context, token string, userID model.ID) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx,
		`INSERT INTO auth_tokens (token, user_id) VALUES ($1, $2)`,
		token, id,
	); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// UserForToken resolves a bearer token.
func (r *PostgresStore) UserForToken(ctx context.Context, token string) (*User, error) {
	return r.scanUser(r.db.QueryRow(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.password_hash
		 FROM auth_tokens t JOIN users u ON u.id = t.user_id
		 WHERE t.token = $1`,
		token,
	))
}

func (r *PostgresStore) scanUser(row pgx.Row) (*User, error) {
	var (
		id   int64
		role string
		user User
	)
	if err := row.Scan(&id, &user.Name, &user.Email, &role, &user.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	user.ID = formatID(id)
	user.Role = model.Role(role)
	return &user, nil
}

const selectEvents = `
SELECT e.id, e.title, e.description, e.short_description, e.event_date, e.event_time,
       e.location, e.venue, e.category, e.image_url, e.price, e.max_attendees,
       e.current_attendees, e.status, e.tags, u.id, u.name, u.email, u.role
FROM events e JOIN users u ON u.id = e.organizer_id`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e                   model.Event
		id, organizerID     int64
		status, role        string
		maxAttendees, count int32
	)
	err := row.Scan(&id, &e.Title, &e.Description, &e.ShortDescription, &e.Date, &e.Time,
		&e.Location, &e.Venue, &e.Category, &e.Image, &e.Price, &maxAttendees,
		&count, &status, &e.Tags, &organizerID, &e.Organizer.Name, &e.Organizer.Email, &role)
	if err != nil {
		return nil, err
	}
	e.ID = formatID(id)
	e.MaxAttendees = int(maxAttendees)
	e.CurrentAttendees = int(count)
	e.Status = model.EventStatus(status)
	e.Organizer.ID = formatID(organizerID)
	e.Organizer.Role = model.Role(role)
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return &e, nil
}

func (r *PostgresStore) queryEvents(ctx context.Context, sql string, args ...any) ([]model.Event, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ListEvents returns all events, newest first.
func (r *PostgresStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	return r.queryEvents(ctx, selectEvents+` ORDER BY e.id DESC`)
}

// ListEventsByOrganizer returns the events owned by organizerID, newest first.
func (r *PostgresStore) ListEventsByOrganizer(ctx context.Context, organizerID model.ID) ([]model.Event, error) {
	id, err := parseID(organizerID)
	if err != nil {
		return []model.Event{}, nil
	}
	return r.queryEvents(ctx, selectEvents+` WHERE e.organizer_id = $1 ORDER BY e.id DESC`, id)
}

// GetEvent returns a single event or ErrNotFound.
func (r *PostgresStore) GetEvent(ctx context.Context, id model.ID) (*model.Event, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}
	e, err := scanEvent(r.db.QueryRow(ctx, selectEvents+` WHERE e.id = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// CreateEvent inserts an event owned by organizer.
func (r *PostgresStore) CreateEvent(ctx context.Context, organizer model.Identity, draft model.EventDraft) (*model.Event, error) {
	organizerID, err := parseID(organizer.ID)
	if err != nil {
		return nil, err
	}
	tags := draft.Tags
	if tags == nil {
		tags = []string{}
	}

	var id int64
	err = r.db.QueryRow(ctx,
		`INSERT INTO events (title, description, short_description, event_date, event_time,
		                     location, venue, category, image_url, price, max_attendees,
		                     organizer_id, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		draft.Title, draft.Description, draft.ShortDescription, draft.Date, draft.Time,
		draft.Location, draft.Venue, draft.Category, draft.ImageURL, draft.Price, draft.MaxAttendees,
		organizerID, tags,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	event := eventFromDraft(id, organizer, draft)
	return &event, nil
}

// UpdateEvent replaces the editable fields of an event.
func (r *PostgresStore) UpdateEvent(ctx context.Context, id model.ID, draft model.EventDraft) (*model.Event, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}
	tags := draft.Tags
	if tags == nil {
		tags = []string{}
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, short_description = $4, event_date = $5,
		     event_time = $6, location = $7, venue = $8, category = $9, image_url = $10,
		     price = $11, max_attendees = $12, tags = $13
		 WHERE id = $1`,
		key, draft.Title, draft.Description, draft.ShortDescription, draft.Date,
		draft.Time, draft.Location, draft.Venue, draft.Category, draft.ImageURL,
		draft.Price, draft.MaxAttendees, tags,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetEvent(ctx, id)
}

// DeleteEvent removes an event; its registrations cascade.
func (r *PostgresStore) DeleteEvent(ctx context.Context, id model.ID) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, key)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Book performs a concurrency-safe registration inside one transaction.
//
// Reading current_attendees and then writing it back from two transactions
// at once would let both see a free seat and overbook the event.
// SELECT ... FOR UPDATE takes a row lock on the event, so concurrent
// bookings for the same event run one at a time until COMMIT or ROLLBACK.
func (r *PostgresStore) Book(ctx context.Context, eventID, userID model.ID, info model.AttendeeInfo) (*model.Ticket, error) {
	eventKey, err := parseID(eventID)
	if err != nil {
		return nil, err
	}
	userKey, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Step 1: lock the event row.
	var (
		capacity, booked int32
		price            float64
	)
	err = tx.QueryRow(ctx,
		`SELECT max_attendees, current_attendees, price
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		eventKey,
	).Scan(&capacity, &booked, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	// Step 2: reject a second registration by the same user.
	var dupCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventKey, userKey,
	).Scan(&dupCount)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dupCount > 0 {
		return nil, ErrAlreadyRegistered
	}

	// Step 3: guard against overbooking.
	if booked >= capacity {
		return nil, ErrEventFull
	}

	if _, err = tx.Exec(ctx,
		`UPDATE events SET current_attendees = current_attendees + 1 WHERE id = $1`,
		eventKey,
	); err != nil {
		return nil, fmt.Errorf("increment current_attendees: %w", err)
	}

	var (
		regID     int64
		createdAt time.Time
	)
	err = tx.QueryRow(ctx,
		`INSERT INTO registrations (event_id, user_id, name, email, phone, special_requests, price, qr_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		eventKey, userKey, info.Name, info.Email, info.Phone, info.SpecialRequests, price, uuid.NewString(),
	).Scan(&regID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	tickets, err := r.queryTickets(ctx, `WHERE r.id = $1`, regID)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, ErrNotFound
	}
	return &tickets[0], nil
}

// TicketsForUser returns the user's tickets, newest first.
func (r *PostgresStore) TicketsForUser(ctx context.Context, userID model.ID) ([]model.Ticket, error) {
	key, err := parseID(userID)
	if err != nil {
		return []model.Ticket{}, nil
	}
	return r.queryTickets(ctx, `WHERE r.user_id = $1 ORDER BY r.id DESC`, key)
}

func (r *PostgresStore) queryTickets(ctx context.Context, where string, args ...any) ([]model.Ticket, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.event_id, r.status, r.price, r.qr_code, r.created_at,
		        e.title, e.event_date, e.event_time, e.venue, e.location, e.image_url
		 FROM registrations r JOIN events e ON e.id = r.event_id `+where,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := []model.Ticket{}
	for rows.Next() {
		var (
			t           model.Ticket
			id, eventID int64
			status      string
			createdAt   time.Time
		)
		if err := rows.Scan(&id, &eventID, &status, &t.Price, &t.QRCode, &createdAt,
			&t.EventTitle, &t.EventDate, &t.EventTime, &t.EventVenue, &t.EventLocation, &t.EventImageURL); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		t.ID = formatID(id)
		t.EventID = formatID(eventID)
		t.Status = model.TicketStatus(status)
		t.TicketType = "general"
		t.PurchaseDate = createdAt.UTC().Format(time.RFC3339)
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
