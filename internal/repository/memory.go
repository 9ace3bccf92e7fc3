package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

type registration struct {
	id        int64
	eventID   int64
	userID    model.ID
	attendee  model.AttendeeInfo
	status    model.TicketStatus
	price     float64
	qrCode    string
	createdAt time.Time
}

// MemoryStore keeps everything in process memory. A single mutex
// serializes writers, so Book is race-free without row locks.
type MemoryStore struct {
	mu sync.Mutex

	users   map[int64]User
	tokens  map[string]model.ID
	events  map[int64]model.Event
	regs    []registration
	counter int64
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[int64]User),
		tokens: make(map[string]model.ID),
		events: make(map[int64]model.Event),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) nextID() int64 {
	m.counter++
	return m.counter
}

// CreateUser stores a new account. Emails are compared case-insensitively.
func (m *MemoryStore) CreateUser(_ context.Context, user User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, ErrEmailTaken
		}
	}
	id := m.nextID()
	user.ID = formatID(id)
	m.users[id] = user
	return &user, nil
}

// UserByEmail returns the account registered under email.
func (m *MemoryStore) UserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// SaveToken binds a bearer token to a user.
func (m *MemoryStore) SaveToken(_ context.Context, token string, userID model.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = userID
	return nil
}

// UserForToken resolves a bearer token.
func (m *MemoryStore) UserForToken(_ context.Context, token string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

// ListEvents returns all events, newest first.
func (m *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedEvents(func(model.Event) bool { return true }), nil
}

// ListEventsByOrganizer returns the events owned by organizerID, newest first.
func (m *MemoryStore) ListEventsByOrganizer(_ context.Context, organizerID model.ID) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedEvents(func(e model.Event) bool { return e.Organizer.ID == organizerID }), nil
}

func (m *MemoryStore) sortedEvents(keep func(model.Event) bool) []model.Event {
	ids := make([]int64, 0, len(m.events))
	for id, event := range m.events {
		if keep(event) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	slices.Reverse(ids)

	events := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		events = append(events, cloneEvent(m.events[id]))
	}
	return events
}

// GetEvent returns a single event or ErrNotFound.
func (m *MemoryStore) GetEvent(_ context.Context, id model.ID) (*model.Event, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[key]
	if !ok {
		return nil, ErrNotFound
	}
	event = cloneEvent(event)
	return &event, nil
}

// CreateEvent inserts an event owned by organizer.
func (m *MemoryStore) CreateEvent(_ context.Context, organizer model.Identity, draft model.EventDraft) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID()
	event := eventFromDraft(id, organizer, draft)
	m.events[id] = cloneEvent(event)
	return &event, nil
}

// UpdateEvent replaces the editable fields of an event.
func (m *MemoryStore) UpdateEvent(_ context.Context, id model.ID, draft model.EventDraft) (*model.Event, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[key]
	if !ok {
		return nil, ErrNotFound
	}
	applyDraft(&event, draft)
	m.events[key] = cloneEvent(event)
	return &event, nil
}

// DeleteEvent removes an event and its registrations.
func (m *MemoryStore) DeleteEvent(_ context.Context, id model.ID) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[key]; !ok {
		return ErrNotFound
	}
	delete(m.events, key)
	m.regs = slices.DeleteFunc(m.regs, func(r registration) bool { return r.eventID == key })
	return nil
}

// Book registers userID for an event. The duplicate check runs before the
// capacity check, matching PostgresStore.
func (m *MemoryStore) Book(_ context.Context, eventID, userID model.ID, info model.AttendeeInfo) (*model.Ticket, error) {
	key, err := parseID(eventID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[key]
	if !ok {
		return nil, ErrNotFound
	}
	for _, r := range m.regs {
		if r.eventID == key && r.userID == userID {
			return nil, ErrAlreadyRegistered
		}
	}
	if event.CurrentAttendees >= event.MaxAttendees {
		return nil, ErrEventFull
	}

	event.CurrentAttendees++
	m.events[key] = event

	reg := registration{
		id:        m.nextID(),
		eventID:   key,
		userID:    userID,
		attendee:  info,
		status:    model.TicketActive,
		price:     event.Price,
		qrCode:    uuid.NewString(),
		createdAt: m.now(),
	}
	m.regs = append(m.regs, reg)
	ticket := ticketFor(reg, event)
	return &ticket, nil
}

// TicketsForUser returns the user's tickets, newest first.
func (m *MemoryStore) TicketsForUser(_ context.Context, userID model.ID) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tickets := []model.Ticket{}
	for i := len(m.regs) - 1; i >= 0; i-- {
		reg := m.regs[i]
		if reg.userID != userID {
			continue
		}
		tickets = append(tickets, ticketFor(reg, m.events[reg.eventID]))
	}
	return tickets, nil
}

func ticketFor(reg registration, event model.Event) model.Ticket {
	return model.Ticket{
		ID:            formatID(reg.id),
		EventID:       formatID(reg.eventID),
		Status:        reg.status,
		Price:         reg.price,
		TicketType:    "general",
		QRCode:        reg.qrCode,
		PurchaseDate:  reg.createdAt.Format(time.RFC3339),
		EventTitle:    event.Title,
		EventDate:     event.Date,
		EventTime:     event.Time,
		EventVenue:    event.Venue,
		EventLocation: event.Location,
		EventImageURL: event.Image,
	}
}

func cloneEvent(e model.Event) model.Event {
	e.Tags = slices.Clone(e.Tags)
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return e
}
