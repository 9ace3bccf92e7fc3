// Package model defines the domain types shared by the EventHub client and
// the development backend. JSON tags follow the backend wire contract.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout and TimeLayout are the wire formats of Event.Date and Event.Time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DefaultCategories are the categories offered when creating an event.
// The listing facets are derived from data, not from this list.
var DefaultCategories = []string{
	"Technology", "Marketing", "Business", "Education", "Entertainment",
	"Food & Drink", "Health & Wellness", "Sports & Fitness", "Arts & Culture", "Networking",
}

// ID is a backend identifier. The backend emits numeric ids while older
// payloads use strings, so both decode into the same string form.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*id = ID(n.String())
	}
	return nil
}

func (id ID) String() string { return string(id) }

// Role is the account type chosen at registration.
type Role string

const (
	RoleAttendee  Role = "attendee"
	RoleOrganizer Role = "organizer"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAttendee, RoleOrganizer:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q (want attendee or organizer)", s)
}

// Identity is the authenticated user as returned by the backend.
type Identity struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsOrganizer reports whether organizer-only affordances should be shown.
func (i Identity) IsOrganizer() bool {
	return i.Role == RoleOrganizer
}

// Session is the client's authentication state. User and Credential are
// either both set or both empty.
type Session struct {
	User       *Identity
	Credential string
}

// Authenticated returns true when both halves of the session are present.
func (s Session) Authenticated() bool {
	return s.User != nil && s.Credential != ""
}

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Event is an event listing. Clients treat it as read-only.
type Event struct {
	ID               ID          `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"shortDescription"`
	Date             string      `json:"date"`
	Time             string      `json:"time"`
	Location         string      `json:"location"`
	Venue            string      `json:"venue"`
	Category         string      `json:"category"`
	Image            string      `json:"imageUrl"`
	Price            float64     `json:"price"`
	MaxAttendees     int         `json:"maxAttendees"`
	CurrentAttendees int         `json:"currentAttendees"`
	Organizer        Identity    `json:"organizer"`
	Status           EventStatus `json:"status"`
	Tags             []string    `json:"tags"`
}

// SpotsLeft returns the remaining capacity, never negative.
func (e *Event) SpotsLeft() int {
	if left := e.MaxAttendees - e.CurrentAttendees; left > 0 {
		return left
	}
	return 0
}

// IsSoldOut returns true when no seats remain.
func (e *Event) IsSoldOut() bool {
	return e.CurrentAttendees >= e.MaxAttendees
}

// IsFree reports a zero price.
func (e *Event) IsFree() bool {
	return e.Price == 0
}

// Day parses Date. The zero time and false are returned for an empty or
// unparseable date.
func (e *Event) Day() (time.Time, bool) {
	return ParseDate(e.Date)
}

// When combines Date and Time into a single instant in UTC.
func (e *Event) When() (time.Time, bool) {
	day, ok := e.Day()
	if !ok {
		return time.Time{}, false
	}
	clock, ok := ParseClock(e.Time)
	if !ok {
		return day, true
	}
	return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), true
}

// ParseDate accepts a calendar date or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// ParseClock accepts HH:MM or HH:MM:SS.
func ParseClock(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TicketStatus is the state of a purchased ticket.
type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
	TicketRefunded  TicketStatus = "refunded"
)

// Ticket is the backend's read-only projection of a registration, with the
// event's display fields denormalized onto it.
type Ticket struct {
	ID            ID           `json:"id"`
	EventID       ID           `json:"eventId"`
	Status        TicketStatus `json:"status"`
	Price         float64      `json:"price"`
	TicketType    string       `json:"ticketType,omitempty"`
	QRCode        string       `json:"qrCode,omitempty"`
	PurchaseDate  string       `json:"purchaseDate,omitempty"`
	EventTitle    string       `json:"eventTitle"`
	EventDate     string       `json:"eventDate"`
	EventTime     string       `json:"eventTime"`
	EventVenue    string       `json:"eventVenue"`
	EventLocation string       `json:"eventLocation"`
	EventImageURL string       `json:"eventImageUrl"`
}

// EventDraft is the payload for creating or updating an event.
type EventDraft struct {
	Title            string   `json:"title" validate:"required,max=200"`
	ShortDescription string   `json:"shortDescription" validate:"required,max=100"`
	Description      string   `json:"description" validate:"required"`
	Date             string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time             string   `json:"time" validate:"required,clock"`
	Location         string   `json:"location" validate:"required"`
	Venue            string   `json:"venue" validate:"required"`
	Category         string   `json:"category" validate:"required"`
	Price            float64  `json:"price" validate:"gte=0"`
	MaxAttendees     int      `json:"maxAttendees" validate:"gte=1"`
	ImageURL         string   `json:"imageUrl,omitempty"`
	Tags             []string `json:"tags"`
}

// Normalize trims text fields and drops blank tags.
func (d *EventDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.ShortDescription = strings.TrimSpace(d.ShortDescription)
	d.Description = strings.TrimSpace(d.Description)
	d.Date = strings.TrimSpace(d.Date)
	d.Time = strings.TrimSpace(d.Time)
	d.Location = strings.TrimSpace(d.Location)
	d.Venue = strings.TrimSpace(d.Venue)
	d.Category = strings.TrimSpace(d.Category)

	tags := make([]string, 0, len(d.Tags))
	for _, tag := range d.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	d.Tags = tags
}

// DraftFromEvent seeds an edit form with the current event values.
func DraftFromEvent(e Event) EventDraft {
	return EventDraft{
		Title:            e.Title,
		ShortDescription: e.ShortDescription,
		Description:      e.Description,
		Date:             e.Date,
		Time:             trimSeconds(e.Time),
		Location:         e.Location,
		Venue:            e.Venue,
		Category:         e.Category,
		Price:            e.Price,
		MaxAttendees:     e.MaxAttendees,
		ImageURL:         e.Image,
		Tags:             append([]string(nil), e.Tags...),
	}
}

func trimSeconds(clock string) string {
	if t, ok := ParseClock(clock); ok {
		return t.Format(TimeLayout)
	}
	return clock
}

// AttendeeInfo is the registration form for attending an event.
type AttendeeInfo struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,max=32"`
	SpecialRequests string `json:"specialRequests,omitempty" validate:"omitempty,max=1000"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AccountRequest is the account registration payload.
type AccountRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=attendee organizer"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token     string   `json:"token"`
	TokenType string   `json:"tokenType,omitempty"`
	User      Identity `json:"user"`
}

// UploadResult is returned by the image upload endpoint.
type UploadResult struct {
	FilePath string `json:"filePath"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
