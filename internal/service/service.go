// Package service implements the development backend's business rules:
// validation, authentication, ownership checks and orchestration between
// the HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
	"github.com/Shivanand-hulikatti/eventhub/internal/validation"
)

var (
	// ErrBadCredentials is returned for an unknown email or wrong password.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrUnauthorized is returned for a missing or unknown bearer token.
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden is returned when the caller may not act on a resource.
	ErrForbidden = errors.New("not allowed")
)

// AuthService manages accounts and bearer tokens.
type AuthService struct {
	store  repository.Store
	logger *logrus.Logger
	cost   int
}

// NewAuthService constructs an AuthService hashing with bcrypt's default cost.
func NewAuthService(store repository.Store, logger *logrus.Logger) *AuthService {
	return &AuthService{store: store, logger: logger, cost: bcrypt.DefaultCost}
}

// Register validates the request and creates the account.
func (s *AuthService) Register(ctx context.Context, req model.AccountRequest) (*model.Identity, error) {
	if err := validation.Account(ctx, &req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, repository.User{
		Identity: model.Identity{
			Name:  req.Name,
			Email: strings.ToLower(req.Email),
			Role:  req.Role,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithContext(ctx).WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("account created")
	return &user.Identity, nil
}

// Login checks the credentials and issues a new bearer token.
func (s *AuthService) Login(ctx context.Context, creds model.Credentials) (*model.LoginResponse, error) {
	if err := validation.Credentials(ctx, &creds); err != nil {
		return nil, err
	}
	user, err := s.store.UserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return nil, ErrBadCredentials
	}

	token := uuid.NewString()
	if err := s.store.SaveToken(ctx, token, user.ID); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return &model.LoginResponse{Token: token, TokenType: "Bearer", User: user.Identity}, nil
}

// Authenticate resolves a bearer token to its identity.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.store.UserForToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return &user.Identity, nil
}

// EventService orchestrates event-related business operations.
type EventService struct {
	store  repository.Store
	logger *logrus.Logger
}

// NewEventService constructs an EventService.
func NewEventService(store repository.Store, logger *logrus.Logger) *EventService {
	return &EventService{store: store, logger: logger}
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx)
}

// ListOrganized returns the caller's own events.
func (s *EventService) ListOrganized(ctx context.Context, caller model.Identity) ([]model.Event, error) {
	return s.store.ListEventsByOrganizer(ctx, caller.ID)
}

// GetEvent returns a single event.
func (s *EventService) GetEvent(ctx context.Context, id model.ID) (*model.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// CreateEvent validates the draft and stores it with caller as organizer.
// Only organizers may create events.
func (s *EventService) CreateEvent(ctx context.Context, caller model.Identity, draft model.EventDraft) (*model.Event, error) {
	if !caller.IsOrganizer() {
		return nil, ErrForbidden
	}
	if err := validation.Draft(ctx, &draft); err != nil {
		return nil, err
	}
	event, err := s.store.CreateEvent(ctx, caller, draft)
	if err != nil {
		return nil, err
	}
	s.logger.WithContext(ctx).WithFields(logrus.Fields{"event_id": event.ID, "organizer_id": caller.ID}).Info("event created")
	return event, nil
}

// UpdateEvent validates the draft and applies it if caller owns the event.
func (s *EventService) UpdateEvent(ctx context.Context, caller model.Identity, id model.ID, draft model.EventDraft) (*model.Event, error) {
	if err := s.authorizeOwner(ctx, caller, id); err != nil {
		return nil, err
	}
	if err := validation.Draft(ctx, &draft); err != nil {
		return nil, err
	}
	return s.store.UpdateEvent(ctx, id, draft)
}

// DeleteEvent removes the event if caller owns it.
func (s *EventService) DeleteEvent(ctx context.Context, caller model.Identity, id model.ID) error {
	if err := s.authorizeOwner(ctx, caller, id); err != nil {
		return err
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.logger.WithContext(ctx).WithFields(logrus.Fields{"event_id": id, "organizer_id": caller.ID}).Info("event deleted")
	return nil
}

func (s *EventService) authorizeOwner(ctx context.Context, caller model.Identity, id model.ID) error {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if event.Organizer.ID != caller.ID {
		return ErrForbidden
	}
	return nil
}

// Register validates the attendee form and books a seat for caller.
func (s *EventService) Register(ctx context.Context, caller model.Identity, id model.ID, info model.AttendeeInfo) (*model.Ticket, error) {
	if err := validation.Attendee(ctx, &info); err != nil {
		return nil, err
	}
	ticket, err := s.store.Book(ctx, id, caller.ID, info)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrEventFull) ||
			errors.Is(err, repository.ErrAlreadyRegistered) {
			return nil, err
		}
		return nil, fmt.Errorf("register for event: %w", err)
	}
	s.logger.WithContext(ctx).WithFields(logrus.Fields{"event_id": id, "user_id": caller.ID, "ticket_id": ticket.ID}).Info("ticket issued")
	return ticket, nil
}

// MyTickets returns the caller's tickets.
func (s *EventService) MyTickets(ctx context.Context, caller model.Identity) ([]model.Ticket, error) {
	return s.store.TicketsForUser(ctx, caller.ID)
}
