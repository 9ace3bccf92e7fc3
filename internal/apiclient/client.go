// Package apiclient is the HTTP client for the EventHub backend.
//
// Every endpoint the front end consumes has one method here. Calls that
// need authentication take the bearer credential from a TokenSource,
// normally the session store. Non-2xx responses are returned as *Error
// carrying the response body text.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// ErrNotAuthenticated is returned, without contacting the backend, when an
// authenticated endpoint is called with no credential available.
var ErrNotAuthenticated = errors.New("you must be logged in")

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not a
// backend response error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// TokenSource supplies the bearer credential for authenticated calls.
type TokenSource interface {
	Credential() string
}

// Client talks to the backend rooted at a base URL such as
// http://localhost:8080/api.
type Client struct {
	baseURL string
	logger  *logrus.Logger
	hc      *http.Client
	tokens  TokenSource
}

// New constructs a Client. A nil http.Client means http.DefaultClient.
func New(baseURL string, logger *logrus.Logger, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		hc:      hc,
	}
}

// WithTokenSource returns a copy of the client that authenticates with ts.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ImageURL resolves an image path returned by the backend (such as
// /uploads/x.png) against the server root. Absolute URLs are returned as is.
func (c *Client) ImageURL(imagePath string) string {
	if imagePath == "" {
		return ""
	}
	if u, err := url.Parse(imagePath); err == nil && u.IsAbs() {
		return imagePath
	}
	root, err := url.Parse(c.baseURL)
	if err != nil {
		return imagePath
	}
	root.Path = "/" + strings.TrimPrefix(imagePath, "/")
	return root.String()
}

// Login exchanges credentials for an identity and bearer token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, creds, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("login response carried no token")
	}
	return &resp, nil
}

// RegisterAccount creates an account. It does not log in.
func (c *Client) RegisterAccount(ctx context.Context, req model.AccountRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/register", false, req, nil)
}

// ListEvents fetches every event.
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	events := []model.Event{}
	if err := c.do(ctx, http.MethodGet, "/events", false, nil, &events); err != nil {
		return nil, err
	}
	return normalizeEvents(events), nil
}

// ListOrganizedEvents fetches the events organized by the current user.
func (c *Client) ListOrganizedEvents(ctx context.Context) ([]model.Event, error) {
	events := []model.Event{}
	if err := c.do(ctx, http.MethodGet, "/events/my-organized", true, nil, &events); err != nil {
		return nil, err
	}
	return normalizeEvents(events), nil
}

// CreateEvent publishes a new event.
func (c *Client) CreateEvent(ctx context.Context, draft model.EventDraft) (*model.Event, error) {
	var event model.Event
	if err := c.do(ctx, http.MethodPost, "/events", true, draft, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent replaces the editable fields of an event.
func (c *Client) UpdateEvent(ctx context.Context, id model.ID, draft model.EventDraft) (*model.Event, error) {
	var event model.Event
	if err := c.do(ctx, http.MethodPut, eventPath(id), true, draft, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, id model.ID) error {
	return c.do(ctx, http.MethodDelete, eventPath(id), true, nil, nil)
}

// RegisterAttendee registers the current user for an event and returns the
// issued ticket.
func (c *Client) RegisterAttendee(ctx context.Context, id model.ID, info model.AttendeeInfo) (*model.Ticket, error) {
	var ticket model.Ticket
	if err := c.do(ctx, http.MethodPost, eventPath(id)+"/register", true, info, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MyTickets fetches the current user's tickets.
func (c *Client) MyTickets(ctx context.Context) ([]model.Ticket, error) {
	tickets := []model.Ticket{}
	if err := c.do(ctx, http.MethodGet, "/my-tickets", true, nil, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	return tickets, nil
}

// UploadImage sends an image as the multipart field "file" and returns the
// stored path.
func (c *Client) UploadImage(ctx context.Context, filename string, content io.Reader) (*model.UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", path.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload %s: %w", filename, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", true, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result model.UploadResult
	if err := c.send(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func eventPath(id model.ID) string {
	return "/events/" + url.PathEscape(id.String())
}

// normalizeEvents replaces nil tag lists so the query engine and renderers
// never see null.
func normalizeEvents(events []model.Event) []model.Event {
	if events == nil {
		return []model.Event{}
	}
	for i := range events {
		if events[i].Tags == nil {
			events[i].Tags = []string{}
		}
	}
	return events
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, endpoint string, auth bool, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, endpoint, auth, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, auth bool, body io.Reader) (*http.Request, error) {
	var token string
	if auth {
		if c.tokens != nil {
			token = c.tokens.Credential()
		}
		if token == "" {
			return nil, ErrNotAuthenticated
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	entry := c.logger.WithContext(req.Context()).WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.URL.Path,
		"request_id": req.Header.Get("X-Request-ID"),
	})

	resp, err := c.hc.Do(req)
	if err != nil {
		entry.WithError(err).Warn("backend unreachable")
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		entry.WithError(err).Warn("read response body")
		return fmt.Errorf("read %s %s response: %w", req.Method, req.URL.Path, err)
	}

	entry = entry.WithField("status", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Message: messageFrom(data, resp.StatusCode)}
		entry.WithError(apiErr).Warn("backend rejected request")
		return apiErr
	}
	entry.Debug("backend call succeeded")

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// messageFrom derives a user-facing message from an error body: the
// "error" or "message" field of a JSON object, otherwise the trimmed text.
func messageFrom(body []byte, status int) string {
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") {
		var envelope struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			if envelope.Error != "" {
				return envelope.Error
			}
			if envelope.Message != "" {
				return envelope.Message
			}
		}
	}
	if text == "" {
		return http.StatusText(status)
	}
	return text
}
