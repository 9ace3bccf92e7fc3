package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventhub/internal/logging"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

type staticToken string

func (s staticToken) Credential() string { return string(s) }

func newTestClient(t *testing.T, router http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return New(server.URL+"/api", logging.Discard(), server.Client())
}

func TestLoginSendsCredentials(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var creds model.Credentials
		require.NoError(t, json.NewDecoder(req.Body).Decode(&creds))
		assert.Equal(t, "ada@example.com", creds.Email)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Empty(t, req.Header.Get("Authorization"))
		assert.NotEmpty(t, req.Header.Get("X-Request-ID"))

		_, _ = io.WriteString(w, `{"token":"tok-1","tokenType":"Bearer","user":{"id":7,"name":"Ada","email":"ada@example.com","role":"organizer"}}`)
	})
	client := newTestClient(t, r)

	resp, err := client.Login(context.Background(), model.Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, model.ID("7"), resp.User.ID)
	assert.Equal(t, model.RoleOrganizer, resp.User.Role)
}

func TestLoginWithoutTokenFails(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"user":{"id":1}}`)
	})
	_, err := newTestClient(t, r).Login(context.Background(), model.Credentials{})
	assert.ErrorContains(t, err, "no token")
}

func TestNon2xxBecomesError(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Bad credentials", http.StatusUnauthorized)
	})
	r.Post("/api/auth/register", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Email address already in use!"}`)
	})
	r.Delete("/api/events/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	client := newTestClient(t, r).WithTokenSource(staticToken("tok"))
	ctx := context.Background()

	_, err := client.Login(ctx, model.Credentials{})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Bad credentials", apiErr.Message)

	err = client.RegisterAccount(ctx, model.AccountRequest{})
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.ErrorContains(t, err, "Email address already in use!")

	err = client.DeleteEvent(ctx, "9")
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
	assert.ErrorContains(t, err, "Forbidden")
}

func TestAuthenticatedCallsAttachBearer(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/my-tickets", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"id":1,"eventId":4,"status":"active","price":75,"eventTitle":"Pitch Night"}]`)
	})
	client := newTestClient(t, r).WithTokenSource(staticToken("secret"))

	tickets, err := client.MyTickets(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, model.TicketActive, tickets[0].Status)
	assert.Equal(t, model.ID("4"), tickets[0].EventID)
}

func TestAuthenticatedCallWithoutCredentialIsNotSent(t *testing.T) {
	called := false
	r := chi.NewRouter()
	r.Get("/api/events/my-organized", func(http.ResponseWriter, *http.Request) { called = true })
	client := newTestClient(t, r)

	_, err := client.ListOrganizedEvents(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = client.WithTokenSource(staticToken("")).ListOrganizedEvents(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, called)
}

func TestListEventsNormalizesNulls(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/events", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"title":"A","tags":null}]`)
	})
	events, err := newTestClient(t, r).ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotNil(t, events[0].Tags)

	r2 := chi.NewRouter()
	r2.Get("/api/events", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})
	events, err = newTestClient(t, r2).ListEvents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestCreateUpdateAndRegister(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/events", func(w http.ResponseWriter, req *http.Request) {
		var draft model.EventDraft
		require.NoError(t, json.NewDecoder(req.Body).Decode(&draft))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.Event{ID: "11", Title: draft.Title})
	})
	r.Put("/api/events/{id}", func(w http.ResponseWriter, req *http.Request) {
		var draft model.EventDraft
		require.NoError(t, json.NewDecoder(req.Body).Decode(&draft))
		_ = json.NewEncoder(w).Encode(model.Event{ID: model.ID(chi.URLParam(req, "id")), Title: draft.Title})
	})
	r.Post("/api/events/{id}/register", func(w http.ResponseWriter, req *http.Request) {
		var info model.AttendeeInfo
		require.NoError(t, json.NewDecoder(req.Body).Decode(&info))
		assert.Equal(t, "Grace", info.Name)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.Ticket{ID: "t1", EventID: model.ID(chi.URLParam(req, "id")), Status: model.TicketActive})
	})
	client := newTestClient(t, r).WithTokenSource(staticToken("tok"))
	ctx := context.Background()

	created, err := client.CreateEvent(ctx, model.EventDraft{Title: "Launch"})
	require.NoError(t, err)
	assert.Equal(t, model.ID("11"), created.ID)

	updated, err := client.UpdateEvent(ctx, "11", model.EventDraft{Title: "Launch v2"})
	require.NoError(t, err)
	assert.Equal(t, "Launch v2", updated.Title)

	ticket, err := client.RegisterAttendee(ctx, "11", model.AttendeeInfo{Name: "Grace", Email: "g@example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.ID("11"), ticket.EventID)
}

func TestUploadImageSendsMultipart(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/upload", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
		file, header, err := req.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "poster.png", header.Filename)
		assert.Equal(t, "PNGDATA", string(data))
		_, _ = io.WriteString(w, `{"filePath":"/uploads/abc.png"}`)
	})
	client := newTestClient(t, r).WithTokenSource(staticToken("tok"))

	result, err := client.UploadImage(context.Background(), "/home/me/poster.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/abc.png", result.FilePath)
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := New(server.URL+"/api", logging.Discard(), nil)

	_, err := client.ListEvents(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, StatusOf(err))
}

func TestImageURL(t *testing.T) {
	client := New("http://localhost:8080/api/", logging.Discard(), nil)

	assert.Equal(t, "http://localhost:8080/api", client.BaseURL())
	assert.Equal(t, "http://localhost:8080/uploads/a.png", client.ImageURL("/uploads/a.png"))
	assert.Equal(t, "https://cdn.example.com/x.jpg", client.ImageURL("https://cdn.example.com/x.jpg"))
	assert.Empty(t, client.ImageURL(""))
}

func TestMessageFrom(t *testing.T) {
	assert.Equal(t, "boom", messageFrom([]byte(`{"message":"boom"}`), 500))
	assert.Equal(t, "plain text", messageFrom([]byte("  plain text\n"), 400))
	assert.Equal(t, "Not Found", messageFrom(nil, 404))
	assert.Equal(t, `{"other":1}`, messageFrom([]byte(`{"other":1}`), 409))
}
