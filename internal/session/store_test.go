package session

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventhub/internal/apiclient"
	"github.com/Shivanand-hulikatti/eventhub/internal/logging"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Login(ctx context.Context, creds model.Credentials) (*model.LoginResponse, error) {
	args := m.Called(ctx, creds)
	resp, _ := args.Get(0).(*model.LoginResponse)
	return resp, args.Error(1)
}

func (m *mockAuthenticator) RegisterAccount(ctx context.Context, req model.AccountRequest) error {
	return m.Called(ctx, req).Error(0)
}

// memoryStorage is an in-memory Storage with optional write failures.
type memoryStorage struct {
	mu       sync.Mutex
	entries  map[string]string
	failSet  map[string]bool
	failDel  bool
	setCalls int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{entries: map[string]string{}, failSet: map[string]bool{}}
}

func (m *memoryStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *memoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.failSet[key] {
		return errors.New("disk full")
	}
	m.entries[key] = value
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel {
		return errors.New("read-only")
	}
	delete(m.entries, key)
	return nil
}

func (m *memoryStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

var ada = model.Identity{ID: "7", Name: "Ada", Email: "ada@example.com", Role: model.RoleOrganizer}

func adaLogin() *model.LoginResponse {
	return &model.LoginResponse{Token: "tok-ada", User: ada}
}

func newTestStore(auth Authenticator, storage Storage) *Store {
	return NewStore(auth, storage, logging.Discard())
}

func TestLoginSuccessStoresAndPersists(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthenticator{}
	auth.On("Login", ctx, model.Credentials{Email: "ada@example.com", Password: "pw"}).Return(adaLogin(), nil)
	storage := newMemoryStorage()
	store := newTestStore(auth, storage)
	store.Restore(ctx)

	require.True(t, store.Login(ctx, "ada@example.com", "pw"))

	snapshot := store.Snapshot()
	require.NotNil(t, snapshot.User)
	assert.Equal(t, ada, *snapshot.User)
	assert.Equal(t, "tok-ada", store.Credential())
	assert.NoError(t, store.Err())
	assert.Equal(t, "tok-ada", storage.entries[TokenKey])
	assert.JSONEq(t, `{"id":"7","name":"Ada","email":"ada@example.com","role":"organizer"}`, storage.entries[UserKey])
	auth.AssertExpectations(t)
}

func TestLoginInvalidCredentialsStaysUnauthenticated(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthenticator{}
	auth.On("Login", ctx, mock.Anything).Return(nil, &apiclient.Error{Status: http.StatusUnauthorized, Message: "Bad credentials"})
	storage := newMemoryStorage()
	store := newTestStore(auth, storage)
	store.Restore(ctx)

	assert.False(t, store.Login(ctx, "ada@example.com", "wrong"))

	assert.Equal(t, model.Session{}, store.Snapshot())
	assert.False(t, store.Authenticated())
	assert.Empty(t, store.Credential())
	assert.Equal(t, http.StatusUnauthorized, apiclient.StatusOf(store.Err()))
	assert.Empty(t, storage.entries)
}

func TestFailedLoginKeepsPriorSession(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthenticator{}
	auth.On("Login", ctx, model.Credentials{Email: "ada@example.com", Password: "pw"}).Return(adaLogin(), nil)
	auth.On("Login", ctx, model.Credentials{Email: "bob@example.com", Password: "pw"}).Return(nil, errors.New("connection refused"))
	storage := newMemoryStorage()
	store := newTestStore(auth, storage)
	store.Restore(ctx)

	require.True(t, store.Login(ctx, "ada@example.com", "pw"))
	require.False(t, store.Login(ctx, "bob@example.com", "pw"))

	user, ok := store.User()
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "tok-ada", storage.entries[TokenKey])
	assert.ErrorContains(t, store.Err(), "connection refused")
}

func TestPersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthenticator{}
	auth.On("Login", ctx, mock.Anything).Return(adaLogin(), nil)
	storage := newMemoryStorage()
	storage.failSet[UserKey] = true
	store := newTestStore(auth, storage)
	store.Restore(ctx)

	assert.False(t, store.Login(ctx, "ada@example.com", "pw"))

	assert.False(t, store.Authenticated())
	assert.False(t, storage.has(TokenKey), "credential written before the failure must be removed")
	assert.False(t, storage.has(UserKey))
	assert.ErrorContains(t, store.Err(), "persist identity")
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthenticator{}
	req := model.AccountRequest{Name: "Ada", Email: "ada@example.com", Password: "pw", Role: model.RoleOrganizer}
	auth.On("RegisterAccount", ctx, req).Return(nil)
	auth.On("Login", ctx, model.Credentials{Email: "ada@example.com", Password: "pw"}).Return(adaLogin(), nil)
	store := newTestStore(auth, newMemoryStorage())
	store.Restore(ctx)

	require.True(t, store.Register(ctx, "Ada", "ada@example.com", "pw", model.RoleOrganizer))
	assert.True(t, store.Authenticated())
	auth.AssertExpectations(t)
}

func TestRegisterRejected(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthenticator{}
	auth.On("RegisterAccount", ctx, mock.Anything).Return(&apiclient.Error{Status: 400, Message: "Email address already in use!"})
	store := newTestStore(auth, newMemoryStorage())
	store.Restore(ctx)

	assert.False(t, store.Register(ctx, "Ada", "ada@example.com", "pw", model.RoleAttendee))
	assert.False(t, store.Authenticated())
	assert.NotErrorIs(t, store.Err(), ErrAccountCreatedLoginFailed)
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestRegisterSucceedsButLoginFails(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthenticator{}
	auth.On("RegisterAccount", ctx, mock.Anything).Return(nil)
	auth.On("Login", ctx, mock.Anything).Return(nil, &apiclient.Error{Status: 503, Message: "down"})
	store := newTestStore(auth, newMemoryStorage())
	store.Restore(ctx)

	assert.False(t, store.Register(ctx, "Ada", "ada@example.com", "pw", model.RoleAttendee))
	assert.False(t, store.Authenticated())
	assert.ErrorIs(t, store.Err(), ErrAccountCreatedLoginFailed)
	assert.Equal(t, 503, apiclient.StatusOf(store.Err()))
}

func TestLogoutClearsEverythingAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthenticator{}
	auth.On("Login", ctx, mock.Anything).Return(adaLogin(), nil)
	storage := newMemoryStorage()
	store := newTestStore(auth, storage)
	store.Restore(ctx)
	require.True(t, store.Login(ctx, "ada@example.com", "pw"))

	store.Logout(ctx)
	assert.Equal(t, model.Session{}, store.Snapshot())
	assert.False(t, storage.has(UserKey))
	assert.False(t, storage.has(TokenKey))

	store.Logout(ctx)
	assert.False(t, store.Authenticated())
}

func TestLogoutClearsPersistedEntriesRegardlessOfState(t *testing.T) {
	ctx := context.Background()
	storage := newMemoryStorage()
	storage.entries[UserKey] = "garbage"
	storage.entries[TokenKey] = "stale"
	store := newTestStore(&mockAuthenticator{}, storage)

	// Never restored, never logged in.
	store.Logout(ctx)
	assert.Empty(t, storage.entries)
}

func TestLogoutSurvivesStorageErrors(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthenticator{}
	auth.On("Login", ctx, mock.Anything).Return(adaLogin(), nil)
	storage := newMemoryStorage()
	store := newTestStore(auth, storage)
	require.True(t, store.Login(ctx, "ada@example.com", "pw"))

	storage.failDel = true
	store.Logout(ctx)
	assert.False(t, store.Authenticated())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		entries map[string]string
		want    bool
	}{
		{"both present", map[string]string{UserKey: `{"id":7,"name":"Ada","email":"ada@example.com","role":"organizer"}`, TokenKey: "tok"}, true},
		{"nothing persisted", map[string]string{}, false},
		{"user only", map[string]string{UserKey: `{"id":"7","email":"ada@example.com"}`}, false},
		{"token only", map[string]string{TokenKey: "tok"}, false},
		{"malformed user", map[string]string{UserKey: `{"id":`, TokenKey: "tok"}, false},
		{"user without id", map[string]string{UserKey: `{"email":"ada@example.com"}`, TokenKey: "tok"}, false},
		{"blank token", map[string]string{UserKey: `{"id":"7","email":"ada@example.com"}`, TokenKey: "  "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newMemoryStorage()
			for k, v := range tt.entries {
				storage.entries[k] = v
			}
			store := newTestStore(&mockAuthenticator{}, storage)
			assert.True(t, store.Loading())

			store.Restore(ctx)

			assert.False(t, store.Loading())
			assert.Equal(t, tt.want, store.Authenticated())
			snapshot := store.Snapshot()
			assert.Equal(t, snapshot.User != nil, snapshot.Credential != "")
		})
	}
}

func TestLoadingDuringLogin(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	entered := make(chan struct{})
	auth := &mockAuthenticator{}
	auth.On("Login", ctx, mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(adaLogin(), nil)
	store := newTestStore(auth, newMemoryStorage())
	store.Restore(ctx)
	require.False(t, store.Loading())

	done := make(chan bool)
	go func() { done <- store.Login(ctx, "ada@example.com", "pw") }()

	<-entered
	assert.True(t, store.Loading())
	close(release)
	assert.True(t, <-done)
	assert.False(t, store.Loading())
}

func TestSessionInvariantUnderRandomOperations(t *testing.T) {
	ctx := context.Background()
	auth := &mockAuthenticator{}
	auth.On("Login", ctx, model.Credentials{Email: "ada@example.com", Password: "pw"}).Return(adaLogin(), nil)
	auth.On("Login", ctx, mock.Anything).Return(nil, &apiclient.Error{Status: 401, Message: "Bad credentials"})
	auth.On("RegisterAccount", ctx, mock.MatchedBy(func(r model.AccountRequest) bool { return r.Email == "ada@example.com" })).Return(nil)
	auth.On("RegisterAccount", ctx, mock.Anything).Return(&apiclient.Error{Status: 400, Message: "taken"})

	storage := newMemoryStorage()
	store := newTestStore(auth, storage)
	store.Restore(ctx)

	r := rand.New(rand.NewSource(42))
	emails := []string{"ada@example.com", "mallory@example.com"}
	passwords := []string{"pw", "nope"}
	for step := range 300 {
		email := emails[r.Intn(len(emails))]
		password := passwords[r.Intn(len(passwords))]
		switch r.Intn(4) {
		case 0, 1:
			store.Login(ctx, email, password)
		case 2:
			store.Register(ctx, "Someone", email, password, model.RoleAttendee)
		case 3:
			store.Logout(ctx)
		}

		snapshot := store.Snapshot()
		require.Equalf(t, snapshot.User != nil, snapshot.Credential != "", "step %d", step)
		require.Equalf(t, storage.has(UserKey), storage.has(TokenKey), "step %d", step)
		require.Equalf(t, snapshot.User != nil, storage.has(TokenKey), "step %d", step)
	}
}
