package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"golang.org/x/text/language"

	"github.com/Shivanand-hulikatti/eventhub/internal/apiclient"
	"github.com/Shivanand-hulikatti/eventhub/internal/catalog"
	"github.com/Shivanand-hulikatti/eventhub/internal/config"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/session"
)

// stdio bundles the process streams so tests can substitute them.
type stdio struct {
	in  io.Reader
	out io.Writer
	err io.Writer

	// readSecret reads a line without echo. Nil falls back to a plain
	// line read from in.
	readSecret func() (string, error)

	// interactive reports whether prompts can be answered.
	interactive bool
}

func defaultIO() stdio {
	fd := int(os.Stdin.Fd())
	interactive := term.IsTerminal(fd)
	streams := stdio{in: os.Stdin, out: os.Stdout, err: os.Stderr, interactive: interactive}
	if interactive {
		streams.readSecret = func() (string, error) {
			secret, err := term.ReadPassword(fd)
			fmt.Fprintln(os.Stderr)
			return string(secret), err
		}
	}
	return streams
}

// app is the state shared by every command: one session store per process,
// the API client authenticated through it, and the event catalog.
type app struct {
	cfg     config.Config
	logger  *logrus.Logger
	session *session.Store
	client  *apiclient.Client
	catalog *catalog.Catalog
	io      stdio
	lines   *bufio.Reader
}

// newApp builds the session storage named by cfg, restores the session and
// wires the client. The returned cleanup releases the storage backend.
func newApp(ctx context.Context, cfg config.Config, logger *logrus.Logger, streams stdio) (*app, func()) {
	var (
		storage session.Storage
		cleanup = func() {}
	)
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		redis.SetLogger(session.NewRedisLogger(logger))
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		})
		// An unreachable Redis only costs the session: Restore falls back
		// to unauthenticated and public commands still work.
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithContext(ctx).WithError(err).WithField("addr", cfg.Session.Redis.Addr).
				Warn("session redis unreachable; continuing logged out")
		}
		storage = session.NewRedisStorage(rdb, cfg.Session.Redis.Prefix)
		cleanup = func() { rdb.Close() }
	default:
		storage = session.NewFileStorage(cfg.Session.StateDir)
	}

	hc := &http.Client{Timeout: cfg.API.Timeout}
	return assemble(ctx, cfg, logger, storage, hc, streams), cleanup
}

func assemble(ctx context.Context, cfg config.Config, logger *logrus.Logger, storage session.Storage, hc *http.Client, streams stdio) *app {
	base := apiclient.New(cfg.API.BaseURL, logger, hc)
	store := session.NewStore(base, storage, logger)
	store.Restore(ctx)
	client := base.WithTokenSource(store)

	return &app{
		cfg:     cfg,
		logger:  logger,
		session: store,
		client:  client,
		catalog: catalog.New(client, logger, language.English),
		io:      streams,
		lines:   bufio.NewReader(streams.in),
	}
}

var errNotLoggedIn = errors.New("you must be logged in (run 'eventhub login <email>')")

// requireUser returns the logged-in identity or errNotLoggedIn.
func (a *app) requireUser() (model.Identity, error) {
	user, ok := a.session.User()
	if !ok {
		return model.Identity{}, errNotLoggedIn
	}
	return user, nil
}

// requireOrganizer gates the organizer-only commands. The backend enforces
// the same rule; this only avoids a pointless round trip.
func (a *app) requireOrganizer() (model.Identity, error) {
	user, err := a.requireUser()
	if err != nil {
		return user, err
	}
	if !user.IsOrganizer() {
		return user, errors.New("only organizers can manage events")
	}
	return user, nil
}

// prompt writes label to stderr and reads one trimmed line.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.io.err, label)
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", errors.New("no input")
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a password, without echo on a terminal.
func (a *app) promptSecret(label string) (string, error) {
	if a.io.readSecret == nil {
		return a.prompt(label)
	}
	fmt.Fprint(a.io.err, label)
	return a.io.readSecret()
}

// confirm asks a yes/no question; anything but y/yes is no.
func (a *app) confirm(question string) (bool, error) {
	answer, err := a.prompt(question + " [y/N] ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
