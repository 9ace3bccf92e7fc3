package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned by Storage.Get for a missing key.
var ErrNotFound = errors.New("session entry not found")

// Storage is the durable key/value store behind a Store. Delete of a
// missing key is not an error.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// FileStorage keeps one file per key in a directory. The directory is
// created with mode 0700 and files are written with mode 0600 since one
// of the entries is a bearer credential.
type FileStorage struct {
	dir string
}

// NewFileStorage returns a FileStorage rooted at dir. Nothing is created
// until the first Set.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

func (f *FileStorage) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid session key %q", key)
	}
	return filepath.Join(f.dir, key), nil
}

// Get reads the value stored under key.
func (f *FileStorage) Get(_ context.Context, key string) (string, error) {
	path, err := f.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("reading session entry %s: %w", path, err)
	}
	return string(data), nil
}

// Set writes value under key, replacing the file atomically.
func (f *FileStorage) Set(_ context.Context, key, value string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("creating session directory %s: %w", f.dir, err)
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+".*")
	if err != nil {
		return fmt.Errorf("writing session entry %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session entry %s: %w", path, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session entry %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing session entry %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing session entry %s: %w", path, err)
	}
	return nil
}

// Delete removes the file for key.
func (f *FileStorage) Delete(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session entry %s: %w", path, err)
	}
	return nil
}

// RedisStorage keeps the entries as plain Redis strings under a prefix,
// for shared or kiosk machines where the session outlives the local disk.
type RedisStorage struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStorage wraps a Redis client. Keys are stored as prefix+key.
func NewRedisStorage(client redis.Cmdable, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

// Get reads the value stored under key.
func (r *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get %s: %w", r.prefix+key, err)
	}
	return value, nil
}

// Set writes value under key with no expiry.
func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.prefix+key, err)
	}
	return nil
}

// Delete removes key.
func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.prefix+key, err)
	}
	return nil
}

// RedisLogger routes go-redis's internal messages (pool dial failures,
// reconnects) through logrus. Install it with redis.SetLogger.
type RedisLogger struct {
	logger *logrus.Logger
}

// NewRedisLogger returns a RedisLogger writing to logger.
func NewRedisLogger(logger *logrus.Logger) *RedisLogger {
	return &RedisLogger{logger: logger}
}

// Printf logs one go-redis message at warn level.
func (l *RedisLogger) Printf(ctx context.Context, format string, v ...any) {
	l.logger.WithContext(ctx).WithField("component", "redis").Warnf(format, v...)
}
