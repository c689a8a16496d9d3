package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
)

// ErrNotFound is returned by lookups for ids or groups that do not exist.
var ErrNotFound = stderrors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id                  TEXT PRIMARY KEY,
	permalink           TEXT NOT NULL DEFAULT '',
	text                TEXT NOT NULL DEFAULT '',
	author_handle       TEXT NOT NULL DEFAULT '',
	author_name         TEXT NOT NULL DEFAULT '',
	author_id           TEXT NOT NULL DEFAULT '',
	created_at          TEXT,
	language            TEXT,
	conversation_id     TEXT,
	domain              TEXT,
	urls_json           TEXT NOT NULL DEFAULT '[]',
	media_json          TEXT NOT NULL DEFAULT '[]',
	quoted_json         TEXT,
	reply_to_json       TEXT,
	self_thread_root_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_posts_conversation ON posts(conversation_id);
CREATE INDEX IF NOT EXISTS idx_posts_self_thread ON posts(self_thread_root_id);

CREATE TABLE IF NOT EXISTS groups (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	label TEXT NOT NULL UNIQUE,
	slug  TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS post_groups (
	post_id  TEXT PRIMARY KEY REFERENCES posts(id) ON DELETE CASCADE,
	group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_post_groups_group ON post_groups(group_id);
`

type options struct {
	busyTimeout time.Duration
	log         logger.Logger
}

// Option customises Open.
type Option func(*options)

// WithBusyTimeout sets how long a writer waits for a competing transaction.
// Default: 10s.
func WithBusyTimeout(d time.Duration) Option { return func(o *options) { o.busyTimeout = d } }

// WithLogger attaches a logger. Default: no output.
func WithLogger(l logger.Logger) Option { return func(o *options) { o.log = l } }

// Store persists canonical posts and their group assignments in SQLite.
type Store struct {
	db  *sql.DB
	log logger.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema. Parent directories are created.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		busyTimeout: 10 * time.Second,
		log:         logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path, o.busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	o.log.WithField("path", path).Debug("Database opened")
	return &Store{db: db, log: o.log}, nil
}

// dsn puts the pragmas on the connection string so every pooled connection
// gets them. _txlock=immediate makes BeginTx take the write lock up front,
// which serializes concurrent batches in SQLite.
func dsn(path string, busy time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
