package store

import (
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the single source of truth: five base tables, the audit table,
// and an FTS5 index over cards(title, description). The FTS index is kept in
// sync by triggers, which run inside the same transaction as the base write.
// Version bumps are explicit SQL inside each mutating operation so the
// contract is visible in the operation itself, not hidden in a trigger.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Transactions begin
// IMMEDIATE so concurrent writers serialize on the write lock before their
// first read: the loser of an update race then sees the committed version
// and fails the optimistic check, instead of hitting a snapshot-invalidation
// error that busy_timeout cannot retry.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_txlock=immediate&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS projects (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  repo_url TEXT NOT NULL UNIQUE,
  next_card_num INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT NOT NULL UNIQUE,
  user_type TEXT NOT NULL CHECK (user_type IN ('human', 'ai')),
  email TEXT,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cards (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  project_id INTEGER NOT NULL REFERENCES projects(id),
  card_number INTEGER NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  status TEXT NOT NULL DEFAULT 'backlog'
    CHECK (status IN ('backlog', 'in_progress', 'review', 'blocked', 'done', 'wont_do', 'invalid')),
  priority INTEGER NOT NULL DEFAULT 50 CHECK (priority BETWEEN 0 AND 100),
  card_type TEXT NOT NULL DEFAULT 'task'
    CHECK (card_type IN ('story', 'bug', 'task', 'epic', 'spike', 'chore')),
  created_by INTEGER NOT NULL REFERENCES users(id),
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  version INTEGER NOT NULL DEFAULT 1,
  UNIQUE (project_id, card_number)
);

CREATE TABLE IF NOT EXISTS comments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  card_id INTEGER NOT NULL REFERENCES cards(id),
  message TEXT NOT NULL,
  created_by INTEGER NOT NULL REFERENCES users(id),
  status TEXT NOT NULL DEFAULT 'created' CHECK (status IN ('created', 'deleted')),
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS card_references (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  card_id INTEGER NOT NULL REFERENCES cards(id),
  target_card_id INTEGER NOT NULL REFERENCES cards(id),
  ref_type TEXT NOT NULL CHECK (ref_type IN (
    'blocks', 'blocked_by', 'relates_to', 'duplicates', 'duplicated_by',
    'parent_of', 'child_of', 'follows', 'precedes', 'clones', 'cloned_by')),
  created_at TEXT NOT NULL,
  UNIQUE (card_id, target_card_id, ref_type),
  CHECK (card_id <> target_card_id)
);

CREATE TABLE IF NOT EXISTS cards_audit (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  card_id INTEGER NOT NULL REFERENCES cards(id),
  old_title TEXT NOT NULL,
  new_title TEXT NOT NULL,
  old_description TEXT,
  new_description TEXT,
  old_status TEXT NOT NULL,
  new_status TEXT NOT NULL,
  old_priority INTEGER NOT NULL,
  new_priority INTEGER NOT NULL,
  changed_by INTEGER NOT NULL REFERENCES users(id),
  changed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cards_project ON cards(project_id);
CREATE INDEX IF NOT EXISTS idx_comments_card ON comments(card_id);
CREATE INDEX IF NOT EXISTS idx_refs_target ON card_references(target_card_id);
CREATE INDEX IF NOT EXISTS idx_audit_card ON cards_audit(card_id);

CREATE VIRTUAL TABLE IF NOT EXISTS cards_fts USING fts5(
  title,
  description,
  content='cards',
  content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS cards_fts_ai AFTER INSERT ON cards BEGIN
  INSERT INTO cards_fts(rowid, title, description)
  VALUES (new.id, new.title, coalesce(new.description, ''));
END;

CREATE TRIGGER IF NOT EXISTS cards_fts_au AFTER UPDATE OF title, description ON cards BEGIN
  INSERT INTO cards_fts(cards_fts, rowid, title, description)
  VALUES ('delete', old.id, old.title, coalesce(old.description, ''));
  INSERT INTO cards_fts(rowid, title, description)
  VALUES (new.id, new.title, coalesce(new.description, ''));
END;

CREATE TRIGGER IF NOT EXISTS cards_fts_ad AFTER DELETE ON cards BEGIN
  INSERT INTO cards_fts(cards_fts, rowid, title, description)
  VALUES ('delete', old.id, old.title, coalesce(old.description, ''));
END;
`)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339, v)
}

// isUniqueViolation backstops the explicit duplicate checks: a concurrent
// writer can slip between check and insert, in which case the UNIQUE
// constraint fires instead.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
