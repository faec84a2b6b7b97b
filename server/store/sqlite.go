package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"ahadchat/server/model"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS stores (
	id      TEXT PRIMARY KEY,
	content TEXT NOT NULL
)`

// SQLiteStore keeps the document as the content of one row, keyed by name.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(path, key string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db, key: key}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) ([]model.Message, error) {
	var content string
	err := sq.Select("content").
		From("stores").
		Where(sq.Eq{"id": s.key}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Message{}, nil
	}
	if err != nil {
		return nil, unavailable("load sqlite", err)
	}

	msgs, err := Decode([]byte(content))
	if err != nil {
		return nil, unavailable("load sqlite", err)
	}
	return msgs, nil
}

func (s *SQLiteStore) Save(ctx context.Context, msgs []model.Message) error {
	content, err := Encode(msgs)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	_, err = sq.Insert("stores").
		Columns("id", "content").
		Values(s.key, string(content)).
		Suffix("ON CONFLICT(id) DO UPDATE SET content = excluded.content").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return unavailable("save sqlite", err)
	}
	return nil
}
