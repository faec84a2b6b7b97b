// Package store persists the chat history as a single JSON document.
//
// Every backend reads and writes the whole ordered list at once; there is
// no partial update. Backends differ only in where the document lives.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ahadchat/server/model"
)

var (
	// ErrUnavailable wraps any failure to reach or read the backing resource.
	ErrUnavailable = errors.New("message store unavailable")

	// ErrCorrupt means the document exists but is not a message array.
	ErrCorrupt = errors.New("message store is not valid JSON")
)

// Store loads and saves the full message list.
//
// Load returns an empty list and no error when the document does not exist
// yet. It returns an error wrapping ErrUnavailable when the document exists
// but cannot be fetched or parsed, so callers can tell "no messages" from
// "unreadable".
type Store interface {
	Load(ctx context.Context) ([]model.Message, error)
	Save(ctx context.Context, msgs []model.Message) error
}

// Append loads the list, adds one message stamped with now and saves it back.
// It is a plain read-modify-write: concurrent appends against the same
// document must be serialised by the caller.
func Append(ctx context.Context, s Store, username, text string, now time.Time) (model.Message, error) {
	msgs, err := s.Load(ctx)
	if err != nil {
		return model.Message{}, err
	}

	msg := model.NewMessage(username, text, now)
	msgs = append(msgs, msg)
	if err := s.Save(ctx, msgs); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

// KeepLast trims the stored list to its final n entries and reports how many
// were dropped. Lists of n or fewer entries are left alone.
func KeepLast(ctx context.Context, s Store, n int) (int, error) {
	msgs, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	if len(msgs) <= n {
		return 0, nil
	}

	kept := model.Last(msgs, n)
	if err := s.Save(ctx, kept); err != nil {
		return 0, err
	}
	return len(msgs) - len(kept), nil
}

// Clear overwrites the store with an empty list.
func Clear(ctx context.Context, s Store) error {
	return s.Save(ctx, []model.Message{})
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
