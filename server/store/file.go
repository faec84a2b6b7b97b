package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ahadchat/server/model"
)

// FileStore keeps the document in one local JSON file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(ctx context.Context) ([]model.Message, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Message{}, nil
	}
	if err != nil {
		return nil, unavailable("read "+s.Path, err)
	}

	msgs, err := Decode(data)
	if err != nil {
		return nil, unavailable("parse "+s.Path, err)
	}
	return msgs, nil
}

func (s *FileStore) Save(ctx context.Context, msgs []model.Message) error {
	data, err := Encode(msgs)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	if err := replaceFile(s.Path, data); err != nil {
		return unavailable("write "+s.Path, err)
	}
	return nil
}

// replaceFile writes data beside path and renames it into place, so a
// concurrent Load never sees a half-written document.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		os.Remove(tmp.Name())
	}
	return err
}
