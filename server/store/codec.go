package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"ahadchat/server/model"
)

// Encode renders msgs the way the document is stored: a JSON array indented
// by two spaces, with non-ASCII and HTML characters written verbatim.
func Encode(msgs []model.Message) ([]byte, error) {
	if msgs == nil {
		msgs = []model.Message{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(msgs); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a stored document. Blank content and JSON null are an empty
// list; anything else that is not a message array wraps ErrCorrupt.
func Decode(data []byte) ([]model.Message, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Message{}, nil
	}

	var msgs []model.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}
