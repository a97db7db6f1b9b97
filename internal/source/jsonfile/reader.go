// Package jsonfile reads Joconde batch files: a JSON array of notice objects.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"joconde_watcher/internal/domain"
)

var errNestedValue = errors.New("nested values are not supported")

// Reader loads batch files from disk.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadBatch reads and maps the file at path. A missing, unreadable or
// malformed file yields an error wrapping domain.ErrParse; elements that
// cannot be mapped are kept in place with their own error.
func (r *Reader) ReadBatch(path string) (*domain.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrParse, path, err)
	}
	return Decode(path, data)
}

// Decode maps raw file content into a batch, preserving element order.
func Decode(path string, data []byte) (*domain.Batch, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: %s: expected a JSON array of records", domain.ErrParse, path)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrParse, path, err)
	}

	batch := &domain.Batch{
		Path:    path,
		Entries: make([]domain.Entry, 0, len(elements)),
	}
	for _, raw := range elements {
		notice, err := MapRecord(raw)
		batch.Entries = append(batch.Entries, domain.Entry{Notice: notice, Err: err})
	}

	return batch, nil
}

// MapRecord projects one JSON object onto the notice schema. Keys outside
// the schema are dropped and absent keys stay nil.
func MapRecord(raw json.RawMessage) (domain.Notice, error) {
	var notice domain.Notice

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return notice, fmt.Errorf("%w: element is not an object", domain.ErrRecord)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return notice, fmt.Errorf("%w: decode object: %w", domain.ErrRecord, err)
	}

	for _, name := range domain.NoticeFields {
		value, ok := fields[name]
		if !ok {
			continue
		}
		text, err := scalarText(value)
		if err != nil {
			return domain.Notice{}, fmt.Errorf("%w: field %q: %w", domain.ErrRecord, name, err)
		}
		*notice.Field(name) = text
	}

	return notice, nil
}

// scalarText returns the string form of a JSON scalar. Numbers and
// booleans keep their literal text.
func scalarText(raw json.RawMessage) (*string, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return nil, nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return &s, nil
	case trimmed[0] == '{' || trimmed[0] == '[':
		return nil, errNestedValue
	default:
		s := string(trimmed)
		return &s, nil
	}
}
