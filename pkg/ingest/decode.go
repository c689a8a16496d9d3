package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
)

// Decode reads one bulk submission and returns its records in order. The
// input is either a JSON array of records or a sequence of JSON objects,
// which covers both a single object and newline-delimited JSON. The first
// invalid record fails the whole submission.
func Decode(r io.Reader) ([]models.Post, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []models.Post{}, nil
	}
	if err != nil {
		return nil, errors.NewParseError("read submission", err)
	}

	var raws []json.RawMessage
	dec := json.NewDecoder(br)
	if first == '[' {
		if err := dec.Decode(&raws); err != nil {
			return nil, decodeError(0, "invalid JSON array", err)
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, errors.NewValidationError(len(raws), "unexpected data after JSON array")
		}
	} else {
		for {
			var raw json.RawMessage
			err := dec.Decode(&raw)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, decodeError(len(raws), "invalid JSON", err)
			}
			raws = append(raws, raw)
		}
	}

	posts := make([]models.Post, 0, len(raws))
	for i, raw := range raws {
		post, err := DecodeRecord(i, raw)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// DecodeRecord validates and coerces one JSON record. index is only used
// in error messages.
func DecodeRecord(index int, raw []byte) (models.Post, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return models.Post{}, errors.NewValidationError(index, "record must be a JSON object")
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return models.Post{}, errors.NewValidationError(index, "invalid JSON: %v", err)
	}
	return coerce(index, m, true)
}

// decodeError separates malformed input from failures of the underlying
// reader, which are returned wrapped so callers can inspect them.
func decodeError(index int, msg string, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) || err == io.ErrUnexpectedEOF {
		return errors.NewValidationError(index, "%s: %v", msg, err)
	}
	return errors.NewParseError("read submission", err)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}

func describe(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
