package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
)

// Every column is overwritten on conflict, so a field missing from the new
// version of a record is cleared.
const upsertPost = `
	INSERT INTO posts (
		id, permalink, text, author_handle, author_name, author_id,
		created_at, language, conversation_id, domain,
		urls_json, media_json, quoted_json, reply_to_json,
		self_thread_root_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		permalink           = excluded.permalink,
		text                = excluded.text,
		author_handle       = excluded.author_handle,
		author_name         = excluded.author_name,
		author_id           = excluded.author_id,
		created_at          = excluded.created_at,
		language            = excluded.language,
		conversation_id     = excluded.conversation_id,
		domain              = excluded.domain,
		urls_json           = excluded.urls_json,
		media_json          = excluded.media_json,
		quoted_json         = excluded.quoted_json,
		reply_to_json       = excluded.reply_to_json,
		self_thread_root_id = excluded.self_thread_root_id`

// Ingest upserts a batch of posts in a single transaction and returns the
// number of records written. Any failure rolls back the whole batch. The
// caller's records are not modified.
func (s *Store) Ingest(ctx context.Context, posts []models.Post) (int, error) {
	start := time.Now()

	for i := range posts {
		if err := validatePost(i, &posts[i]); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertPost)
	if err != nil {
		return 0, errors.NewStorageError("prepare upsert", err)
	}
	defer stmt.Close()

	for i := range posts {
		args, err := postArgs(posts[i])
		if err != nil {
			return 0, errors.NewStorageError(fmt.Sprintf("encode post %s", posts[i].ID), err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, errors.NewStorageError(fmt.Sprintf("upsert post %s", posts[i].ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewStorageError("commit transaction", err)
	}

	s.log.DebugWithFields("Ingested batch", map[string]interface{}{
		"records":  len(posts),
		"duration": time.Since(start),
	})
	return len(posts), nil
}

// validatePost rejects records that cannot be keyed
func validatePost(index int, p *models.Post) error {
	if p.ID == "" {
		return errors.NewValidationError(index, "field \"id\" is required")
	}
	if p.QuotedPost != nil && p.QuotedPost.ID == "" {
		return errors.NewValidationError(index, "field \"quotedPost.id\" is required")
	}
	return nil
}

// postArgs works on a copy; quotes below depth 1 are dropped.
func postArgs(p models.Post) ([]any, error) {
	if p.QuotedPost != nil {
		quoted := *p.QuotedPost
		quoted.QuotedPost = nil
		p.QuotedPost = &quoted
	}
	p.Normalize()

	urlsJSON, err := json.Marshal(p.URLs)
	if err != nil {
		return nil, err
	}
	mediaJSON, err := json.Marshal(p.Media)
	if err != nil {
		return nil, err
	}
	quoted, err := optionalJSON(p.QuotedPost)
	if err != nil {
		return nil, err
	}
	var reply sql.NullString
	if !p.ReplyTo.Empty() {
		if reply, err = optionalJSON(p.ReplyTo); err != nil {
			return nil, err
		}
	}

	var domain string
	if len(p.URLs) > 0 {
		domain = p.URLs[0].Domain
	}

	return []any{
		p.ID, p.Permalink, p.Text,
		p.Author.Handle, p.Author.DisplayName, p.Author.AuthorID,
		nullable(p.CreatedAt), nullable(p.Language), nullable(p.ConversationID), nullable(domain),
		string(urlsJSON), string(mediaJSON), quoted, reply,
		nullable(p.SelfThreadRootID),
	}, nil
}

func optionalJSON[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
