package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
)

// Slug lower-cases label and joins its letter and digit runs with dashes.
func Slug(label string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// Assign puts the post into the group named label, creating the group if
// needed. Labels with the same slug share a group. A post belongs to at
// most one group; reassigning moves it.
func (s *Store) Assign(ctx context.Context, postID, label string) error {
	label = strings.TrimSpace(label)
	slug := Slug(label)
	if slug == "" {
		return errors.NewValidationError(-1, "group label %q has no usable characters", label)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, postID).Scan(&exists)
	if stderrors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	if err != nil {
		return errors.NewStorageError("lookup post", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO groups (label, slug) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		label, slug,
	); err != nil {
		return errors.NewStorageError("create group", err)
	}

	var groupID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM groups WHERE slug = ?`, slug).Scan(&groupID); err != nil {
		return errors.NewStorageError("lookup group", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO post_groups (post_id, group_id) VALUES (?, ?)
		ON CONFLICT(post_id) DO UPDATE SET group_id = excluded.group_id`,
		postID, groupID,
	); err != nil {
		return errors.NewStorageError("assign post", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("commit transaction", err)
	}
	return nil
}
