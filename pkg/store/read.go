package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
)

const postColumns = `
	p.id, p.permalink, p.text, p.author_handle, p.author_name, p.author_id,
	p.created_at, p.language, p.conversation_id,
	p.urls_json, p.media_json, p.quoted_json, p.reply_to_json,
	p.self_thread_root_id`

// Stats summarises the store contents.
type Stats struct {
	Total      int `json:"total"`
	Assigned   int `json:"assigned"`
	Unassigned int `json:"unassigned"`
	Groups     int `json:"groups"`
}

// Group is a classification label with the number of posts assigned to it.
type Group struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (models.Post, error) {
	var (
		p                                 models.Post
		createdAt, language, conversation sql.NullString
		quoted, reply, threadRoot         sql.NullString
		urlsJSON, mediaJSON               string
	)
	err := row.Scan(
		&p.ID, &p.Permalink, &p.Text,
		&p.Author.Handle, &p.Author.DisplayName, &p.Author.AuthorID,
		&createdAt, &language, &conversation,
		&urlsJSON, &mediaJSON, &quoted, &reply,
		&threadRoot,
	)
	if err != nil {
		return models.Post{}, err
	}

	p.CreatedAt = createdAt.String
	p.Language = language.String
	p.ConversationID = conversation.String
	p.SelfThreadRootID = threadRoot.String

	if err := json.Unmarshal([]byte(urlsJSON), &p.URLs); err != nil {
		return models.Post{}, fmt.Errorf("decode urls of %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(mediaJSON), &p.Media); err != nil {
		return models.Post{}, fmt.Errorf("decode media of %s: %w", p.ID, err)
	}
	if quoted.Valid {
		p.QuotedPost = &models.Post{}
		if err := json.Unmarshal([]byte(quoted.String), p.QuotedPost); err != nil {
			return models.Post{}, fmt.Errorf("decode quoted post of %s: %w", p.ID, err)
		}
	}
	if reply.Valid {
		p.ReplyTo = &models.ReplyTo{}
		if err := json.Unmarshal([]byte(reply.String), p.ReplyTo); err != nil {
			return models.Post{}, fmt.Errorf("decode reply of %s: %w", p.ID, err)
		}
	}

	p.Normalize()
	return p, nil
}

// Get returns the stored post with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (models.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = ?`, id)
	p, err := scanPost(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.Post{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Post{}, errors.NewStorageError("get post", err)
	}
	return p, nil
}

// Stats counts posts, assignments and groups.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM post_groups),
			(SELECT COUNT(*) FROM groups)`,
	).Scan(&st.Total, &st.Assigned, &st.Groups)
	if err != nil {
		return Stats{}, errors.NewStorageError("count posts", err)
	}
	st.Unassigned = st.Total - st.Assigned
	return st, nil
}

// Groups lists every group with its post count, largest first.
func (s *Store) Groups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.label, g.slug, COUNT(pg.post_id) AS count
		FROM groups g
		LEFT JOIN post_groups pg ON pg.group_id = g.id
		GROUP BY g.id
		ORDER BY count DESC, g.label ASC`)
	if err != nil {
		return nil, errors.NewStorageError("query groups", err)
	}
	defer rows.Close()

	groups := []Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.Label, &g.Slug, &g.Count); err != nil {
			return nil, errors.NewStorageError("scan group", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("iterate groups", err)
	}
	return groups, nil
}

// PostsInGroup returns up to limit posts assigned to the group with the
// given slug, newest first. An unknown slug yields ErrNotFound.
func (s *Store) PostsInGroup(ctx context.Context, slug string, limit int) ([]models.Post, error) {
	var groupID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM groups WHERE slug = ?`, slug).Scan(&groupID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, errors.NewStorageError("lookup group", err)
	}

	// Snowflake ids grow with creation time, so ordering them numerically
	// gives newest first.
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM post_groups pg
		JOIN posts p ON p.id = pg.post_id
		WHERE pg.group_id = ?
		ORDER BY length(p.id) DESC, p.id DESC
		LIMIT ?`, groupID, limit)
	if err != nil {
		return nil, errors.NewStorageError("query group posts", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, errors.NewStorageError("scan post", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("iterate group posts", err)
	}
	return posts, nil
}
