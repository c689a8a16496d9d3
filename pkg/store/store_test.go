package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/ingest"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "bookmarks.db"), WithBusyTimeout(5*time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func decode(t *testing.T, input string) []models.Post {
	t.Helper()
	posts, err := ingest.Decode(strings.NewReader(input))
	require.NoError(t, err)
	return posts
}

func strPtr(s string) *string { return &s }

// rawRow returns every column of a posts row as text for exact comparison.
func rawRow(t *testing.T, s *Store, id string) []any {
	t.Helper()
	rows, err := s.db.Query(`SELECT * FROM posts WHERE id = ?`, id)
	require.NoError(t, err)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)
	require.True(t, rows.Next(), "row %s missing", id)

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	require.NoError(t, rows.Scan(ptrs...))
	return values
}

func fullPost() models.Post {
	bitrate := 832000
	return models.Post{
		ID:             "100",
		Permalink:      "https://x.com/alice/status/100",
		Author:         models.Author{Handle: "alice", DisplayName: "Alice", AuthorID: "42"},
		CreatedAt:      "Mon Jan 01 00:00:00 +0000 2024",
		Language:       "en",
		Text:           "look at this",
		ConversationID: "99",
		URLs:           []models.URL{{ExpandedURL: "https://example.com/a", DisplayURL: "example.com/a", Domain: "example.com"}},
		Media: []models.Media{{
			MediaKey:      "7_1",
			Kind:          "video",
			MediaURL:      "https://pbs.twimg.com/1.jpg",
			Dimensions:    &models.Dimensions{W: 640, H: 360},
			VideoVariants: []models.VideoVariant{{ContentType: "video/mp4", Bitrate: &bitrate, URL: "https://video/1.mp4"}},
		}},
		QuotedPost:       &models.Post{ID: "50", Permalink: "https://x.com/bob/status/50", Text: "original"},
		ReplyTo:          &models.ReplyTo{StatusID: strPtr("99"), Handle: strPtr("bob")},
		SelfThreadRootID: "90",
	}
}

func TestOpenCreatesDirectoryAndIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "b.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Ingest(context.Background(), []models.Post{{ID: "1"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	p, err := s.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID)
}

func TestDSN(t *testing.T) {
	got := dsn("/tmp/b.db", 3*time.Second)
	assert.True(t, strings.HasPrefix(got, "file:/tmp/b.db?"))
	assert.Contains(t, got, "busy_timeout%283000%29")
	assert.Contains(t, got, "journal_mode%28WAL%29")
	assert.Contains(t, got, "_txlock=immediate")
}

func TestIngestRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.Ingest(ctx, []models.Post{fullPost()})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(ctx, "100")
	require.NoError(t, err)

	want := fullPost()
	want.Normalize()
	assert.Equal(t, want, got)
}

func TestIngestOverwriteExample(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.Ingest(ctx, decode(t, `[{"id":"7","text":"hi"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Ingest(ctx, decode(t, `[{"id":"7","text":"hi","author":{"handle":"x"}}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)

	got, err := s.Get(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Author.Handle)
	assert.Equal(t, "hi", got.Text)
}

func TestIngestIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, []models.Post{fullPost()})
	require.NoError(t, err)
	before := rawRow(t, s, "100")

	_, err = s.Ingest(ctx, []models.Post{fullPost()})
	require.NoError(t, err)
	after := rawRow(t, s, "100")

	assert.Equal(t, before, after)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)
}

func TestIngestFullOverwriteClearsFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, []models.Post{fullPost()})
	require.NoError(t, err)

	_, err = s.Ingest(ctx, []models.Post{{ID: "100", Text: "edited"}})
	require.NoError(t, err)

	got, err := s.Get(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	assert.Empty(t, got.Author.Handle)
	assert.Empty(t, got.CreatedAt)
	assert.Empty(t, got.Language)
	assert.Empty(t, got.ConversationID)
	assert.Empty(t, got.SelfThreadRootID)
	assert.Empty(t, got.URLs)
	assert.Empty(t, got.Media)
	assert.Nil(t, got.QuotedPost)
	assert.Nil(t, got.ReplyTo)

	row := rawRow(t, s, "100")
	assert.Contains(t, row, nil, "absent nested values are stored as NULL")
}

func TestIngestRollsBackWholeBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, []models.Post{{ID: "1", Text: "kept"}})
	require.NoError(t, err)

	_, err = s.db.Exec(`
		CREATE TRIGGER reject_boom BEFORE INSERT ON posts
		WHEN NEW.id = 'boom'
		BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	_, err = s.Ingest(ctx, []models.Post{
		{ID: "1", Text: "changed"},
		{ID: "2", Text: "new"},
		{ID: "boom"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))

	got, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Text)

	_, err = s.Get(ctx, "2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIngestCanceledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Ingest(ctx, []models.Post{{ID: "1"}})
	require.Error(t, err)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.Total)
}

func TestIngestRejectsRecordWithoutID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		posts []models.Post
	}{
		{"empty id", []models.Post{{ID: "1"}, {ID: ""}}},
		{"quoted post without id", []models.Post{{ID: "1"}, {ID: "2", QuotedPost: &models.Post{Text: "q"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Ingest(ctx, tt.posts)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, 1, e.Index)

			st, err := s.Stats(ctx)
			require.NoError(t, err)
			assert.Zero(t, st.Total, "nothing from the batch is written")
		})
	}
}

func TestIngestStoresQuoteAtDepthOne(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	post := models.Post{
		ID: "1",
		QuotedPost: &models.Post{
			ID:         "2",
			QuotedPost: &models.Post{ID: "3"},
		},
	}
	_, err := s.Ingest(ctx, []models.Post{post})
	require.NoError(t, err)

	got, err := s.Get(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, got.QuotedPost)
	assert.Equal(t, "2", got.QuotedPost.ID)
	assert.Nil(t, got.QuotedPost.QuotedPost)
}

func TestIngestLeavesCallerRecordsUntouched(t *testing.T) {
	s := openTestStore(t)

	nested := &models.Post{ID: "3"}
	posts := []models.Post{{ID: "1", QuotedPost: &models.Post{ID: "2", QuotedPost: nested}}}

	_, err := s.Ingest(context.Background(), posts)
	require.NoError(t, err)

	assert.Nil(t, posts[0].URLs)
	assert.Nil(t, posts[0].Media)
	assert.Same(t, nested, posts[0].QuotedPost.QuotedPost)
	assert.Nil(t, posts[0].QuotedPost.Media)
}

func TestConcurrentIngestSerializes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			batch := make([]models.Post, 0, 20)
			for i := 0; i < 20; i++ {
				batch = append(batch, models.Post{ID: fmt.Sprintf("%d", i), Text: fmt.Sprintf("worker %d", w)})
			}
			_, err := s.Ingest(ctx, batch)
			errs <- err
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, st.Total)

	// every row comes from the same batch
	first, err := s.Get(ctx, "0")
	require.NoError(t, err)
	for i := 1; i < 20; i++ {
		p, err := s.Get(ctx, fmt.Sprintf("%d", i))
		require.NoError(t, err)
		assert.Equal(t, first.Text, p.Text)
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroupsAndStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, decode(t, "{\"id\":\"1\"}\n{\"id\":\"20\"}\n{\"id\":\"3\"}\n{\"id\":\"4\"}\n"))
	require.NoError(t, err)

	require.NoError(t, s.Assign(ctx, "1", "Machine Learning"))
	require.NoError(t, s.Assign(ctx, "20", "Machine Learning"))
	require.NoError(t, s.Assign(ctx, "3", "Research"))
	// moving a post updates its group
	require.NoError(t, s.Assign(ctx, "3", " machine  learning! "))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 4, Assigned: 3, Unassigned: 1, Groups: 2}, st)

	groups, err := s.Groups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Group{
		{Label: "Machine Learning", Slug: "machine-learning", Count: 3},
		{Label: "Research", Slug: "research", Count: 0},
	}, groups)

	posts, err := s.PostsInGroup(ctx, "machine-learning", 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "20", posts[0].ID)
	assert.Equal(t, "3", posts[1].ID)

	_, err = s.PostsInGroup(ctx, "nope", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReingestKeepsAssignment(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, []models.Post{{ID: "1", Text: "a"}})
	require.NoError(t, err)
	require.NoError(t, s.Assign(ctx, "1", "Tools"))

	_, err = s.Ingest(ctx, []models.Post{{ID: "1", Text: "b"}})
	require.NoError(t, err)

	posts, err := s.PostsInGroup(ctx, "tools", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "b", posts[0].Text)
}

func TestAssignErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Assign(ctx, "missing", "Tools")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Ingest(ctx, []models.Post{{ID: "1"}})
	require.NoError(t, err)
	err = s.Assign(ctx, "1", "  !! ")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Machine Learning":       "machine-learning",
		"  Programming & Dev  ":  "programming-dev",
		"AI/ML":                  "ai-ml",
		"Café":                   "café",
		"---":                    "",
		"Research Papers (2024)": "research-papers-2024",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}
