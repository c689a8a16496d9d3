package ingest

import (
	stderrors "errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
)

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ids   []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  \n\t\n", nil},
		{"single object", `{"id":"7","text":"hi"}`, []string{"7"}},
		{"array", `[{"id":"7"},{"id":"8"}]`, []string{"7", "8"}},
		{"empty array", `[]`, nil},
		{"ndjson", "{\"id\":\"1\"}\n{\"id\":\"2\"}\n\n{\"id\":\"3\"}\n", []string{"1", "2", "3"}},
		{"ndjson with crlf", "{\"id\":\"1\"}\r\n{\"id\":\"2\"}\r\n", []string{"1", "2"}},
		{"leading whitespace array", "\n  [{\"id\":\"9\"}]", []string{"9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := Decode(strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Len(t, posts, len(tt.ids))
			for i, id := range tt.ids {
				assert.Equal(t, id, posts[i].ID)
			}
		})
	}
}

func TestDecodeAppliesDefaults(t *testing.T) {
	posts, err := Decode(strings.NewReader(`[{"id":"7","text":"hi"}]`))
	require.NoError(t, err)
	require.Len(t, posts, 1)

	p := posts[0]
	assert.Equal(t, "hi", p.Text)
	assert.Equal(t, "https://x.com/i/web/status/7", p.Permalink)
	assert.NotNil(t, p.URLs)
	assert.Empty(t, p.URLs)
	assert.NotNil(t, p.Media)
	assert.Empty(t, p.Media)
	assert.Nil(t, p.QuotedPost)
	assert.Nil(t, p.ReplyTo)
}

func TestDecodeCanonicalRecord(t *testing.T) {
	input := `{
		"id": "100",
		"permalink": "https://x.com/alice/status/100",
		"author": {"handle": "alice", "displayName": "Alice", "authorId": "42"},
		"createdAt": "Mon Jan 01 00:00:00 +0000 2024",
		"language": "en",
		"text": "look",
		"conversationId": "99",
		"urls": [{"expandedUrl": "https://Example.com/a", "displayUrl": "example.com/a"}],
		"media": [{"mediaKey": "3_1", "kind": "photo", "mediaUrl": "https://pbs.twimg.com/1.jpg",
		           "dimensions": {"w": 10, "h": 20},
		           "videoVariants": [{"contentType": "video/mp4", "bitrate": 832000, "url": "https://v/1.mp4"}]}],
		"quotedPost": {"id": "50", "text": "orig", "quotedPost": {"id": "1"}},
		"replyTo": {"statusId": "99", "userId": null, "handle": "bob"},
		"selfThreadRootId": "90"
	}`

	posts, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	p := posts[0]

	assert.Equal(t, "alice", p.Author.Handle)
	assert.Equal(t, "Alice", p.Author.DisplayName)
	assert.Equal(t, "42", p.Author.AuthorID)
	assert.Equal(t, "en", p.Language)
	assert.Equal(t, "99", p.ConversationID)
	assert.Equal(t, "90", p.SelfThreadRootID)

	require.Len(t, p.URLs, 1)
	assert.Equal(t, "example.com", p.URLs[0].Domain)
	assert.Equal(t, "example.com/a", p.URLs[0].DisplayURL)

	require.Len(t, p.Media, 1)
	assert.Equal(t, 10, p.Media[0].Dimensions.W)
	require.Len(t, p.Media[0].VideoVariants, 1)
	require.NotNil(t, p.Media[0].VideoVariants[0].Bitrate)
	assert.Equal(t, 832000, *p.Media[0].VideoVariants[0].Bitrate)

	require.NotNil(t, p.QuotedPost)
	assert.Equal(t, "50", p.QuotedPost.ID)
	assert.Nil(t, p.QuotedPost.QuotedPost, "nested quotes are dropped")
	assert.NotNil(t, p.QuotedPost.URLs)

	require.NotNil(t, p.ReplyTo)
	assert.Equal(t, "99", *p.ReplyTo.StatusID)
	assert.Nil(t, p.ReplyTo.UserID)
	assert.Equal(t, "bob", *p.ReplyTo.Handle)
}

func TestDecodeLegacyLayout(t *testing.T) {
	input := `{"tweet_id":"5","tweet_url":"https://x.com/carol/status/5","author_screen_name":"carol",
		"author_name":"Carol","author_id":"11","created":"2024-01-01","lang":"fr",
		"conversation_id":"4","full_text":"bonjour","url":"https://news.example.org/x",
		"in_reply_to":{"status_id":"4","user_id":"12","screen_name":"dan"},
		"media":[{"media_key":"3_1","type":"video","media_url_https":"https://pbs.twimg.com/v.jpg",
			"expanded_url":"https://x.com/carol/status/5/video/1","preview_image_url":"https://pbs.twimg.com/p.jpg",
			"sizes":{"w":10,"h":20},"alt_text":"alt",
			"video_variants":[{"content_type":"video/mp4","bitrate":832000,"url":"https://video.twimg.com/1.mp4"},
				{"content_type":"application/x-mpegURL","url":"https://video.twimg.com/1.m3u8"}]}],
		"quoted_status":{"tweet_id":"3","full_text":"q","media":[{"media_key":"3_2","type":"photo",
			"media_url_https":"https://pbs.twimg.com/q.jpg"}]},"self_thread_root":"2"}`

	posts, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	p := posts[0]

	assert.Equal(t, "5", p.ID)
	assert.Equal(t, "https://x.com/carol/status/5", p.Permalink)
	assert.Equal(t, "carol", p.Author.Handle)
	assert.Equal(t, "Carol", p.Author.DisplayName)
	assert.Equal(t, "11", p.Author.AuthorID)
	assert.Equal(t, "2024-01-01", p.CreatedAt)
	assert.Equal(t, "fr", p.Language)
	assert.Equal(t, "bonjour", p.Text)
	assert.Equal(t, "2", p.SelfThreadRootID)

	require.Len(t, p.URLs, 1)
	assert.Equal(t, "news.example.org", p.URLs[0].Domain)

	require.NotNil(t, p.ReplyTo)
	assert.Equal(t, "dan", *p.ReplyTo.Handle)

	require.Len(t, p.Media, 1)
	m := p.Media[0]
	assert.Equal(t, "3_1", m.MediaKey)
	assert.Equal(t, "video", m.Kind)
	assert.Equal(t, "https://pbs.twimg.com/v.jpg", m.MediaURL)
	assert.Equal(t, "https://x.com/carol/status/5/video/1", m.ExpandedURL)
	assert.Equal(t, "https://pbs.twimg.com/p.jpg", m.PreviewURL)
	assert.Equal(t, "alt", m.AltText)
	require.NotNil(t, m.Dimensions)
	assert.Equal(t, models.Dimensions{W: 10, H: 20}, *m.Dimensions)
	require.Len(t, m.VideoVariants, 2)
	assert.Equal(t, "video/mp4", m.VideoVariants[0].ContentType)
	require.NotNil(t, m.VideoVariants[0].Bitrate)
	assert.Equal(t, 832000, *m.VideoVariants[0].Bitrate)
	assert.Equal(t, "https://video.twimg.com/1.mp4", m.VideoVariants[0].URL)
	assert.Equal(t, "application/x-mpegURL", m.VideoVariants[1].ContentType)
	assert.Nil(t, m.VideoVariants[1].Bitrate)

	require.NotNil(t, p.QuotedPost)
	assert.Equal(t, "3", p.QuotedPost.ID)
	assert.Equal(t, "q", p.QuotedPost.Text)
	require.Len(t, p.QuotedPost.Media, 1)
	assert.Equal(t, "3_2", p.QuotedPost.Media[0].MediaKey)
	assert.Equal(t, "photo", p.QuotedPost.Media[0].Kind)
	assert.Equal(t, "https://pbs.twimg.com/q.jpg", p.QuotedPost.Media[0].MediaURL)
	assert.Nil(t, p.QuotedPost.Media[0].Dimensions)
}

func TestDecodeAuthorString(t *testing.T) {
	posts, err := Decode(strings.NewReader(`{"id":"1","author":"erin"}`))
	require.NoError(t, err)
	assert.Equal(t, "erin", posts[0].Author.Handle)
	assert.Equal(t, "https://x.com/erin/status/1", posts[0].Permalink)
}

func TestDecodeURLWithoutDomainKeepsEntry(t *testing.T) {
	posts, err := Decode(strings.NewReader(`{"id":"7","urls":[{"expanded_url":"not a url"}]}`))
	require.NoError(t, err)
	require.Len(t, posts[0].URLs, 1)
	assert.Equal(t, "not a url", posts[0].URLs[0].ExpandedURL)
	assert.Equal(t, "", posts[0].URLs[0].Domain)
}

func TestDecodeEmptyReplyIsDropped(t *testing.T) {
	posts, err := Decode(strings.NewReader(`{"id":"1","replyTo":{"statusId":null,"userId":null,"handle":null}}`))
	require.NoError(t, err)
	assert.Nil(t, posts[0].ReplyTo)
}

func TestDecodeValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		index   int
		message string
	}{
		{"missing id", `{"text":"hi"}`, 0, `"id" is required`},
		{"empty id", `[{"id":"1"},{"id":""}]`, 1, `"id" is required`},
		{"numeric id", `{"id":7}`, 0, `field "id" must be a string, got number`},
		{"text not a string", `{"id":"1","text":["a"]}`, 0, `field "text" must be a string`},
		{"urls not an array", `{"id":"1","urls":"https://a"}`, 0, `field "urls" must be an array`},
		{"media wrong shape", `{"id":"1","media":[{"dimensions":"big"}]}`, 0, `field "media" has the wrong shape`},
		{"author wrong type", `{"id":"1","author":5}`, 0, `field "author" must be an object or a string`},
		{"reply wrong type", `{"id":"1","replyTo":"2"}`, 0, `field "replyTo" must be an object`},
		{"reply part wrong type", `{"id":"1","replyTo":{"statusId":2}}`, 0, `field "statusId" must be a string or null`},
		{"quote missing id", `{"id":"1","quotedPost":{"text":"x"}}`, 0, `field "quotedPost"`},
		{"array element not object", `[{"id":"1"},"two"]`, 1, "must be a JSON object"},
		{"ndjson bad line", "{\"id\":\"1\"}\n{\"id\":\n", 1, "invalid JSON"},
		{"ndjson scalar line", "{\"id\":\"1\"}\n42\n", 1, "must be a JSON object"},
		{"truncated array", `[{"id":"1"}`, 0, "invalid JSON array"},
		{"trailing data after array", `[{"id":"1"}] {"id":"2"}`, 1, "unexpected data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, posts)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "got %v", err)

			var verr *errors.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.index, verr.Index)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDecodeReaderFailureIsNotValidation(t *testing.T) {
	boom := stderrors.New("connection reset")
	r := io.MultiReader(strings.NewReader("{\"id\":\"1\"}\n"), iotest.ErrReader(boom))

	_, err := Decode(r)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
}
