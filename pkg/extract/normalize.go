package extract

import (
	"fmt"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
)

const (
	permalinkFormat         = "https://x.com/%s/status/%s"
	permalinkFormatNoAuthor = "https://x.com/i/web/status/%s"
)

var (
	postIDPaths = [][]string{
		keys("rest_id"),
		keys("legacy", "id_str"),
	}
	textPaths = [][]string{
		keys("note_tweet", "note_tweet_results", "result", "text"),
		keys("legacy", "full_text"),
		keys("legacy", "text"),
	}
	conversationPaths = [][]string{
		keys("legacy", "conversation_id_str"),
		keys("conversation_id_str"),
	}
)

// Normalize converts one post result into a canonical record. It reports
// false when the node has no id or no legacy payload. A quoted post is
// expanded once; the quoted post's own quote is dropped.
func Normalize(result map[string]any) (models.Post, bool) {
	post, ok := normalize(result)
	if !ok {
		return models.Post{}, false
	}

	if quoted := object(result, "quoted_status_result", "result"); quoted != nil {
		if inner := unwrap(quoted); inner != nil {
			quoted = inner
		}
		if q, ok := normalize(quoted); ok {
			post.QuotedPost = &q
		}
	}
	return post, true
}

// normalize builds a record without looking at quoted posts.
func normalize(result map[string]any) (models.Post, bool) {
	legacy := object(result, "legacy")
	id := firstString(result, postIDPaths...)
	if id == "" || legacy == nil {
		return models.Post{}, false
	}

	author := Author(result)
	post := models.Post{
		ID:               id,
		Permalink:        Permalink(author.Handle, id),
		Author:           author,
		CreatedAt:        str(legacy, "created_at"),
		Language:         str(legacy, "lang"),
		Text:             firstString(result, textPaths...),
		ConversationID:   firstString(result, conversationPaths...),
		URLs:             URLs(legacy),
		Media:            Media(legacy),
		SelfThreadRootID: str(legacy, "self_thread", "id_str"),
	}

	reply := &models.ReplyTo{
		StatusID: optString(legacy, "in_reply_to_status_id_str"),
		UserID:   optString(legacy, "in_reply_to_user_id_str"),
		Handle:   optString(legacy, "in_reply_to_screen_name"),
	}
	if !reply.Empty() {
		post.ReplyTo = reply
	}
	return post, true
}

// Permalink returns the public URL of a post, falling back to the
// handle-less form when the author is unknown.
func Permalink(handle, id string) string {
	if handle == "" {
		return fmt.Sprintf(permalinkFormatNoAuthor, id)
	}
	return fmt.Sprintf(permalinkFormat, handle, id)
}
