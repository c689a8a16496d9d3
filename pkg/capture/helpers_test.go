package capture

import (
	"fmt"
	"strings"
	"time"
)

const bookmarksURL = "https://x.com/i/api/graphql/abc123/Bookmarks?variables=%7B%7D"

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

// payload builds a bookmarks timeline body holding one post per id. A
// "id=text" entry sets the post text.
func payload(ids ...string) []byte {
	entries := make([]string, 0, len(ids))
	for _, id := range ids {
		text := "post " + id
		if k, v, ok := strings.Cut(id, "="); ok {
			id, text = k, v
		}
		entries = append(entries, fmt.Sprintf(`{"entryId": "tweet-%s", "content": {"itemContent": {"tweet_results": {"result": {
			"__typename": "Tweet",
			"rest_id": %q,
			"core": {"user_results": {"result": {"legacy": {"screen_name": "gopher"}}}},
			"legacy": {"full_text": %q}
		}}}}}`, id, id, text))
	}
	return []byte(`{"data": {"bookmark_timeline_v2": {"timeline": {"instructions": [{"entries": [` +
		strings.Join(entries, ",") + `]}]}}}}`)
}
