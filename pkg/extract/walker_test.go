package extract

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tweet(id string) string {
	return fmt.Sprintf(`{"__typename": "Tweet", "rest_id": %q, "legacy": {"full_text": "post %s"}}`, id, id)
}

func ids(t *testing.T, v any) []string {
	t.Helper()
	var out []string
	for post := range Posts(v) {
		out = append(out, post.ID)
	}
	return out
}

func TestWalkBookmarksTimeline(t *testing.T) {
	payload := decodeAny(t, `{"data": {"bookmark_timeline_v2": {"timeline": {"instructions": [{
		"type": "TimelineAddEntries",
		"entries": [
			{"entryId": "tweet-1", "content": {"entryType": "TimelineTimelineItem", "itemContent": {
				"itemType": "TimelineTweet",
				"tweet_results": {"result": `+tweet("1")+`}
			}}},
			{"entryId": "tweet-2", "content": {"itemContent": {"tweet_results": {"result": `+tweet("2")+`}}}},
			{"entryId": "cursor-bottom", "content": {"value": "abc", "cursorType": "Bottom"}}
		]
	}]}}}}`)

	assert.Equal(t, []string{"1", "2"}, ids(t, payload))
}

func TestWalkDepthIndependence(t *testing.T) {
	for depth := 0; depth < 12; depth++ {
		t.Run(fmt.Sprintf("depth_%d", depth), func(t *testing.T) {
			raw := `{"tweet_results": {"result": ` + tweet("d") + `}}`
			for i := 0; i < depth; i++ {
				if i%2 == 0 {
					raw = fmt.Sprintf(`{"k%d": %s}`, i, raw)
				} else {
					raw = fmt.Sprintf(`[1, "x", null, %s]`, raw)
				}
			}
			assert.Equal(t, []string{"d"}, ids(t, decodeAny(t, raw)))
		})
	}
}

func TestWalkEnvelopeVariants(t *testing.T) {
	payload := decodeAny(t, `{
		"a": {"tweet_results": {"result": `+tweet("1")+`}},
		"b": {"tweet_result": {"result": `+tweet("2")+`}},
		"c": {"tweetResult": {"result": `+tweet("3")+`}},
		"d": {"tweet_results": {"result": {"__typename": "TweetWithVisibilityResults", "tweet": {"rest_id": "4", "legacy": {}}}}},
		"e": {"tweet_results": {"result": {"__typename": "TweetTombstone", "tombstone": {}}}},
		"f": {"tweet_results": {"result": {"__typename": "User", "rest_id": "5", "legacy": {}}}},
		"g": {"tweet_results": {"result": {"rest_id": "6", "legacy": {}}}}
	}`)

	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(t, payload))
}

func TestWalkSearchesInsideMatches(t *testing.T) {
	// A matched result can itself hold further envelopes, for example a
	// retweet carrying the original post.
	payload := decodeAny(t, `{"tweet_results": {"result": {
		"__typename": "Tweet",
		"rest_id": "outer",
		"legacy": {"retweeted_status_result": {"tweet_results": {"result": `+tweet("inner")+`}}}
	}}}`)

	assert.Equal(t, []string{"outer", "inner"}, ids(t, payload))
}

func TestWalkDocumentOrder(t *testing.T) {
	payload := decodeAny(t, `{
		"b": [{"tweet_results": {"result": `+tweet("b0")+`}}, {"tweet_results": {"result": `+tweet("b1")+`}}],
		"a": {"tweet_results": {"result": `+tweet("a")+`}}
	}`)

	assert.Equal(t, []string{"a", "b0", "b1"}, ids(t, payload))
}

func TestWalkSkipsUnextractable(t *testing.T) {
	payload := decodeAny(t, `[
		{"tweet_results": {"result": {"__typename": "Tweet", "rest_id": "stub"}}},
		{"tweet_results": {"result": `+tweet("ok")+`}}
	]`)

	assert.Equal(t, []string{"ok"}, ids(t, payload))
}

func TestWalkScalarsAndEmpty(t *testing.T) {
	for _, v := range []any{nil, "str", 1.5, true, []any{}, map[string]any{}} {
		assert.Empty(t, slices.Collect(Walk(v)))
	}
}

func TestWalkStopsEarly(t *testing.T) {
	items := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		items = append(items, `{"tweet_results": {"result": `+tweet(fmt.Sprint(i))+`}}`)
	}
	payload := decodeAny(t, "["+strings.Join(items, ",")+"]")

	var seen []string
	for post := range Posts(payload) {
		seen = append(seen, post.ID)
		if len(seen) == 3 {
			break
		}
	}
	require.Len(t, seen, 3)
	assert.Equal(t, []string{"0", "1", "2"}, seen)
}
