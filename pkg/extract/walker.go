package extract

import (
	"iter"
	"maps"
	"slices"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
)

const (
	typePost        = "Tweet"
	typeLimitedPost = "TweetWithVisibilityResults"
	typenameKey     = "__typename"
)

// envelopePaths are the keys under which a node exposes a post result. The
// itemContent wrapper used by timelines is reached by traversal.
var envelopePaths = [][]string{
	keys("tweet_results", "result"),
	keys("tweet_result", "result"),
	keys("tweetResult", "result"),
}

// Walk yields every post result reachable from v in document order: a
// parent before its children, arrays by index and object keys sorted.
// Nodes that are not posts are still searched.
func Walk(v any) iter.Seq[map[string]any] {
	return func(yield func(map[string]any) bool) {
		stack := []any{v}
		for len(stack) > 0 {
			n := len(stack) - 1
			cur := stack[n]
			stack = stack[:n]

			switch node := cur.(type) {
			case map[string]any:
				if result := envelope(node); result != nil {
					if !yield(result) {
						return
					}
				}
				ks := slices.Sorted(maps.Keys(node))
				for i := len(ks) - 1; i >= 0; i-- {
					stack = append(stack, node[ks[i]])
				}
			case []any:
				for i := len(node) - 1; i >= 0; i-- {
					stack = append(stack, node[i])
				}
			}
		}
	}
}

// Posts walks v and yields the normalized records of every extractable
// post result, including duplicates.
func Posts(v any) iter.Seq[models.Post] {
	return func(yield func(models.Post) bool) {
		for result := range Walk(v) {
			post, ok := Normalize(result)
			if !ok {
				continue
			}
			if !yield(post) {
				return
			}
		}
	}
}

func envelope(node map[string]any) map[string]any {
	for _, p := range envelopePaths {
		if result := unwrap(object(node, p...)); result != nil {
			return result
		}
	}
	return nil
}

// unwrap returns result when it is a post, or the post nested inside a
// limited-visibility wrapper. Anything else yields nil.
func unwrap(result map[string]any) map[string]any {
	switch str(result, typenameKey) {
	case typePost:
		return result
	case typeLimitedPost:
		if inner := object(result, "tweet"); inner != nil {
			// the inner node usually omits __typename
			return inner
		}
	}
	return nil
}
