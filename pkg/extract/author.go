package extract

import "github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"

var (
	authorNodePaths = [][]string{
		keys("core", "user_results", "result"),
		keys("core", "user_legacy"),
	}
	handlePaths = [][]string{
		keys("legacy", "screen_name"),
		keys("core", "screen_name"),
	}
	displayNamePaths = [][]string{
		keys("legacy", "name"),
		keys("core", "name"),
	}
	authorIDPaths = [][]string{
		keys("rest_id"),
		keys("legacy", "id_str"),
	}
)

// Author resolves the author of a post result. Older payloads keep the
// profile under legacy, newer ones flatten part of it into core; either or
// both may be missing.
func Author(result map[string]any) models.Author {
	node := firstObject(result, authorNodePaths...)
	if node == nil {
		return models.Author{}
	}
	return models.Author{
		Handle:      firstString(node, handlePaths...),
		DisplayName: firstString(node, displayNamePaths...),
		AuthorID:    firstString(node, authorIDPaths...),
	}
}
