package extract

import (
	"net/url"
	"strings"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
)

// Domain returns the lower-cased hostname of an absolute URL, or "" when
// raw is empty or cannot be parsed as one.
func Domain(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// URLs maps legacy.entities.urls into link records, keeping entries whose
// URL does not parse.
func URLs(legacy map[string]any) []models.URL {
	entries := array(legacy, "entities", "urls")
	out := make([]models.URL, 0, len(entries))
	for _, e := range entries {
		if _, ok := e.(map[string]any); !ok {
			continue
		}
		expanded := str(e, "expanded_url")
		out = append(out, models.URL{
			ExpandedURL: expanded,
			DisplayURL:  str(e, "display_url"),
			Domain:      Domain(expanded),
		})
	}
	return out
}
