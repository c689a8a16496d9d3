package extract

import "github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"

var sizePreference = []string{"large", "medium", "small"}

// Media extracts attached media from a legacy payload. extended_entities
// carries the full list for multi-photo and video posts, so it wins over
// entities whenever it is present, even as an empty list.
func Media(legacy map[string]any) []models.Media {
	entries := array(legacy, "extended_entities", "media")
	if path(legacy, "extended_entities", "media") == nil {
		entries = array(legacy, "entities", "media")
	}

	out := make([]models.Media, 0, len(entries))
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, mediaEntry(entry))
	}
	return out
}

func mediaEntry(entry map[string]any) models.Media {
	m := models.Media{
		MediaKey:    str(entry, "media_key"),
		Kind:        str(entry, "type"),
		MediaURL:    str(entry, "media_url_https"),
		ExpandedURL: str(entry, "expanded_url"),
		AltText:     str(entry, "ext_alt_text"),
		Dimensions:  dimensions(entry),
	}

	rawVariants := array(entry, "video_info", "variants")
	if rawVariants != nil {
		m.VideoVariants = variants(rawVariants)
	}

	m.PreviewURL = str(entry, "preview_image_url")
	if m.PreviewURL == "" && rawVariants != nil {
		m.PreviewURL = m.MediaURL
	}
	return m
}

func dimensions(entry map[string]any) *models.Dimensions {
	for _, size := range sizePreference {
		s := object(entry, "sizes", size)
		if s == nil {
			continue
		}
		w, _ := integer(s, "w")
		h, _ := integer(s, "h")
		return &models.Dimensions{W: w, H: h}
	}
	return nil
}

// variants keeps playable renditions in source order, dropping any without
// a URL.
func variants(raw []any) []models.VideoVariant {
	out := make([]models.VideoVariant, 0, len(raw))
	for _, v := range raw {
		u := str(v, "url")
		if u == "" {
			continue
		}
		variant := models.VideoVariant{
			ContentType: str(v, "content_type"),
			URL:         u,
		}
		if b, ok := integer(v, "bitrate"); ok {
			variant.Bitrate = &b
		}
		out = append(out, variant)
	}
	return out
}
