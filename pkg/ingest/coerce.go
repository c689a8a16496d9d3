package ingest

import (
	"encoding/json"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/extract"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
)

// Field names accepted for each record field, canonical name first. The
// remaining names are the flat layout written by earlier capture tools.
var (
	idKeys           = []string{"id", "tweet_id"}
	permalinkKeys    = []string{"permalink", "tweet_url"}
	textKeys         = []string{"text", "full_text"}
	createdKeys      = []string{"createdAt", "created_at", "created"}
	languageKeys     = []string{"language", "lang"}
	conversationKeys = []string{"conversationId", "conversation_id"}
	quotedKeys       = []string{"quotedPost", "quoted_status", "quoted"}
	replyKeys        = []string{"replyTo", "in_reply_to"}
	threadRootKeys   = []string{"selfThreadRootId", "self_thread_root"}

	handleKeys      = []string{"handle", "screen_name"}
	displayNameKeys = []string{"displayName", "name"}
	authorIDKeys    = []string{"authorId", "id"}

	replyStatusKeys = []string{"statusId", "status_id"}
	replyUserKeys   = []string{"userId", "user_id"}
	replyHandleKeys = []string{"handle", "screen_name"}
)

type coercer struct {
	index int
	err   error
}

func (c *coercer) fail(format string, args ...interface{}) {
	if c.err == nil {
		c.err = errors.NewValidationError(c.index, format, args...)
	}
}

// lookup returns the first non-null value among keys
func lookup(m map[string]any, keys []string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return k, v, true
		}
	}
	return "", nil, false
}

// str returns the string under keys, "" when absent
func (c *coercer) str(m map[string]any, keys []string) string {
	key, v, ok := lookup(m, keys)
	if !ok {
		return ""
	}
	s, isString := v.(string)
	if !isString {
		c.fail("field %q must be a string, got %s", key, describe(v))
	}
	return s
}

// nullable returns nil for absent or null values
func (c *coercer) nullable(m map[string]any, keys []string) *string {
	key, v, ok := lookup(m, keys)
	if !ok {
		return nil
	}
	s, isString := v.(string)
	if !isString {
		c.fail("field %q must be a string or null, got %s", key, describe(v))
		return nil
	}
	return &s
}

func coerce(index int, m map[string]any, allowQuote bool) (models.Post, error) {
	c := &coercer{index: index}

	post := models.Post{
		ID:               c.str(m, idKeys),
		Permalink:        c.str(m, permalinkKeys),
		CreatedAt:        c.str(m, createdKeys),
		Language:         c.str(m, languageKeys),
		Text:             c.str(m, textKeys),
		ConversationID:   c.str(m, conversationKeys),
		SelfThreadRootID: c.str(m, threadRootKeys),
	}
	if c.err != nil {
		return models.Post{}, c.err
	}
	if post.ID == "" {
		return models.Post{}, errors.NewValidationError(index, "field \"id\" is required")
	}

	post.Author = c.author(m)
	post.URLs = c.urls(m)
	post.Media = c.media(m)
	post.ReplyTo = c.replyTo(m)
	if allowQuote {
		post.QuotedPost = c.quoted(m)
	}
	if c.err != nil {
		return models.Post{}, c.err
	}

	if post.Permalink == "" {
		post.Permalink = extract.Permalink(post.Author.Handle, post.ID)
	}
	post.Normalize()
	return post, nil
}

// author accepts the canonical object, or a bare handle string plus the
// flat author_* fields
func (c *coercer) author(m map[string]any) models.Author {
	var a models.Author
	if obj, ok := m["author"].(map[string]any); ok {
		a = models.Author{
			Handle:      c.str(obj, handleKeys),
			DisplayName: c.str(obj, displayNameKeys),
			AuthorID:    c.str(obj, authorIDKeys),
		}
	} else if v, ok := m["author"]; ok && v != nil {
		handle, isString := v.(string)
		if !isString {
			c.fail("field \"author\" must be an object or a string, got %s", describe(v))
			return a
		}
		a.Handle = handle
	}

	if a.Handle == "" {
		a.Handle = c.str(m, []string{"author_screen_name"})
	}
	if a.DisplayName == "" {
		a.DisplayName = c.str(m, []string{"author_name"})
	}
	if a.AuthorID == "" {
		a.AuthorID = c.str(m, []string{"author_id"})
	}
	return a
}

// convert re-decodes a generic value into a typed destination
func (c *coercer) convert(field string, v any, dst any) bool {
	raw, err := json.Marshal(v)
	if err == nil {
		err = json.Unmarshal(raw, dst)
	}
	if err != nil {
		c.fail("field %q has the wrong shape: %v", field, err)
		return false
	}
	return true
}

func (c *coercer) urls(m map[string]any) []models.URL {
	var out []models.URL
	if v, ok := m["urls"]; ok && v != nil {
		if _, isArray := v.([]any); !isArray {
			c.fail("field \"urls\" must be an array, got %s", describe(v))
			return nil
		}
		var entries []struct {
			models.URL
			LegacyExpanded string `json:"expanded_url"`
			LegacyDisplay  string `json:"display_url"`
		}
		if !c.convert("urls", v, &entries) {
			return nil
		}
		out = make([]models.URL, 0, len(entries))
		for _, e := range entries {
			u := e.URL
			if u.ExpandedURL == "" {
				u.ExpandedURL = e.LegacyExpanded
			}
			if u.DisplayURL == "" {
				u.DisplayURL = e.LegacyDisplay
			}
			if u.Domain == "" {
				u.Domain = extract.Domain(u.ExpandedURL)
			}
			out = append(out, u)
		}
		return out
	}

	// flat layout: a single url/domain pair
	if link := c.str(m, []string{"url"}); link != "" {
		domain := c.str(m, []string{"domain"})
		if domain == "" {
			domain = extract.Domain(link)
		}
		out = append(out, models.URL{ExpandedURL: link, Domain: domain})
	}
	return out
}

func (c *coercer) media(m map[string]any) []models.Media {
	v, ok := m["media"]
	if !ok || v == nil {
		return nil
	}
	if _, isArray := v.([]any); !isArray {
		c.fail("field \"media\" must be an array, got %s", describe(v))
		return nil
	}
	var entries []mediaEntry
	if !c.convert("media", v, &entries) {
		return nil
	}
	out := make([]models.Media, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.media())
	}
	return out
}

// mediaEntry accepts both the canonical media keys and the ones the
// earlier capture tool wrote.
type mediaEntry struct {
	MediaKey       string             `json:"mediaKey"`
	LegacyKey      string             `json:"media_key"`
	Kind           string             `json:"kind"`
	LegacyType     string             `json:"type"`
	MediaURL       string             `json:"mediaUrl"`
	LegacyURL      string             `json:"media_url_https"`
	ExpandedURL    string             `json:"expandedUrl"`
	LegacyExpanded string             `json:"expanded_url"`
	PreviewURL     string             `json:"previewUrl"`
	LegacyPreview  string             `json:"preview_image_url"`
	Dimensions     *models.Dimensions `json:"dimensions"`
	LegacySizes    *models.Dimensions `json:"sizes"`
	AltText        string             `json:"altText"`
	LegacyAlt      string             `json:"alt_text"`
	Variants       []variantEntry     `json:"videoVariants"`
	LegacyVariants []variantEntry     `json:"video_variants"`
}

type variantEntry struct {
	ContentType       string `json:"contentType"`
	LegacyContentType string `json:"content_type"`
	Bitrate           *int   `json:"bitrate"`
	URL               string `json:"url"`
}

func (e mediaEntry) media() models.Media {
	m := models.Media{
		MediaKey:    either(e.MediaKey, e.LegacyKey),
		Kind:        either(e.Kind, e.LegacyType),
		MediaURL:    either(e.MediaURL, e.LegacyURL),
		ExpandedURL: either(e.ExpandedURL, e.LegacyExpanded),
		PreviewURL:  either(e.PreviewURL, e.LegacyPreview),
		AltText:     either(e.AltText, e.LegacyAlt),
		Dimensions:  e.Dimensions,
	}
	if m.Dimensions == nil && e.LegacySizes != nil && (e.LegacySizes.W > 0 || e.LegacySizes.H > 0) {
		m.Dimensions = e.LegacySizes
	}

	variants := e.Variants
	if variants == nil {
		variants = e.LegacyVariants
	}
	for _, v := range variants {
		m.VideoVariants = append(m.VideoVariants, models.VideoVariant{
			ContentType: either(v.ContentType, v.LegacyContentType),
			Bitrate:     v.Bitrate,
			URL:         v.URL,
		})
	}
	return m
}

func either(canonical, legacy string) string {
	if canonical != "" {
		return canonical
	}
	return legacy
}

func (c *coercer) replyTo(m map[string]any) *models.ReplyTo {
	key, v, ok := lookup(m, replyKeys)
	if !ok {
		return nil
	}
	obj, isObject := v.(map[string]any)
	if !isObject {
		c.fail("field %q must be an object, got %s", key, describe(v))
		return nil
	}
	reply := &models.ReplyTo{
		StatusID: c.nullable(obj, replyStatusKeys),
		UserID:   c.nullable(obj, replyUserKeys),
		Handle:   c.nullable(obj, replyHandleKeys),
	}
	if reply.Empty() {
		return nil
	}
	return reply
}

// quoted coerces the nested quoted post; its own quote is dropped
func (c *coercer) quoted(m map[string]any) *models.Post {
	key, v, ok := lookup(m, quotedKeys)
	if !ok {
		return nil
	}
	obj, isObject := v.(map[string]any)
	if !isObject {
		c.fail("field %q must be an object, got %s", key, describe(v))
		return nil
	}
	q, err := coerce(c.index, obj, false)
	if err != nil {
		c.fail("field %q: %v", key, err)
		return nil
	}
	return &q
}
