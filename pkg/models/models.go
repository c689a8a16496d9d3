package models

// Post is the canonical, storage-ready record for one saved post.
type Post struct {
	ID               string   `json:"id"`
	Permalink        string   `json:"permalink"`
	Author           Author   `json:"author"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	Language         string   `json:"language,omitempty"`
	Text             string   `json:"text"`
	ConversationID   string   `json:"conversationId,omitempty"`
	URLs             []URL    `json:"urls"`
	Media            []Media  `json:"media"`
	QuotedPost       *Post    `json:"quotedPost,omitempty"`
	ReplyTo          *ReplyTo `json:"replyTo,omitempty"`
	SelfThreadRootID string   `json:"selfThreadRootId,omitempty"`
}

type Author struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	AuthorID    string `json:"authorId"`
}

type URL struct {
	ExpandedURL string `json:"expandedUrl"`
	DisplayURL  string `json:"displayUrl,omitempty"`
	Domain      string `json:"domain"`
}

type Media struct {
	MediaKey      string         `json:"mediaKey"`
	Kind          string         `json:"kind"`
	MediaURL      string         `json:"mediaUrl"`
	ExpandedURL   string         `json:"expandedUrl,omitempty"`
	PreviewURL    string         `json:"previewUrl,omitempty"`
	Dimensions    *Dimensions    `json:"dimensions,omitempty"`
	AltText       string         `json:"altText,omitempty"`
	VideoVariants []VideoVariant `json:"videoVariants,omitempty"`
}

type Dimensions struct {
	W int `json:"w"`
	H int `json:"h"`
}

// VideoVariant is one playable rendition. HLS playlists carry no bitrate.
type VideoVariant struct {
	ContentType string `json:"contentType"`
	Bitrate     *int   `json:"bitrate,omitempty"`
	URL         string `json:"url"`
}

// ReplyTo holds soft references to the post being replied to. Each part
// may be null independently.
type ReplyTo struct {
	StatusID *string `json:"statusId"`
	UserID   *string `json:"userId"`
	Handle   *string `json:"handle"`
}

// Empty reports whether none of the reply references are set.
func (r *ReplyTo) Empty() bool {
	return r == nil || (r.StatusID == nil && r.UserID == nil && r.Handle == nil)
}

// Normalize fills nil slices so the record serializes with empty lists.
func (p *Post) Normalize() {
	if p.URLs == nil {
		p.URLs = []URL{}
	}
	if p.Media == nil {
		p.Media = []Media{}
	}
	if p.QuotedPost != nil {
		p.QuotedPost.Normalize()
	}
}
