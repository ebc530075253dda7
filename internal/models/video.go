package models

// VideoIdentifier is the 11-character token YouTube uses to address a video.
type VideoIdentifier string

// VideoDetails is a snapshot of a video's metadata taken at request time.
// Statistics are kept as strings because the platform reports them that way
// and absent values are surfaced as "0".
type VideoDetails struct {
	ID           VideoIdentifier `json:"-"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Thumbnail    string          `json:"thumbnail"`
	ChannelTitle string          `json:"channelTitle"`
	PublishedAt  string          `json:"publishedAt"`
	ViewCount    string          `json:"viewCount"`
	LikeCount    string          `json:"likeCount"`
	CommentCount string          `json:"commentCount"`
}

// Comment is a single top-level comment on a video.
type Comment struct {
	Author      string `json:"author"`
	Text        string `json:"text"`
	LikeCount   int64  `json:"likeCount"`
	PublishedAt string `json:"publishedAt"`
}
