package youtube

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"comment-insights/internal/models"
	"comment-insights/shared/config"
)

// ErrVideoNotFound is returned when the platform has no video with the
// requested ID.
var ErrVideoNotFound = errors.New("video not found")

// maxCommentPage is the largest page commentThreads.list will serve.
const maxCommentPage = 100

type Client struct {
	service     *youtube.Service
	maxComments int
}

// NewClient creates a YouTube Data API client authenticated with the
// configured API key. Extra options are appended after the defaults.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, opts ...option.ClientOption) (*Client, error) {
	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	maxComments := cfg.MaxComments
	if maxComments <= 0 {
		maxComments = config.DefaultMaxComments
	}

	return &Client{
		service:     service,
		maxComments: maxComments,
	}, nil
}

// MaxComments is the configured number of comments to request per video.
func (c *Client) MaxComments() int {
	return c.maxComments
}

// GetVideoDetails fetches snippet and statistics for one video.
func (c *Client) GetVideoDetails(ctx context.Context, id models.VideoIdentifier) (*models.VideoDetails, error) {
	resp, err := c.service.Videos.List([]string{"snippet", "statistics"}).
		Id(string(id)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video %s: %w", id, err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}

	item := resp.Items[0]
	if item.Snippet == nil {
		return nil, fmt.Errorf("video %s returned without snippet", id)
	}

	details := &models.VideoDetails{
		ID:           id,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		Thumbnail:    thumbnailURL(item.Snippet.Thumbnails),
		ChannelTitle: item.Snippet.ChannelTitle,
		PublishedAt:  item.Snippet.PublishedAt,
		ViewCount:    "0",
		LikeCount:    "0",
		CommentCount: "0",
	}

	if stats := item.Statistics; stats != nil {
		details.ViewCount = strconv.FormatUint(stats.ViewCount, 10)
		details.LikeCount = strconv.FormatUint(stats.LikeCount, 10)
		details.CommentCount = strconv.FormatUint(stats.CommentCount, 10)
	}

	return details, nil
}

// GetComments fetches up to maxResults top-level comments ordered by
// relevance. Comments are optional for an analysis, so any failure is
// logged and reported as no comments.
func (c *Client) GetComments(ctx context.Context, id models.VideoIdentifier, maxResults int) []models.Comment {
	if maxResults <= 0 || maxResults > maxCommentPage {
		maxResults = maxCommentPage
	}

	resp, err := c.service.CommentThreads.List([]string{"snippet"}).
		VideoId(string(id)).
		MaxResults(int64(maxResults)).
		Order("relevance").
		Context(ctx).
		Do()
	if err != nil {
		logrus.Warnf("Error fetching comments for %s: %v", id, err)
		return []models.Comment{}
	}

	comments := make([]models.Comment, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		snippet := item.Snippet.TopLevelComment.Snippet
		comments = append(comments, models.Comment{
			Author:      snippet.AuthorDisplayName,
			Text:        snippet.TextDisplay,
			LikeCount:   snippet.LikeCount,
			PublishedAt: snippet.PublishedAt,
		})
	}

	logrus.Debugf("Fetched %d comments for %s", len(comments), id)
	return comments
}

func thumbnailURL(thumbs *youtube.ThumbnailDetails) string {
	if thumbs == nil {
		return ""
	}
	for _, t := range []*youtube.Thumbnail{thumbs.High, thumbs.Medium, thumbs.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}
