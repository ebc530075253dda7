package youtube

import (
	"regexp"

	"comment-insights/internal/models"
)

// videoIDPattern recognizes watch, youtu.be, embed, /v/ and query-parameter
// URLs and captures the 11-character video ID that follows.
var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// ExtractVideoID returns the video ID embedded in rawURL. ok is false when
// rawURL is not a recognized YouTube video URL.
func ExtractVideoID(rawURL string) (id models.VideoIdentifier, ok bool) {
	matches := videoIDPattern.FindStringSubmatch(rawURL)
	if len(matches) < 2 {
		return "", false
	}
	return models.VideoIdentifier(matches[1]), true
}
