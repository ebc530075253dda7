package models

import (
	"errors"
	"fmt"
	"time"
)

// AnalysisResult is the fixed output contract of a comment analysis.
type AnalysisResult struct {
	SentimentSummary  string   `json:"sentiment_summary"`
	SentimentScore    float64  `json:"sentiment_score"` // -1 (negative) to 1 (positive)
	CommonThemes      []string `json:"common_themes"`
	HappyPoints       []string `json:"happy_points"`
	IssuesAndProblems []string `json:"issues_and_problems"`
	KeyTakeaways      []string `json:"key_takeaways"`
}

// Normalize replaces nil slices with empty ones so the result always
// encodes its lists as JSON arrays.
func (r *AnalysisResult) Normalize() {
	if r.CommonThemes == nil {
		r.CommonThemes = []string{}
	}
	if r.HappyPoints == nil {
		r.HappyPoints = []string{}
	}
	if r.IssuesAndProblems == nil {
		r.IssuesAndProblems = []string{}
	}
	if r.KeyTakeaways == nil {
		r.KeyTakeaways = []string{}
	}
}

// Validate reports whether the result satisfies the value constraints of
// the contract.
func (r *AnalysisResult) Validate() error {
	if r.SentimentSummary == "" {
		return errors.New("sentiment_summary is empty")
	}
	if r.SentimentScore < -1 || r.SentimentScore > 1 {
		return fmt.Errorf("sentiment_score %v out of range [-1,1]", r.SentimentScore)
	}
	return nil
}

// FallbackAnalysis is returned when the language model call or its reply
// cannot be used.
func FallbackAnalysis() AnalysisResult {
	return AnalysisResult{
		SentimentSummary:  "Error analyzing comments.",
		SentimentScore:    0,
		CommonThemes:      []string{},
		HappyPoints:       []string{},
		IssuesAndProblems: []string{},
		KeyTakeaways:      []string{"AI Analysis Failed"},
	}
}

// NoCommentsAnalysis is returned without consulting the language model
// when a video has no comments to analyze.
func NoCommentsAnalysis() AnalysisResult {
	return AnalysisResult{
		SentimentSummary:  "No comments found.",
		SentimentScore:    0,
		CommonThemes:      []string{},
		HappyPoints:       []string{},
		IssuesAndProblems: []string{},
		KeyTakeaways:      []string{"No audience feedback."},
	}
}

// AnalysisHistoryRecord is one persisted analysis. CreatedAt is assigned by
// the store.
type AnalysisHistoryRecord struct {
	ID           int64           `json:"id"`
	VideoID      VideoIdentifier `json:"video_id"`
	Title        string          `json:"title"`
	Thumbnail    string          `json:"thumbnail"`
	ChannelTitle string          `json:"channel_title"`
	Language     Language        `json:"language"`
	Analysis     AnalysisResult  `json:"analysis_json"`
	CreatedAt    time.Time       `json:"created_at"`
}
