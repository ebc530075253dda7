package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"comment-insights/internal/models"
)

const (
	// MaxAnalyzedComments caps how many comments are embedded in a prompt.
	MaxAnalyzedComments = 100
	descriptionLength   = 300
)

// Analyzer produces a sentiment analysis of a video's comments.
type Analyzer struct {
	generator Generator
}

func NewAnalyzer(generator Generator) *Analyzer {
	return &Analyzer{generator: generator}
}

// Analyze asks the model once for an analysis of comments. It always
// returns a usable result: when the model call or its reply fails, the
// result is models.FallbackAnalysis and the error says why.
func (a *Analyzer) Analyze(ctx context.Context, comments []models.Comment, video *models.VideoDetails, lang models.Language) (models.AnalysisResult, error) {
	prompt, err := a.buildAnalysisPrompt(comments, video, lang)
	if err != nil {
		logrus.Warnf("Failed to build analysis prompt for %s: %v", video.ID, err)
		return models.FallbackAnalysis(), err
	}

	reply, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		logrus.Warnf("Gemini error analyzing %s: %v", video.ID, err)
		return models.FallbackAnalysis(), fmt.Errorf("failed to generate analysis: %w", err)
	}

	result, err := decodeAnalysis(reply)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"video_id": video.ID,
			"reply":    truncateRunes(reply, 200),
		}).Warnf("Unusable analysis reply: %v", err)
		return models.FallbackAnalysis(), fmt.Errorf("failed to decode analysis: %w", err)
	}

	return *result, nil
}

func (a *Analyzer) buildAnalysisPrompt(comments []models.Comment, video *models.VideoDetails, lang models.Language) (string, error) {
	if len(comments) > MaxAnalyzedComments {
		comments = comments[:MaxAnalyzedComments]
	}

	texts := make([]string, 0, len(comments))
	for _, c := range comments {
		texts = append(texts, c.Text)
	}
	encoded, err := json.Marshal(texts)
	if err != nil {
		return "", fmt.Errorf("failed to encode comments: %w", err)
	}

	prompt := fmt.Sprintf(`Analyze the following YouTube video comments and metadata.
Video Title: %s
Description: %s...

Comments (Top %d):
%s

Output strictly in this JSON format:
{
    "sentiment_summary": "One sentence summary",
    "sentiment_score": 0.5,
    "common_themes": ["Theme 1", "Theme 2"],
    "happy_points": ["Point 1", "Point 2"],
    "issues_and_problems": ["Issue 1", "Issue 2"],
    "key_takeaways": ["Takeaway 1", "Takeaway 2"]
}
sentiment_score should be between -1 (Negative) and 1 (Positive).

%s`,
		video.Title,
		truncateRunes(video.Description, descriptionLength),
		len(texts),
		encoded,
		languageDirective(lang),
	)

	return prompt, nil
}

func languageDirective(lang models.Language) string {
	if lang == models.LanguageEnglish {
		return "Write all text values in English."
	}
	return fmt.Sprintf("Write all text values in %s. Keep the JSON keys exactly as shown, in English.", lang.Name())
}
