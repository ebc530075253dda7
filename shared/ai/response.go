package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"comment-insights/internal/models"
)

// ErrSchemaMismatch is returned when a model reply parses as JSON but does
// not have the shape of an analysis result.
var ErrSchemaMismatch = errors.New("reply does not match analysis schema")

var analysisKeys = []string{
	"sentiment_summary",
	"sentiment_score",
	"common_themes",
	"happy_points",
	"issues_and_problems",
	"key_takeaways",
}

var fenceReplacer = strings.NewReplacer("```json", "", "```JSON", "", "```", "")

// stripCodeFence removes markdown code fences models like to wrap JSON in.
func stripCodeFence(reply string) string {
	return strings.TrimSpace(fenceReplacer.Replace(reply))
}

// decodeAnalysis strictly parses a model reply into an AnalysisResult.
// Every key must be present with the right type and the values must
// satisfy AnalysisResult.Validate.
func decodeAnalysis(reply string) (*models.AnalysisResult, error) {
	data := []byte(stripCodeFence(reply))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON in reply: %w", err)
	}
	for _, key := range analysisKeys {
		raw, ok := fields[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrSchemaMismatch, key)
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, fmt.Errorf("%w: %q is null", ErrSchemaMismatch, key)
		}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	result.Normalize()

	return &result, nil
}

// truncateRunes cuts s to at most maxLength characters without splitting a
// multi-byte character.
func truncateRunes(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength])
}
