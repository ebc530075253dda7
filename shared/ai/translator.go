package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"comment-insights/internal/models"
)

// ErrTranslationFailed wraps every failure of Translate. Unlike analysis,
// translation has no substitute value, so callers get the error.
var ErrTranslationFailed = errors.New("translation failed")

// Translator rewrites an existing analysis into another language.
type Translator struct {
	generator Generator
}

func NewTranslator(generator Generator) *Translator {
	return &Translator{generator: generator}
}

// Translate translates every text value of analysis into lang, keeping the
// keys and the sentiment score.
func (t *Translator) Translate(ctx context.Context, analysis *models.AnalysisResult, lang models.Language) (*models.AnalysisResult, error) {
	if analysis == nil {
		return nil, fmt.Errorf("%w: analysis cannot be nil", ErrTranslationFailed)
	}

	source := *analysis
	source.Normalize()
	if err := source.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranslationFailed, err)
	}
	encoded, err := json.MarshalIndent(source, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode analysis: %v", ErrTranslationFailed, err)
	}

	prompt := fmt.Sprintf(`Translate the following JSON analysis into %s.
Translate every string value and every string inside the arrays.
Keep every key exactly as it is, keep the same structure and do not change numbers.
Return only the JSON object.

%s`, lang.Name(), encoded)

	reply, err := t.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranslationFailed, err)
	}

	translated, err := decodeAnalysis(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranslationFailed, err)
	}
	translated.SentimentScore = source.SentimentScore

	return translated, nil
}
