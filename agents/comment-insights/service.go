package commentinsights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"comment-insights/agents/comment-insights/youtube"
	"comment-insights/internal/models"
	"comment-insights/shared/monitoring"
	"comment-insights/shared/storage"
)

// ErrInvalidURL is returned by Analyze when the URL is not a recognized
// YouTube video URL. Nothing upstream is called in that case.
var ErrInvalidURL = errors.New("invalid YouTube URL")

// VideoSource fetches video metadata and comments. GetComments reports
// failures as an empty slice.
type VideoSource interface {
	GetVideoDetails(ctx context.Context, id models.VideoIdentifier) (*models.VideoDetails, error)
	GetComments(ctx context.Context, id models.VideoIdentifier, maxResults int) []models.Comment
}

// SentimentAnalyzer always returns a usable result. A non-nil error means
// the result is a fallback and the analysis itself failed.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, comments []models.Comment, video *models.VideoDetails, lang models.Language) (models.AnalysisResult, error)
}

type AnalysisTranslator interface {
	Translate(ctx context.Context, analysis *models.AnalysisResult, lang models.Language) (*models.AnalysisResult, error)
}

type HistoryStore interface {
	Append(ctx context.Context, rec *models.AnalysisHistoryRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.AnalysisHistoryRecord, error)
}

// Dependencies are the collaborators a Service is built from.
type Dependencies struct {
	Videos      VideoSource
	Analyzer    SentimentAnalyzer
	Translator  AnalysisTranslator
	History     HistoryStore
	Monitor     *monitoring.Monitor
	MaxComments int
}

// AnalyzeResponse is the body of a successful analysis.
type AnalyzeResponse struct {
	VideoDetails *models.VideoDetails  `json:"videoDetails"`
	Analysis     models.AnalysisResult `json:"analysis"`
}

// Service runs the analysis pipeline. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	videos      VideoSource
	analyzer    SentimentAnalyzer
	translator  AnalysisTranslator
	history     HistoryStore
	monitor     *monitoring.Monitor
	maxComments int
}

func NewService(deps Dependencies) *Service {
	monitor := deps.Monitor
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}
	return &Service{
		videos:      deps.Videos,
		analyzer:    deps.Analyzer,
		translator:  deps.Translator,
		history:     deps.History,
		monitor:     monitor,
		maxComments: deps.MaxComments,
	}
}

// Analyze extracts the video ID from rawURL, fetches metadata and comments,
// analyzes the comments and records the result in history.
//
// Only ErrInvalidURL, youtube.ErrVideoNotFound and metadata transport errors
// are returned. Comment, analysis and history failures degrade the result
// instead.
func (s *Service) Analyze(ctx context.Context, rawURL string, lang models.Language) (*AnalyzeResponse, error) {
	startTime := time.Now()

	videoID, ok := youtube.ExtractVideoID(rawURL)
	if !ok {
		return nil, ErrInvalidURL
	}

	logrus.Infof("Analyzing: %s", videoID)

	details, err := s.videos.GetVideoDetails(ctx, videoID)
	if err != nil {
		return nil, err
	}

	comments := s.videos.GetComments(ctx, videoID, s.maxComments)

	var analysis models.AnalysisResult
	var analysisErr error
	if len(comments) == 0 {
		analysis = models.NoCommentsAnalysis()
	} else {
		analysis, analysisErr = s.analyzer.Analyze(ctx, comments, details, lang)
	}
	analysis.Normalize()

	s.persist(ctx, details, lang, analysis, startTime)

	if analysisErr != nil {
		s.monitor.RecordPartialFailure(fmt.Errorf("analysis of %s fell back: %w", videoID, analysisErr), time.Since(startTime))
	} else {
		s.monitor.RecordSuccess(fmt.Sprintf("analyzed %s with %d comments", videoID, len(comments)), time.Since(startTime))
	}

	return &AnalyzeResponse{
		VideoDetails: details,
		Analysis:     analysis,
	}, nil
}

// persist writes the analysis to history. Failures are logged and never
// reach the caller.
func (s *Service) persist(ctx context.Context, details *models.VideoDetails, lang models.Language, analysis models.AnalysisResult, startTime time.Time) {
	rec := &models.AnalysisHistoryRecord{
		VideoID:      details.ID,
		Title:        details.Title,
		Thumbnail:    details.Thumbnail,
		ChannelTitle: details.ChannelTitle,
		Language:     lang,
		Analysis:     analysis,
	}

	// The response is already computed; a client disconnect should not
	// drop the history row.
	if err := s.history.Append(context.WithoutCancel(ctx), rec); err != nil {
		s.monitor.RecordPartialFailure(fmt.Errorf("failed to save history for %s: %w", details.ID, err), time.Since(startTime))
	}
}

// Translate returns analysis translated into lang. Errors wrap
// ai.ErrTranslationFailed.
func (s *Service) Translate(ctx context.Context, analysis *models.AnalysisResult, lang models.Language) (*models.AnalysisResult, error) {
	return s.translator.Translate(ctx, analysis, lang)
}

// History returns the most recent analyses, newest first.
func (s *Service) History(ctx context.Context) ([]models.AnalysisHistoryRecord, error) {
	return s.history.ListRecent(ctx, storage.DefaultHistoryLimit)
}
