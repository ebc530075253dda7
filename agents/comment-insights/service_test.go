package commentinsights

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comment-insights/agents/comment-insights/youtube"
	"comment-insights/internal/models"
	"comment-insights/shared/ai"
	"comment-insights/shared/monitoring"
	"comment-insights/shared/scheduler"
)

type fakeVideos struct {
	details      *models.VideoDetails
	detailsErr   error
	comments     []models.Comment
	detailCalls  int
	commentCalls int
	maxResults   int
}

func (f *fakeVideos) GetVideoDetails(ctx context.Context, id models.VideoIdentifier) (*models.VideoDetails, error) {
	f.detailCalls++
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	details := *f.details
	details.ID = id
	return &details, nil
}

func (f *fakeVideos) GetComments(ctx context.Context, id models.VideoIdentifier, maxResults int) []models.Comment {
	f.commentCalls++
	f.maxResults = maxResults
	return f.comments
}

type fakeAnalyzer struct {
	result models.AnalysisResult
	err    error
	calls  int
	lang   models.Language
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, comments []models.Comment, video *models.VideoDetails, lang models.Language) (models.AnalysisResult, error) {
	f.calls++
	f.lang = lang
	return f.result, f.err
}

type fakeTranslator struct {
	result *models.AnalysisResult
	err    error
}

func (f *fakeTranslator) Translate(ctx context.Context, analysis *models.AnalysisResult, lang models.Language) (*models.AnalysisResult, error) {
	return f.result, f.err
}

type fakeHistory struct {
	mu        sync.Mutex
	records   []models.AnalysisHistoryRecord
	appendErr error
	listErr   error
	lastLimit int
	pingErr   error
}

func (f *fakeHistory) Append(ctx context.Context, rec *models.AnalysisHistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	r := *rec
	r.ID = int64(len(f.records) + 1)
	r.CreatedAt = time.Now()
	f.records = append(f.records, r)
	return nil
}

func (f *fakeHistory) ListRecent(ctx context.Context, limit int) ([]models.AnalysisHistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.AnalysisHistoryRecord{}
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.records[i])
	}
	return out, nil
}

func (f *fakeHistory) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeHistory) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records), nil
}

var positiveAnalysis = models.AnalysisResult{
	SentimentSummary:  "Overwhelmingly positive.",
	SentimentScore:    0.9,
	CommonThemes:      []string{"nostalgia"},
	HappyPoints:       []string{"music"},
	IssuesAndProblems: []string{},
	KeyTakeaways:      []string{"Still loved"},
}

func testDetails() *models.VideoDetails {
	return &models.VideoDetails{
		Title:        "Never Gonna Give You Up",
		Thumbnail:    "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
		ChannelTitle: "Rick Astley",
		ViewCount:    "100",
		LikeCount:    "10",
		CommentCount: "3",
	}
}

func threeComments() []models.Comment {
	return []models.Comment{{Text: "great"}, {Text: "classic"}, {Text: "lol"}}
}

type testService struct {
	*Service
	videos   *fakeVideos
	analyzer *fakeAnalyzer
	history  *fakeHistory
	monitor  *monitoring.Monitor
}

func newTestService(videos *fakeVideos) *testService {
	analyzer := &fakeAnalyzer{result: positiveAnalysis}
	history := &fakeHistory{}
	monitor := monitoring.NewMonitor()
	svc := NewService(Dependencies{
		Videos:      videos,
		Analyzer:    analyzer,
		Translator:  &fakeTranslator{},
		History:     history,
		Monitor:     monitor,
		MaxComments: 100,
	})
	return &testService{Service: svc, videos: videos, analyzer: analyzer, history: history, monitor: monitor}
}

func TestAnalyzeSuccess(t *testing.T) {
	ts := newTestService(&fakeVideos{details: testDetails(), comments: threeComments()})

	resp, err := ts.Analyze(context.Background(), "https://youtu.be/dQw4w9WgXcQ", models.LanguageArabic)
	require.NoError(t, err)

	assert.Equal(t, models.VideoIdentifier("dQw4w9WgXcQ"), resp.VideoDetails.ID)
	assert.Equal(t, "Never Gonna Give You Up", resp.VideoDetails.Title)
	assert.Equal(t, positiveAnalysis, resp.Analysis)
	assert.Equal(t, 1, ts.analyzer.calls)
	assert.Equal(t, models.LanguageArabic, ts.analyzer.lang)
	assert.Equal(t, 100, ts.videos.maxResults)

	require.Len(t, ts.history.records, 1)
	rec := ts.history.records[0]
	assert.Equal(t, models.VideoIdentifier("dQw4w9WgXcQ"), rec.VideoID)
	assert.Equal(t, "Rick Astley", rec.ChannelTitle)
	assert.Equal(t, models.LanguageArabic, rec.Language)
	assert.Equal(t, positiveAnalysis, rec.Analysis)

	assert.Equal(t, 1, ts.monitor.Snapshot().Successes)
}

func TestAnalyzeInvalidURLCallsNothing(t *testing.T) {
	ts := newTestService(&fakeVideos{details: testDetails(), comments: threeComments()})

	resp, err := ts.Analyze(context.Background(), "https://example.com/watch", models.LanguageEnglish)
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Nil(t, resp)
	assert.Zero(t, ts.videos.detailCalls)
	assert.Zero(t, ts.videos.commentCalls)
	assert.Zero(t, ts.analyzer.calls)
	assert.Empty(t, ts.history.records)
}

func TestAnalyzeNotFoundAborts(t *testing.T) {
	notFound := fmt.Errorf("%w: dQw4w9WgXcQ", youtube.ErrVideoNotFound)
	ts := newTestService(&fakeVideos{detailsErr: notFound})

	resp, err := ts.Analyze(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", models.LanguageEnglish)
	assert.ErrorIs(t, err, youtube.ErrVideoNotFound)
	assert.Nil(t, resp)
	assert.Zero(t, ts.videos.commentCalls)
	assert.Zero(t, ts.analyzer.calls)
	assert.Empty(t, ts.history.records)
}

func TestAnalyzeNoCommentsSkipsAnalyzer(t *testing.T) {
	for name, comments := range map[string][]models.Comment{
		"Empty slice":           {},
		"Nil from failed fetch": nil,
	} {
		t.Run(name, func(t *testing.T) {
			ts := newTestService(&fakeVideos{details: testDetails(), comments: comments})

			resp, err := ts.Analyze(context.Background(), "https://youtu.be/dQw4w9WgXcQ", models.LanguageEnglish)
			require.NoError(t, err)

			assert.Zero(t, ts.analyzer.calls, "analyzer must not be called without comments")
			assert.Equal(t, models.NoCommentsAnalysis(), resp.Analysis)
			require.Len(t, ts.history.records, 1)
			assert.Equal(t, models.NoCommentsAnalysis(), ts.history.records[0].Analysis)
		})
	}
}

func TestAnalyzeHistoryFailureIsSwallowed(t *testing.T) {
	ts := newTestService(&fakeVideos{details: testDetails(), comments: threeComments()})
	ts.history.appendErr = errors.New("disk full")

	resp, err := ts.Analyze(context.Background(), "https://youtu.be/dQw4w9WgXcQ", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, positiveAnalysis, resp.Analysis)

	snap := ts.monitor.Snapshot()
	assert.Equal(t, 1, snap.PartialFailures)
	assert.Contains(t, snap.LastError, "disk full")
}

func TestAnalyzeFallbackIsPartialFailure(t *testing.T) {
	t.Run("Analyzer reports fallback", func(t *testing.T) {
		ts := newTestService(&fakeVideos{details: testDetails(), comments: threeComments()})
		ts.analyzer.result = models.FallbackAnalysis()
		ts.analyzer.err = errors.New("quota exceeded")

		resp, err := ts.Analyze(context.Background(), "https://youtu.be/dQw4w9WgXcQ", models.LanguageEnglish)
		require.NoError(t, err)
		assert.Equal(t, models.FallbackAnalysis(), resp.Analysis)
		require.Len(t, ts.history.records, 1)

		snap := ts.monitor.Snapshot()
		assert.Equal(t, 0, snap.Successes)
		assert.Equal(t, 1, snap.PartialFailures)
		assert.Contains(t, snap.LastError, "quota exceeded")
		assert.True(t, snap.Healthy)
	})

	t.Run("Generator error through real analyzer", func(t *testing.T) {
		monitor := monitoring.NewMonitor()
		svc := NewService(Dependencies{
			Videos:      &fakeVideos{details: testDetails(), comments: threeComments()},
			Analyzer:    ai.NewAnalyzer(&countingGenerator{err: errors.New("quota exceeded")}),
			History:     &fakeHistory{},
			Monitor:     monitor,
			MaxComments: 100,
		})

		resp, err := svc.Analyze(context.Background(), "https://youtu.be/dQw4w9WgXcQ", models.LanguageEnglish)
		require.NoError(t, err)
		assert.Equal(t, "Error analyzing comments.", resp.Analysis.SentimentSummary)

		snap := monitor.Snapshot()
		assert.Equal(t, 0, snap.Successes)
		assert.Equal(t, 1, snap.PartialFailures)
	})
}

func TestAnalyzePersistsAfterClientCancel(t *testing.T) {
	ts := newTestService(&fakeVideos{details: testDetails(), comments: threeComments()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ts.Analyze(ctx, "https://youtu.be/dQw4w9WgXcQ", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Len(t, ts.history.records, 1)
}

func TestAnalyzeNormalizesAnalyzerOutput(t *testing.T) {
	ts := newTestService(&fakeVideos{details: testDetails(), comments: threeComments()})
	ts.analyzer.result = models.AnalysisResult{SentimentSummary: "sparse", SentimentScore: 0.1}

	resp, err := ts.Analyze(context.Background(), "https://youtu.be/dQw4w9WgXcQ", models.LanguageEnglish)
	require.NoError(t, err)
	assert.NotNil(t, resp.Analysis.CommonThemes)
	assert.NotNil(t, resp.Analysis.KeyTakeaways)
}

func TestTranslateDelegates(t *testing.T) {
	translated := positiveAnalysis
	translated.SentimentSummary = "إيجابي للغاية."

	svc := NewService(Dependencies{Translator: &fakeTranslator{result: &translated}})
	got, err := svc.Translate(context.Background(), &positiveAnalysis, models.LanguageArabic)
	require.NoError(t, err)
	assert.Equal(t, "إيجابي للغاية.", got.SentimentSummary)

	failing := NewService(Dependencies{Translator: &fakeTranslator{err: fmt.Errorf("%w: bad reply", ai.ErrTranslationFailed)}})
	_, err = failing.Translate(context.Background(), &positiveAnalysis, models.LanguageArabic)
	assert.ErrorIs(t, err, ai.ErrTranslationFailed)
}

func TestHistoryReturnsTenMostRecent(t *testing.T) {
	ts := newTestService(&fakeVideos{details: testDetails(), comments: threeComments()})
	for i := 1; i <= 12; i++ {
		ts.videos.details.Title = fmt.Sprintf("R%d", i)
		_, err := ts.Analyze(context.Background(), "https://youtu.be/dQw4w9WgXcQ", models.LanguageEnglish)
		require.NoError(t, err)
	}

	records, err := ts.History(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, ts.history.lastLimit)
	require.Len(t, records, 10)
	assert.Equal(t, "R12", records[0].Title)
	assert.Equal(t, "R3", records[9].Title)
}

func TestHistoryProbe(t *testing.T) {
	t.Run("Healthy store", func(t *testing.T) {
		monitor := monitoring.NewMonitor()
		history := &fakeHistory{records: []models.AnalysisHistoryRecord{{}, {}}}
		s := scheduler.New("* * * * * *", monitor)

		require.NoError(t, s.RunOnce(context.Background(), NewHistoryProbe(history)))
		assert.True(t, monitor.IsHealthy())
	})

	t.Run("Unreachable store", func(t *testing.T) {
		monitor := monitoring.NewMonitor()
		history := &fakeHistory{pingErr: errors.New("connection refused")}
		s := scheduler.New("* * * * * *", monitor)

		err := s.RunOnce(context.Background(), NewHistoryProbe(history))
		require.Error(t, err)
		assert.False(t, monitor.IsHealthy())
		assert.Contains(t, monitor.Snapshot().LastError, "connection refused")
	})

	t.Run("Summary", func(t *testing.T) {
		assert.Equal(t, "history store reachable, 4 records", ProbeMetrics{Records: 4}.GetSummary())
	})
}
