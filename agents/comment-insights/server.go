package commentinsights

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"comment-insights/agents/comment-insights/youtube"
	"comment-insights/internal/models"
	"comment-insights/shared/config"
	"comment-insights/shared/monitoring"
)

const shutdownTimeout = 10 * time.Second

type analyzeRequest struct {
	URL      string `json:"url" validate:"required"`
	Language string `json:"language" validate:"omitempty,oneof=en ar"`
}

type translateRequest struct {
	AnalysisJSON   *models.AnalysisResult `json:"analysis_json" validate:"required"`
	TargetLanguage string                 `json:"target_language" validate:"required,oneof=en ar"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// requestValidator adapts go-playground/validator to echo.Validator.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	validate := validator.New()
	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: validate}
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// Server exposes the Service over HTTP.
type Server struct {
	echo    *echo.Echo
	service *Service
	addr    string
}

func NewServer(cfg *config.ServerConfig, service *Service, monitor *monitoring.Monitor) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(requestLogger())

	s := &Server{
		echo:    e,
		service: service,
		addr:    fmt.Sprintf(":%d", cfg.Port),
	}

	e.GET("/health", monitoring.HealthHandler())
	e.GET("/status", monitoring.StatusHandler(monitor))

	api := e.Group("/api")
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/translate", s.handleTranslate)
	api.GET("/history", s.handleHistory)

	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("HTTP server listening on %s", s.addr)
		errCh <- s.echo.Start(s.addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logrus.Info("Shutting down HTTP server")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
	}

	lang, err := models.ParseLanguage(req.Language)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	resp, err := s.service.Analyze(c.Request().Context(), req.URL, lang)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, resp)
	case errors.Is(err, ErrInvalidURL):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid YouTube URL"})
	case errors.Is(err, youtube.ErrVideoNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "Video not found"})
	default:
		logrus.Errorf("Failed to analyze %q: %v", req.URL, err)
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "Failed to fetch video details"})
	}
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
	}
	if err := req.AnalysisJSON.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid analysis_json: " + err.Error()})
	}

	translated, err := s.service.Translate(c.Request().Context(), req.AnalysisJSON, models.Language(req.TargetLanguage))
	if err != nil {
		logrus.Errorf("Translation to %s failed: %v", req.TargetLanguage, err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Translation failed"})
	}

	return c.JSON(http.StatusOK, translated)
}

func (s *Server) handleHistory(c echo.Context) error {
	records, err := s.service.History(c.Request().Context())
	if err != nil {
		logrus.Errorf("Failed to list history: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to load history"})
	}
	return c.JSON(http.StatusOK, records)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", fe.Field())
		case "oneof":
			return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
	return "Invalid request"
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logrus.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	})
}
