package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/ideanote/ai/enrichment"
	"github.com/hrygo/ideanote/ai/metrics"
	"github.com/hrygo/ideanote/internal/profile"
	"github.com/hrygo/ideanote/store"
)

type APIV1Service struct {
	Profile    *profile.Profile
	Store      *store.Store
	Enrichment *enrichment.Service
	Metrics    *metrics.PrometheusExporter

	transcribeSemaphore *semaphore.Weighted
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, svc *enrichment.Service, exporter *metrics.PrometheusExporter) *APIV1Service {
	concurrency := profile.TranscribeConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &APIV1Service{
		Profile:             profile,
		Store:               store,
		Enrichment:          svc,
		Metrics:             exporter,
		transcribeSemaphore: semaphore.NewWeighted(int64(concurrency)),
	}
}

// RegisterRoutes registers the REST handlers with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	if s.Metrics != nil {
		e.Use(metricsMiddleware(s.Metrics))
		e.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
	e.GET("/healthz", s.Healthz)

	api := e.Group("/api/v1", corsMiddleware(s.Profile.AllowedOrigins), userMiddleware)

	aiGroup := api.Group("/ai")
	aiGroup.GET("/suggest-tags", s.SuggestTags)
	aiGroup.GET("/tags", s.SuggestTagsRaw)
	aiGroup.GET("/enhance", s.Enhance)
	aiGroup.GET("/summarize", s.Summarize)
	aiGroup.GET("/categorize", s.Categorize)
	aiGroup.GET("/suggestions", s.Suggestions)
	aiGroup.GET("/related-ideas", s.RelatedIdeas)
	aiGroup.GET("/mind-map", s.MindMap)
	aiGroup.GET("/expand-idea", s.ExpandIdea)
	aiGroup.GET("/analyze-concept", s.AnalyzeConcept)
	aiGroup.GET("/expand-idea-chain", s.ExpandIdeaChain)
	aiGroup.GET("/analyze-concept-chain", s.AnalyzeConceptChain)
	aiGroup.POST("/transcribe", s.Transcribe)

	notes := api.Group("/notes")
	notes.POST("", s.CreateNote)
	notes.GET("/:id", s.GetNote)
	notes.PUT("/:id", s.UpdateNote)
	notes.PUT("/:id/tags", s.SetNoteTags)
	notes.GET("/:id/interactions", s.ListNoteInteractions)
}

// corsMiddleware admits credentialed browser calls from the listed origins
// only. Without origins the API is same-origin.
func corsMiddleware(origins []string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, UserIDHeader},
		AllowCredentials: true,
	})
}

// Healthz reports whether the store answers.
func (s *APIV1Service) Healthz(c echo.Context) error {
	if err := s.Store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": s.Profile.Version})
}
