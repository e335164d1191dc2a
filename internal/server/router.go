// Package server exposes the prediction service over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/symptomsense/internal/labreport"
	"github.com/Skufu/symptomsense/internal/nlp"
	"github.com/Skufu/symptomsense/internal/predict"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Predictor interface {
	Predict(ctx context.Context, phrases []string) (*predict.Result, error)
}

type Suggester interface {
	Suggest(query string, max int) []string
}

type EntityExtractor interface {
	Extract(ctx context.Context, text string) nlp.Entities
}

type LabAnalyzer interface {
	Analyze(ctx context.Context, filename string, data []byte) (*labreport.Report, error)
}

// Deps are the domain services behind the routes. DB and Model may be nil.
type Deps struct {
	Predictor Predictor
	Suggester Suggester
	Extractor EntityExtractor
	Analyzer  LabAnalyzer
	DB        HealthChecker
	Model     HealthChecker
	Logger    *zap.Logger
}

type Options struct {
	CORSOrigins    []string
	MaxBodyBytes   int64
	StaticRoot     string
	ExtractTimeout time.Duration
}

type handlers struct {
	Deps
	opts Options
}

func NewRouter(deps Deps, opts Options) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = 30 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	h := &handlers{Deps: deps, opts: opts}

	router := gin.New()
	router.MaxMultipartMemory = opts.MaxBodyBytes
	router.Use(
		requestID(),
		accessLog(deps.Logger),
		recovery(deps.Logger),
		limitBodySize(opts.MaxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins:  opts.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        12 * time.Hour,
		}),
	)

	if opts.StaticRoot != "" {
		router.Static("/app", opts.StaticRoot)
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, "/app/")
		})
		deps.Logger.Info("serving frontend", zap.String("root", filepath.Clean(opts.StaticRoot)))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", h.readyz)

	router.POST("/predict", h.predict)
	router.OPTIONS("/predict", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/symptom_suggest", h.suggest)
	router.POST("/extract_entities", h.extractEntities)
	router.POST("/analyze_lab_report", h.analyzeLabReport)

	return router
}

func (h *handlers) readyz(c *gin.Context) {
	body := gin.H{"status": "ok"}
	status := http.StatusOK

	for _, check := range []struct {
		name    string
		checker HealthChecker
	}{{"db", h.DB}, {"model", h.Model}} {
		if check.checker == nil {
			body[check.name] = "disabled"
			continue
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err := check.checker.Ping(ctx)
		cancel()

		if err != nil {
			body[check.name] = fmt.Sprintf("unhealthy: %v", err)
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		body[check.name] = "ok"
	}

	c.JSON(status, body)
}
