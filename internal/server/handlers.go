package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/symptomsense/internal/labreport"
	"github.com/Skufu/symptomsense/internal/predict"
	"github.com/Skufu/symptomsense/internal/symptoms"
)

func (h *handlers) predict(c *gin.Context) {
	if err := parseForm(c); err != nil {
		if tooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "request body too large"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid form body"})
		return
	}

	raw, ok := c.GetPostForm("symptoms")
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "symptoms field is required"})
		return
	}

	phrases, err := predict.ParseSymptoms(raw)
	switch {
	case errors.Is(err, predict.ErrInvalidSymptomsJSON):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid JSON format for symptoms"})
		return
	case errors.Is(err, predict.ErrSymptomsNotList):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Symptoms must be a list"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	h.logIntake(c)

	result, err := h.Predictor.Predict(c.Request.Context(), phrases)
	if err != nil {
		h.Logger.Error("prediction failed", zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// logIntake records the optional demographic fields and uploaded lab reports.
// They do not influence the prediction.
func (h *handlers) logIntake(c *gin.Context) {
	fields := []zap.Field{zap.String("request_id", c.GetString(requestIDKey))}
	for _, key := range []string{"age", "gender", "weight", "height"} {
		if v, ok := c.GetPostForm(key); ok && v != "" {
			fields = append(fields, zap.String(key, v))
		}
	}
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["lab_reports"] {
			fields = append(fields, zap.Dict("lab_report",
				zap.String("filename", fh.Filename),
				zap.Int64("size", fh.Size),
			))
		}
	}
	h.Logger.Info("prediction request", fields...)
}

func (h *handlers) suggest(c *gin.Context) {
	query, ok := c.GetQuery("query")
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "query parameter is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": h.Suggester.Suggest(query, symptoms.DefaultSuggestions)})
}

type extractRequest struct {
	Text string `json:"text"`
}

func (h *handlers) extractEntities(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid payload"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.ExtractTimeout)
	defer cancel()

	c.JSON(http.StatusOK, h.Extractor.Extract(ctx, req.Text))
}

func (h *handlers) analyzeLabReport(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "request body too large"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "file is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": "Failed to process file: " + err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": "Failed to process file: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.ExtractTimeout)
	defer cancel()

	report, err := h.Analyzer.Analyze(ctx, fh.Filename, data)
	switch {
	case errors.Is(err, labreport.ErrUnsupportedType):
		c.JSON(http.StatusOK, gin.H{"error": "Unsupported file type"})
	case err != nil:
		cause := strings.TrimPrefix(err.Error(), labreport.ErrProcessing.Error()+": ")
		h.Logger.Warn("lab report failed", zap.String("file", fh.Filename), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": "Failed to process file: " + cause})
	default:
		c.JSON(http.StatusOK, report)
	}
}

func parseForm(c *gin.Context) error {
	if c.ContentType() == "multipart/form-data" {
		_, err := c.MultipartForm()
		return err
	}
	return c.Request.ParseForm()
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "request body too large")
}
