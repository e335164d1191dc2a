package labreport

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const maxRawRunes = 1000

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrProcessing      = errors.New("failed to process file")
)

// TextExtractor returns the plain text of an uploaded document.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

type Report struct {
	Findings []Finding `json:"findings"`
	Summary  string    `json:"summary"`
	Raw      string    `json:"raw"`
}

// Analyzer routes uploads to an extractor by file extension.
type Analyzer struct {
	image  TextExtractor
	pdf    TextExtractor
	logger *zap.Logger
}

func NewAnalyzer(image, pdf TextExtractor, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{image: image, pdf: pdf, logger: logger}
}

func (a *Analyzer) Analyze(ctx context.Context, filename string, data []byte) (*Report, error) {
	var extractor TextExtractor
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "jpg", "jpeg", "png":
		extractor = a.image
	case "pdf":
		extractor = a.pdf
	default:
		return nil, ErrUnsupportedType
	}
	if extractor == nil {
		return nil, fmt.Errorf("%w: no extractor configured for %s", ErrProcessing, filename)
	}

	text, err := extractor.Extract(ctx, data)
	if err != nil {
		a.logger.Warn("lab report extraction failed", zap.String("file", filename), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	findings := ExtractFindings(text)
	a.logger.Debug("lab report analyzed", zap.String("file", filename), zap.Int("findings", len(findings)))
	return &Report{
		Findings: findings,
		Summary:  Summary(findings),
		Raw:      truncateRunes(text, maxRawRunes),
	}, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
