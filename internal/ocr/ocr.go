// Package ocr extracts plain text from uploaded lab reports.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/ledongthuc/pdf"
)

var ErrNotConfigured = errors.New("text extraction is not configured")

// TextractAPI is the part of the Textract client used here.
type TextractAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// Textract reads image text with AWS Textract.
type Textract struct {
	api TextractAPI
}

func NewTextract(api TextractAPI) *Textract {
	return &Textract{api: api}
}

// NewTextractFromConfig builds a Textract extractor from a loaded AWS config.
func NewTextractFromConfig(cfg aws.Config) *Textract {
	return NewTextract(textract.NewFromConfig(cfg))
}

// Extract returns the detected LINE blocks joined by newlines.
func (t *Textract) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("textract: empty document")
	}
	out, err := t.api.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: data},
	})
	if err != nil {
		return "", fmt.Errorf("textract: %w", err)
	}

	lines := make([]string, 0, len(out.Blocks))
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, aws.ToString(block.Text))
		}
	}
	return strings.Join(lines, "\n"), nil
}

// PDF reads the text layer of a PDF document.
type PDF struct{}

func (PDF) Extract(_ context.Context, data []byte) (text string, err error) {
	// the reader panics on some malformed object graphs
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("read pdf: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, perr := p.GetPlainText(nil)
		if perr != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, perr)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n"), nil
}

// Unavailable stands in when no extraction backend is configured.
type Unavailable struct{}

func (Unavailable) Extract(context.Context, []byte) (string, error) {
	return "", ErrNotConfigured
}
