// Package tesseract reads receipt text from images with Tesseract OCR.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/GeorgePPP/bill-splitter/internal/extract"
)

// Client implements extract.TextExtractor. A gosseract client is created per
// call since one is not safe for concurrent use.
type Client struct {
	language       string
	tessdataPrefix string
	sem            chan struct{}
}

var _ extract.TextExtractor = (*Client)(nil)

// New creates a Client. An empty language means English; an empty prefix
// uses the library default. At most maxConcurrent images are read at once.
func New(language, tessdataPrefix string, maxConcurrent int) *Client {
	if language == "" {
		language = "eng"
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Client{
		language:       language,
		tessdataPrefix: tessdataPrefix,
		sem:            make(chan struct{}, maxConcurrent),
	}
}

// ExtractText runs OCR over image bytes.
func (c *Client) ExtractText(ctx context.Context, image []byte) (string, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	client := gosseract.NewClient()
	defer client.Close()

	if c.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(c.tessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(c.language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}
