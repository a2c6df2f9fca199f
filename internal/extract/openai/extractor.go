// Package openai extracts structured receipts from OCR text with an OpenAI
// chat model.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/GeorgePPP/bill-splitter/internal/extract"
	"github.com/GeorgePPP/bill-splitter/internal/models"
)

// Config holds the settings for an Extractor.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Extractor implements extract.ReceiptExtractor with the chat completions API.
type Extractor struct {
	client      *gopenai.Client
	model       string
	temperature float32
	maxTokens   int
}

var _ extract.ReceiptExtractor = (*Extractor)(nil)

// New creates an Extractor. BaseURL overrides the API endpoint when set.
func New(cfg Config) *Extractor {
	clientCfg := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Extractor{
		client:      gopenai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// ExtractReceipt asks the model to fill the receipt template from rawText.
func (e *Extractor) ExtractReceipt(ctx context.Context, rawText string) (*models.RawReceipt, error) {
	slog.Debug("Requesting receipt extraction", "model", e.model, "chars", len(rawText))

	resp, err := e.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		Messages: []gopenai.ChatCompletionMessage{
			{
				Role:    gopenai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    gopenai.ChatMessageRoleUser,
				Content: "Here's the template that you should follow: " + receiptTemplate,
			},
			{
				Role:    gopenai.ChatMessageRoleUser,
				Content: "Here's the raw extracted text: " + rawText,
			},
		},
		ResponseFormat: &gopenai.ChatCompletionResponseFormat{
			Type: gopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", extract.ErrMalformedResponse)
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("Extraction response received",
		"content_length", len(content),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	receipt, err := extract.DecodeReceipt([]byte(content))
	if err != nil {
		slog.Warn("Could not decode extraction response", "error", err, "content", content)
		return nil, err
	}
	return receipt, nil
}

const systemPrompt = "Your task is to create a JSON object that follows a template based on my raw text receipt. " +
	"Strictly return the JSON only, no explanation or trailing words. " +
	"Use plain numbers without currency symbols. Discounts are negative amounts. " +
	"If the receipt does not print a subtotal, use 0. If a field is not visible, use an empty string or 0."

const receiptTemplate = `{
  "receipt_number": "Unique identifier for the receipt",
  "date": "Date of purchase (YYYY-MM-DD)",
  "time": "Time of purchase (HH:MM)",
  "store": {
    "name": "Name of the store or restaurant",
    "address": "Address of the store",
    "phone": "Contact phone number of the store"
  },
  "items": [
    {
      "name": "Name of the purchased item",
      "quantity": "Number of units purchased",
      "unit_price": "Price per unit",
      "total_price": "Total for this line as printed"
    }
  ],
  "subtotal": "Subtotal as printed before taxes and charges, or 0 if not printed",
  "taxes_or_charges": [
    {
      "name": "Name of the tax, service charge or discount as printed",
      "amount": "Amount as printed, negative for discounts"
    }
  ],
  "grand_total": "Final total after taxes, charges and discounts",
  "payment_method": "Mode of payment",
  "transaction_id": "Transaction or reference number",
  "notes": "Optional additional notes"
}`
