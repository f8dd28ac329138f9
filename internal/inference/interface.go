package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client interface defines the translation provider boundary.
type Client interface {
	Translate(ctx context.Context, params TranslateRequest) (TranslateResponse, error)
}

// TranslateRequest carries one message to translate. TargetName is the
// human-readable name matching TargetCode ("Spanish" for "es").
type TranslateRequest struct {
	Text       string
	TargetCode string
	TargetName string
}

// TranslateResponse is the provider's structured answer.
type TranslateResponse struct {
	// TranslatedContent is always populated: provider output, or the
	// FailedContentSentinel if the provider omitted the field.
	TranslatedContent string `json:"translated_content"`
	// DetectedLanguage is a free-text language name, UnknownSentinel if omitted.
	DetectedLanguage string `json:"detected_language"`
	// Confidence is one of high/medium/low, UnknownSentinel if omitted.
	Confidence string `json:"confidence"`
}

// Sentinels for fields a provider response left empty. A delivered result
// never carries an empty field.
const (
	FailedContentSentinel = "Translation failed"
	UnknownSentinel       = "Unknown"
)

const (
	// DefaultMaxRetryAttempts keeps the provider call single-shot: each
	// reaction triggers exactly one attempt unless configured otherwise.
	DefaultMaxRetryAttempts = 0
)
