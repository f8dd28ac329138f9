package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/awfukui/glotbot/internal/inference"
)

type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

func NewClient(apiKey, baseURL, model string, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Temperature    float32         `json:"temperature,omitempty"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ResponseFormat constrains the completion to schema-conforming JSON.
type ResponseFormat struct {
	Type       string     `json:"type"`
	JSONSchema JSONSchema `json:"json_schema"`
}

type JSONSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict"`
}

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// translateSchema is the strict response shape: exactly the three string
// fields every delivered result carries.
var translateSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"translated_content": {
			"type": "string",
			"description": "The translated content of the message."
		},
		"detected_language": {
			"type": "string",
			"description": "The detected source language of the original message (language name, not code)."
		},
		"confidence": {
			"type": "string",
			"description": "Confidence level of the translation (high/medium/low)."
		}
	},
	"required": ["translated_content", "detected_language", "confidence"],
	"additionalProperties": false
}`)

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Retry on JSON parsing errors as they might be due to incomplete responses
	errStr := err.Error()
	if strings.Contains(errStr, "json.Unmarshal") || strings.Contains(errStr, "unexpected end of JSON input") {
		return true
	}

	// Retry on network-related errors
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// Retry on 5xx errors (server errors)
	if strings.Contains(errStr, "response error 5") {
		return true
	}

	// Retry on rate limiting (429)
	if strings.Contains(errStr, "response error 429") {
		return true
	}

	return false
}

// Translate implements the inference.Client interface
func (client *Client) Translate(
	ctx context.Context,
	params inference.TranslateRequest,
) (inference.TranslateResponse, error) {
	var result inference.TranslateResponse
	if err := retry.Do(
		func() error {
			response, err := client.translate(ctx, params)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return inference.TranslateResponse{}, err
	}
	return result, nil
}

func (client *Client) getRequestBody(params inference.TranslateRequest) ChatCompletionRequest {
	systemPrompt := fmt.Sprintf(`You are a professional translator. Translate the given message to %s (%s).

Rules:
- Provide accurate, natural translations
- Maintain the original tone and style
- If the message is already in the target language, still provide the "translation" (which may be the same)
- Detect the source language of the original message
- Assess your confidence in the translation quality

Respond with the translated content, detected source language, and confidence level.`, params.TargetName, params.TargetCode)

	return ChatCompletionRequest{
		Model: client.model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: params.Text},
		},
		ResponseFormat: &ResponseFormat{
			Type: "json_schema",
			JSONSchema: JSONSchema{
				Name:   "translate_message",
				Schema: translateSchema,
				Strict: true,
			},
		},
	}
}

func (client *Client) translate(
	ctx context.Context,
	params inference.TranslateRequest,
) (inference.TranslateResponse, error) {
	requestBody := client.getRequestBody(params)

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return inference.TranslateResponse{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return inference.TranslateResponse{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return inference.TranslateResponse{}, fmt.Errorf("empty response body or choices: %s", response.String())
	}

	content := responseBody.Choices[0].Message.Content
	if content == "" {
		return inference.TranslateResponse{}, fmt.Errorf("empty response content: %s", response.String())
	}
	slog.Default().Debug("openai response content",
		"model", responseBody.Model,
		"totalTokens", responseBody.Usage.TotalTokens,
	)

	var decoded inference.TranslateResponse
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		slog.Default().Error("Failed to parse OpenAI response as JSON",
			"targetCode", params.TargetCode,
			"error", err)
		return inference.TranslateResponse{}, fmt.Errorf("json.Unmarshal(%s) > %w", content, err)
	}
	return fillSentinels(decoded), nil
}

// fillSentinels enforces the result invariant: no delivered field is empty.
func fillSentinels(response inference.TranslateResponse) inference.TranslateResponse {
	if response.TranslatedContent == "" {
		response.TranslatedContent = inference.FailedContentSentinel
	}
	if response.DetectedLanguage == "" {
		response.DetectedLanguage = inference.UnknownSentinel
	}
	if response.Confidence == "" {
		response.Confidence = inference.UnknownSentinel
	}
	return response
}
