package completion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Config configures OpenAIClient. Zero values take the package defaults,
// except Temperature which is sent as given.
type Config struct {
	APIKey      string
	BaseURL     string
	Mode        Mode
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	// HTTPClient replaces the default client built from Timeout.
	HTTPClient *http.Client
}

// api is the subset of *openai.Client used here.
type api interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateCompletion(ctx context.Context, request openai.CompletionRequest) (openai.CompletionResponse, error)
}

// OpenAIClient implements Client with github.com/sashabaranov/go-openai.
type OpenAIClient struct {
	api    api
	config Config
}

var reasoningModelPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

// chatOnlyModels are refused by go-openai's CreateCompletion before any
// request is sent.
var chatOnlyModels = map[string]struct{}{
	"gpt-3.5-turbo":          {},
	"gpt-3.5-turbo-0301":     {},
	"gpt-3.5-turbo-0613":     {},
	"gpt-3.5-turbo-1106":     {},
	"gpt-3.5-turbo-0125":     {},
	"gpt-3.5-turbo-16k":      {},
	"gpt-3.5-turbo-16k-0613": {},
	"gpt-4":                  {},
	"gpt-4-0314":             {},
	"gpt-4-0613":             {},
	"gpt-4-32k":              {},
	"gpt-4-32k-0314":         {},
	"gpt-4-32k-0613":         {},
	"gpt-4-1106-preview":     {},
	"gpt-4-0125-preview":     {},
	"gpt-4-turbo":            {},
	"gpt-4-turbo-preview":    {},
	"gpt-4-turbo-2024-04-09": {},
	"gpt-4-vision-preview":   {},
	"gpt-4o":                 {},
	"gpt-4o-2024-05-13":      {},
	"gpt-4o-2024-08-06":      {},
	"gpt-4o-2024-11-20":      {},
	"gpt-4o-mini":            {},
	"gpt-4o-mini-2024-07-18": {},
	"chatgpt-4o-latest":      {},
	"o1-mini":                {},
	"o1-preview":             {},
}

// New validates cfg, applies defaults and builds the client.
func New(cfg Config) (*OpenAIClient, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Mode == "" {
		cfg.Mode = DefaultMode
	}
	if cfg.Mode != ModeChat && cfg.Mode != ModeCompletion {
		return nil, fmt.Errorf(errorUnknownModeFormat, ErrUnknownMode, cfg.Mode)
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = DefaultModelFor(cfg.Mode)
	}
	if cfg.Mode == ModeCompletion && isChatOnlyModel(cfg.Model) {
		return nil, fmt.Errorf(errorChatOnlyFormat, ErrChatOnlyModel, cfg.Model)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	} else {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIClient{api: openai.NewClientWithConfig(clientConfig), config: cfg}, nil
}

// Mode reports the endpoint this client posts to.
func (client *OpenAIClient) Mode() Mode {
	return client.config.Mode
}

// Model reports the default model of this client.
func (client *OpenAIClient) Model() string {
	return client.config.Model
}

// Complete sends one prompt and returns the first choice. No retry is attempted.
func (client *OpenAIClient) Complete(ctx context.Context, request Request) (Response, error) {
	if strings.TrimSpace(request.Prompt) == "" {
		return Response{}, ErrEmptyPrompt
	}
	if request.Model == "" {
		request.Model = client.config.Model
	}
	if request.MaxTokens <= 0 {
		request.MaxTokens = client.config.MaxTokens
	}
	if request.Temperature == 0 {
		request.Temperature = client.config.Temperature
	}

	if client.config.Mode == ModeCompletion {
		return client.completeText(ctx, request)
	}
	return client.completeChat(ctx, request)
}

func (client *OpenAIClient) completeChat(ctx context.Context, request Request) (Response, error) {
	chatRequest := openai.ChatCompletionRequest{
		Model: request.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: request.Prompt},
		},
		N:    1,
		User: request.User,
	}
	if isReasoningModel(request.Model) {
		chatRequest.MaxCompletionTokens = request.MaxTokens
	} else {
		chatRequest.MaxTokens = request.MaxTokens
		chatRequest.Temperature = wireTemperature(request.Temperature)
	}

	chatResponse, requestError := client.api.CreateChatCompletion(ctx, chatRequest)
	if requestError != nil {
		return Response{}, translateError(requestError)
	}
	if len(chatResponse.Choices) == 0 {
		return Response{}, ErrEmptyCompletion
	}
	choice := chatResponse.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return Response{}, ErrEmptyCompletion
	}
	return Response{
		Text:             choice.Message.Content,
		Model:            chatResponse.Model,
		FinishReason:     string(choice.FinishReason),
		Truncated:        choice.FinishReason == openai.FinishReasonLength,
		PromptTokens:     chatResponse.Usage.PromptTokens,
		CompletionTokens: chatResponse.Usage.CompletionTokens,
	}, nil
}

func (client *OpenAIClient) completeText(ctx context.Context, request Request) (Response, error) {
	textRequest := openai.CompletionRequest{
		Model:       request.Model,
		Prompt:      request.Prompt,
		MaxTokens:   request.MaxTokens,
		Temperature: wireTemperature(request.Temperature),
		N:           1,
		User:        request.User,
	}

	if isChatOnlyModel(request.Model) {
		return Response{}, fmt.Errorf(errorChatOnlyFormat, ErrChatOnlyModel, request.Model)
	}

	textResponse, requestError := client.api.CreateCompletion(ctx, textRequest)
	if errors.Is(requestError, openai.ErrCompletionUnsupportedModel) {
		return Response{}, fmt.Errorf(errorChatOnlyFormat, ErrChatOnlyModel, request.Model)
	}
	if requestError != nil {
		return Response{}, translateError(requestError)
	}
	if len(textResponse.Choices) == 0 {
		return Response{}, ErrEmptyCompletion
	}
	choice := textResponse.Choices[0]
	if strings.TrimSpace(choice.Text) == "" {
		return Response{}, ErrEmptyCompletion
	}
	return Response{
		Text:             choice.Text,
		Model:            textResponse.Model,
		FinishReason:     choice.FinishReason,
		Truncated:        choice.FinishReason == string(openai.FinishReasonLength),
		PromptTokens:     textResponse.Usage.PromptTokens,
		CompletionTokens: textResponse.Usage.CompletionTokens,
	}, nil
}

// wireTemperature keeps an explicit zero from being dropped by omitempty.
func wireTemperature(temperature float32) float32 {
	if temperature == 0 {
		return math.SmallestNonzeroFloat32
	}
	return temperature
}

func isChatOnlyModel(model string) bool {
	_, chatOnly := chatOnlyModels[model]
	return chatOnly
}

func isReasoningModel(model string) bool {
	lowerModel := strings.ToLower(model)
	for _, prefix := range reasoningModelPrefixes {
		if strings.HasPrefix(lowerModel, prefix) {
			return true
		}
	}
	return false
}

var _ Client = (*OpenAIClient)(nil)
