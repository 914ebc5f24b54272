package completion

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrEmptyCompletion is returned when the service answers without usable text.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrUnknownMode is returned for modes other than chat and completion.
	ErrUnknownMode = errors.New("unknown completion mode")
	// ErrEmptyPrompt is returned when the request carries no prompt text.
	ErrEmptyPrompt = errors.New("empty prompt")
	// ErrChatOnlyModel is returned when a chat-only model is used in ModeCompletion.
	ErrChatOnlyModel = errors.New("model is only served by the chat endpoint, use mode chat")
)

const (
	serviceErrorFormat       = "completion service returned %d"
	serviceErrorDetailFormat = "completion service returned %d (%s): %s"
	errorRequestFailedFormat = "completion request failed: %w"
	errorUnknownModeFormat   = "%w: %q"
	errorChatOnlyFormat      = "%w: %q"
	unknownServiceErrorType  = "unknown"
)

// ServiceError describes a non-success answer from the completion service.
type ServiceError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (serviceError *ServiceError) Error() string {
	if serviceError.Message == "" {
		return fmt.Sprintf(serviceErrorFormat, serviceError.StatusCode)
	}
	errorType := serviceError.Type
	if errorType == "" {
		errorType = unknownServiceErrorType
	}
	return fmt.Sprintf(serviceErrorDetailFormat, serviceError.StatusCode, errorType, serviceError.Message)
}

// translateError maps client library errors onto ServiceError. Transport and
// context failures stay wrapped so errors.Is keeps working.
func translateError(requestError error) error {
	var apiError *openai.APIError
	if errors.As(requestError, &apiError) {
		serviceError := &ServiceError{
			StatusCode: apiError.HTTPStatusCode,
			Type:       apiError.Type,
			Message:    apiError.Message,
		}
		if apiError.Code != nil {
			serviceError.Code = fmt.Sprint(apiError.Code)
		}
		return serviceError
	}

	var rawError *openai.RequestError
	if errors.As(requestError, &rawError) && rawError.HTTPStatusCode != 0 {
		return &ServiceError{
			StatusCode: rawError.HTTPStatusCode,
			Message:    http.StatusText(rawError.HTTPStatusCode),
		}
	}

	return fmt.Errorf(errorRequestFailedFormat, requestError)
}
