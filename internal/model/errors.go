package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind string

const (
	KindTransport Kind = "transport"
	KindProvider  Kind = "provider"
	KindEmpty     Kind = "empty_response"
)

// Error is a failure reaching the model or a failure the model reported.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Code != "":
		return fmt.Sprintf("model %s error %d %s: %s", e.Kind, e.Status, e.Code, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("model %s error %d: %s", e.Kind, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("model %s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("model %s error: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTransport:
		return true
	case KindProvider:
		switch e.Status {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

func (e *Error) Quota() bool {
	return e.Status == http.StatusTooManyRequests || e.Code == "RESOURCE_EXHAUSTED"
}

func (e *Error) Auth() bool {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return true
	}
	switch e.Code {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "api key")
}

// UserMessage is the chat-visible text for a failed request.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The model took too long to answer. Please try again."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled before the model answered."
	}
	var modelErr *Error
	if !errors.As(err, &modelErr) {
		return "Something went wrong talking to the model. Please try again."
	}
	switch {
	case modelErr.Kind == KindTransport:
		return "I couldn't reach the model. Check your connection and try again."
	case modelErr.Kind == KindEmpty:
		return "The model returned an empty answer. Can you rephrase that?"
	case modelErr.Quota():
		return "The model is out of quota right now. Try again in a little while."
	case modelErr.Auth():
		return "The model rejected the API key. Check your settings."
	default:
		return fmt.Sprintf("The model reported an error: %s", modelErr.Message)
	}
}

func isRetryable(err error) bool {
	var modelErr *Error
	if errors.As(err, &modelErr) {
		return modelErr.Retryable()
	}
	return false
}
