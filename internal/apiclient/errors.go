package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("Sin autenticación")
	ErrSessionExpired  = errors.New("Sesión expirada")
)

// ServerError is a non-2xx answer other than 401.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// AuthError is a failed login.
type AuthError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (e *AuthError) Error() string {
	return e.Message
}

// backendMessage pulls "message" out of an error body. The backend sends
// either a string or a list of validation messages.
func backendMessage(body []byte) (string, bool) {
	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Message) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(envelope.Message, &s); err == nil {
		return s, true
	}
	var list []string
	if err := json.Unmarshal(envelope.Message, &list); err == nil && len(list) > 0 {
		return list[0], true
	}
	return "", false
}

func newServerError(status int, body []byte) *ServerError {
	msg, ok := backendMessage(body)
	if !ok {
		msg = fmt.Sprintf("Error del servidor (%d)", status)
	}
	return &ServerError{Status: status, Message: msg}
}
