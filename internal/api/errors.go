package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ValidationError reports malformed or missing local input. Requests that
// fail validation are never sent upstream.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// PreconditionError reports an operation invoked in the wrong state, such
// as an unauthenticated session, no active account, or no pending preview.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string {
	return "precondition: " + e.Msg
}

// NotFoundError reports a resource the broker has no record of.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// UpstreamError represents a failure status returned by the broker.
type UpstreamError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != 0 {
		return fmt.Sprintf("broker error (%d, code %d): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("broker error (%d): %s", e.StatusCode, msg)
}

// IsUnauthorized returns true if the broker rejected our credentials.
func (e *UpstreamError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsNotFound returns true if the error is a 404 Not Found.
func (e *UpstreamError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// UpstreamProtocolError reports a broker response that was syntactically
// readable but missing a field the protocol requires, such as a preview
// response without a preview id.
type UpstreamProtocolError struct {
	Msg string
}

func (e *UpstreamProtocolError) Error() string {
	return "broker protocol: " + e.Msg
}

// errorResponse is the broker's error envelope:
//
//	{"Error": {"code": 1033, "message": "..."}}
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"Error"`
}

// CheckResponse inspects the HTTP response and returns a typed error for
// non-2xx statuses. The error body is parsed when the broker supplies its
// JSON error envelope; otherwise the status alone is reported.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	upErr := &UpstreamError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(resp.Body)
	if err == nil && len(body) > 0 {
		var envelope errorResponse
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil {
			upErr.Code = envelope.Error.Code
			upErr.Message = envelope.Error.Message
		}
	}

	return upErr
}

// DecodeJSON decodes a JSON response body into the given target.
func DecodeJSON(resp *http.Response, target interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &UpstreamProtocolError{Msg: fmt.Sprintf("failed to decode response: %v", err)}
	}
	return nil
}
