package api

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestCheckResponse_Success(t *testing.T) {
	assert.NoError(t, CheckResponse(fakeResponse(http.StatusOK, "")))
	assert.NoError(t, CheckResponse(fakeResponse(http.StatusNoContent, "")))
}

func TestCheckResponse_ErrorEnvelope(t *testing.T) {
	resp := fakeResponse(http.StatusBadRequest, `{"Error":{"code":1033,"message":"Invalid symbol"}}`)

	err := CheckResponse(resp)

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusBadRequest, upErr.StatusCode)
	assert.Equal(t, 1033, upErr.Code)
	assert.Equal(t, "Invalid symbol", upErr.Message)
	assert.Contains(t, upErr.Error(), "Invalid symbol")
}

func TestCheckResponse_NonJSONBody(t *testing.T) {
	resp := fakeResponse(http.StatusInternalServerError, "<html>oops</html>")

	err := CheckResponse(resp)

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusInternalServerError, upErr.StatusCode)
	assert.Equal(t, 0, upErr.Code)
	assert.Contains(t, upErr.Error(), "Internal Server Error")
}

func TestUpstreamError_StatusHelpers(t *testing.T) {
	assert.True(t, (&UpstreamError{StatusCode: http.StatusUnauthorized}).IsUnauthorized())
	assert.False(t, (&UpstreamError{StatusCode: http.StatusForbidden}).IsUnauthorized())
	assert.True(t, (&UpstreamError{StatusCode: http.StatusNotFound}).IsNotFound())
	assert.False(t, (&UpstreamError{StatusCode: http.StatusOK}).IsNotFound())
}

func TestDecodeJSON_Malformed(t *testing.T) {
	resp := fakeResponse(http.StatusOK, "not json")

	var target struct{}
	err := DecodeJSON(resp, &target)

	var protoErr *UpstreamProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation: symbol is required", (&ValidationError{Msg: "symbol is required"}).Error())
	assert.Equal(t, "precondition: not authenticated", (&PreconditionError{Msg: "not authenticated"}).Error())
	assert.Equal(t, "order 42 not found", (&NotFoundError{Resource: "order 42"}).Error())
	assert.Equal(t, "broker protocol: no preview id in response", (&UpstreamProtocolError{Msg: "no preview id in response"}).Error())
}
