package failure

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil", nil, ""},
		{"validation", Validation("name too long"), KindValidation},
		{"not found", NotFound("application not found"), KindNotFound},
		{"transport", Transport(errors.New("dial tcp: connection refused")), KindTransport},
		{"wrapped validation", fmt.Errorf("failed to update: %w", Validation("bad")), KindValidation},
		{"plain error", errors.New("boom"), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "name too long", UserMessage(Validation("name too long")))
	assert.Equal(t, "application not found", UserMessage(NotFound("application not found")))
	assert.Equal(t, TransportMessage, UserMessage(Transport(errors.New("dial tcp 10.0.0.1:443: i/o timeout"))))
	assert.Equal(t, TransportMessage, UserMessage(errors.New("unexpected EOF")))
}

func TestUserMessage_ServerFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server error", Transport(errors.New("API returned status 500: database is locked")), ServerMessage},
		{"unauthorized", Transport(errors.New("API returned status 401: invalid API key")), ServerMessage},
		{"bad payload", Transport(errors.New("failed to decode response: invalid character")), ServerMessage},
		{"refused", Transport(errors.New("dial tcp 127.0.0.1:8080: connection refused")), TransportMessage},
		{"timeout", Transport(&url.Error{Op: "Get", URL: "http://appsd", Err: errors.New("deadline")}), TransportMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UserMessage(tt.err)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "database")
			assert.NotContains(t, got, "API key")
			assert.Equal(t, KindTransport, KindOf(tt.err))
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transport(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transport: connection reset", err.Error())
	assert.Equal(t, "validation: bad name", Validation("bad name").Error())
}

func TestIsNetworkError(t *testing.T) {
	assert.True(t, IsNetworkError(errors.New("Get \"http://x\": dial tcp: connection refused")))
	assert.True(t, IsNetworkError(errors.New("context deadline exceeded (Client.Timeout exceeded while awaiting headers)")))
	assert.False(t, IsNetworkError(errors.New("name too long")))
	assert.False(t, IsNetworkError(nil))
}
