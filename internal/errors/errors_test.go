package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestUserError_Error(t *testing.T) {
	tests := []struct {
		name     string
		userErr  *UserError
		expected []string // Substrings that should be present
	}{
		{
			name: "complete error with all fields",
			userErr: &UserError{
				Title:       "❌ Test Error",
				Message:     "Something went wrong",
				Remediation: "Try running the fix",
				Cause:       fmt.Errorf("underlying cause"),
			},
			expected: []string{"❌ Test Error", "Something went wrong", "💡 Try running the fix"},
		},
		{
			name: "error without title",
			userErr: &UserError{
				Message:     "Just a message",
				Remediation: "Just a fix",
			},
			expected: []string{"Just a message", "💡 Just a fix"},
		},
		{
			name: "error without remediation",
			userErr: &UserError{
				Title:   "❌ Simple Error",
				Message: "Something failed",
			},
			expected: []string{"❌ Simple Error", "Something failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.userErr.Error()
			for _, expected := range tt.expected {
				if !strings.Contains(result, expected) {
					t.Errorf("Expected error message to contain %q, but got: %s", expected, result)
				}
			}
		})
	}
}

func TestUserError_Short(t *testing.T) {
	err := &UserError{Title: "❌ Action Failed", Message: "first line\nsecond line"}
	if got := err.Short(); got != "Action Failed: first line" {
		t.Errorf("Short() = %q", got)
	}
	if got := (&UserError{Title: "❌ Only Title"}).Short(); got != "Only Title" {
		t.Errorf("Short() = %q", got)
	}
}

func TestShort(t *testing.T) {
	wrapped := fmt.Errorf("perform: %w", &UserError{Title: "❌ Action Failed", Message: "HTTP 500"})
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{wrapped, "Action Failed: HTTP 500"},
		{fmt.Errorf("plain\nmore"), "plain"},
	}
	for _, tt := range tests {
		if got := Short(tt.err); got != tt.want {
			t.Errorf("Short(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestNewBackendConnectionError(t *testing.T) {
	tests := []struct {
		name                string
		cause               error
		expectedRemediation string
	}{
		{
			name:                "server down",
			cause:               fmt.Errorf("dial tcp 127.0.0.1:8000: connect: connection refused"),
			expectedRemediation: "Is the board server running at http://localhost:8000/api",
		},
		{
			name:                "timeout",
			cause:               fmt.Errorf("context deadline exceeded"),
			expectedRemediation: "request_timeout_seconds",
		},
		{
			name:                "bad host",
			cause:               fmt.Errorf("dial tcp: lookup nope: no such host"),
			expectedRemediation: "Check the host in base_url",
		},
		{
			name:                "generic error",
			cause:               fmt.Errorf("some other error"),
			expectedRemediation: "cardboard config doctor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBackendConnectionError("http://localhost:8000/api", tt.cause)
			result := err.Error()

			if !strings.Contains(result, "❌ Board Server Unreachable") {
				t.Errorf("Expected error to contain title, got: %s", result)
			}
			if !strings.Contains(result, tt.expectedRemediation) {
				t.Errorf("Expected error to contain %q, got: %s", tt.expectedRemediation, result)
			}
			if err.Unwrap() != tt.cause {
				t.Errorf("Expected Unwrap() to return the cause")
			}
		})
	}
}

func TestNewActionError(t *testing.T) {
	cause := NewHttpError(500, "boom")
	err := NewActionError("DeleteCurrentCard", cause)

	result := err.Error()
	for _, part := range []string{"❌ Action Failed", "DeleteCurrentCard", "HTTP 500: boom", "refreshed from the server"} {
		if !strings.Contains(result, part) {
			t.Errorf("Expected error message to contain %q, but got: %s", part, result)
		}
	}
	if err.Unwrap() != cause {
		t.Errorf("Expected Unwrap() to return the cause")
	}
}

func TestNewInvalidActionError(t *testing.T) {
	err := NewInvalidActionError("Explode", []string{"NewCard", "Save"})

	result := err.Error()
	expectedParts := []string{
		"❌ Invalid Action",
		"Action 'Explode' is not recognised",
		"💡 Known actions: NewCard, Save",
	}
	for _, part := range expectedParts {
		if !strings.Contains(result, part) {
			t.Errorf("Expected error message to contain %q, but got: %s", part, result)
		}
	}
}

func TestNewHttpError(t *testing.T) {
	tests := []struct {
		statusCode          int
		expectedTitle       string
		expectedRemediation string
	}{
		{400, "❌ Bad Request", "Check the action payload"},
		{404, "❌ Resource Not Found", "base_url ends with the API path"},
		{500, "❌ Server Error", "board server is experiencing issues"},
		{418, "❌ HTTP Error", "An unexpected HTTP error occurred"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			err := NewHttpError(tt.statusCode, "test body")
			result := err.Error()

			if !strings.Contains(result, tt.expectedTitle) {
				t.Errorf("Expected error to contain %q, got: %s", tt.expectedTitle, result)
			}
			if !strings.Contains(result, tt.expectedRemediation) {
				t.Errorf("Expected error to contain %q, got: %s", tt.expectedRemediation, result)
			}
		})
	}
}

func TestWrapWithContext(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		expected string
	}{
		{
			name:     "fetch_state context",
			err:      fmt.Errorf("connection failed"),
			context:  "fetch_state",
			expected: "❌ State Unavailable",
		},
		{
			name:     "config_load context",
			err:      fmt.Errorf("file not found"),
			context:  "config_load",
			expected: "❌ Configuration Error",
		},
		{
			name:     "generic context",
			err:      fmt.Errorf("unknown error"),
			context:  "unknown",
			expected: "❌ Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapWithContext(tt.err, tt.context)
			result := wrapped.Error()

			if !strings.Contains(result, tt.expected) {
				t.Errorf("Expected wrapped error to contain %q, got: %s", tt.expected, result)
			}
		})
	}
}

func TestWrapWithContext_AlreadyUserError(t *testing.T) {
	original := NewFetchError(fmt.Errorf("down"))
	wrapped := WrapWithContext(original, "some_context")

	if wrapped != original {
		t.Error("Expected WrapWithContext to return the same UserError unchanged")
	}
	if WrapWithContext(nil, "fetch_state") != nil {
		t.Error("Expected nil error to stay nil")
	}
}
