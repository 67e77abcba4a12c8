package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// UserError represents an error with user-friendly messaging and remediation hints
type UserError struct {
	Title       string // Brief title of the error
	Message     string // Detailed error message
	Remediation string // What the user can do to fix it
	Cause       error  // Underlying error, if any
}

func (e *UserError) Error() string {
	var parts []string

	if e.Title != "" {
		parts = append(parts, e.Title)
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Remediation != "" {
		parts = append(parts, fmt.Sprintf("💡 %s", e.Remediation))
	}

	return strings.Join(parts, "\n")
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

// Short is the one-line form used in the board footer.
func (e *UserError) Short() string {
	title := strings.TrimSpace(strings.TrimPrefix(e.Title, "❌"))
	if e.Message == "" {
		return title
	}
	msg := e.Message
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return title + ": " + msg
}

// Short returns the one-line form of any error, unwrapping to a UserError
// when there is one.
func Short(err error) string {
	if err == nil {
		return ""
	}
	var userErr *UserError
	if stderrors.As(err, &userErr) {
		return userErr.Short()
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}

// Common error constructors with built-in remediation

func NewBackendConnectionError(baseURL string, err error) *UserError {
	errStr := err.Error()
	var remediation string

	switch {
	case strings.Contains(errStr, "connection refused"):
		remediation = fmt.Sprintf("Is the board server running at %s? Start it, or set base_url with: cardboard config set base_url <url>", baseURL)
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded"):
		remediation = "The board server is slow to answer. Raise request_timeout_seconds or run: cardboard config doctor"
	case strings.Contains(errStr, "no such host"):
		remediation = "Check the host in base_url. Run: cardboard config get base_url"
	default:
		remediation = "Run: cardboard config doctor to diagnose the issue"
	}

	return &UserError{
		Title:       "❌ Board Server Unreachable",
		Message:     fmt.Sprintf("Failed to reach %s. %s", baseURL, errStr),
		Remediation: remediation,
		Cause:       err,
	}
}

func NewConfigError(operation string, err error) *UserError {
	var remediation string
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "permission denied"):
		remediation = "Check file permissions. Run: chmod 644 ~/.config/cardboard/config.toml"
	case strings.Contains(errStr, "no such file"):
		remediation = "Run: cardboard setup to create a configuration file"
	case strings.Contains(errStr, "decode") || strings.Contains(errStr, "parse"):
		remediation = "Configuration file format is invalid. Run: cardboard config doctor"
	default:
		remediation = "Run: cardboard config doctor to diagnose configuration issues"
	}

	return &UserError{
		Title:       "❌ Configuration Error",
		Message:     fmt.Sprintf("Failed to %s configuration: %s", operation, errStr),
		Remediation: remediation,
		Cause:       err,
	}
}

func NewActionError(actionType string, err error) *UserError {
	return &UserError{
		Title:       "❌ Action Failed",
		Message:     fmt.Sprintf("The server rejected %s. %v", actionType, err),
		Remediation: "The board was refreshed from the server. Check the server log, or run with --verbose",
		Cause:       err,
	}
}

func NewFetchError(err error) *UserError {
	return &UserError{
		Title:       "❌ State Unavailable",
		Message:     fmt.Sprintf("Could not load the board state. %v", err),
		Remediation: "Waiting for the server; press r to retry or run: cardboard config doctor",
		Cause:       err,
	}
}

func NewInvalidActionError(actionType string, known []string) *UserError {
	return &UserError{
		Title:       "❌ Invalid Action",
		Message:     fmt.Sprintf("Action '%s' is not recognised.", actionType),
		Remediation: fmt.Sprintf("Known actions: %s", strings.Join(known, ", ")),
		Cause:       nil,
	}
}

func NewHttpError(statusCode int, body string) *UserError {
	var title, remediation string

	switch {
	case statusCode == 400 || statusCode == 422:
		title = "❌ Bad Request"
		remediation = "The server did not accept the request. Check the action payload with --verbose"
	case statusCode == 404:
		title = "❌ Resource Not Found"
		remediation = "The endpoint was not found. Check that base_url ends with the API path, e.g. /api"
	case statusCode >= 500:
		title = "❌ Server Error"
		remediation = "The board server is experiencing issues. Try again later"
	default:
		title = "❌ HTTP Error"
		remediation = "An unexpected HTTP error occurred. Run: cardboard --verbose to see detailed logs"
	}

	return &UserError{
		Title:       title,
		Message:     fmt.Sprintf("HTTP %d: %s", statusCode, body),
		Remediation: remediation,
		Cause:       nil,
	}
}

// Helper function to wrap existing errors with better messaging
func WrapWithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	if userErr, ok := err.(*UserError); ok {
		// Already a user error, just return it
		return userErr
	}

	switch context {
	case "fetch_state":
		return NewFetchError(err)
	case "config_load", "config_save":
		return NewConfigError(context, err)
	default:
		return &UserError{
			Title:       "❌ Error",
			Message:     err.Error(),
			Remediation: "Run with --verbose flag for more details",
			Cause:       err,
		}
	}
}
