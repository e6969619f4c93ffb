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
	StatusCode  int    // HTTP status, when the error came from the board server
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

// Short is the single-line form used in the board's status line.
func (e *UserError) Short() string {
	title := strings.TrimSpace(strings.TrimPrefix(e.Title, "❌"))
	if e.Message == "" {
		return title
	}
	if title == "" {
		return e.Message
	}
	return title + ": " + e.Message
}

// Common error constructors with built-in remediation

func NewServerConnectionError(err error) *UserError {
	errStr := err.Error()
	var remediation string

	switch {
	case strings.Contains(errStr, "connection refused"):
		remediation = "Start the board server with: kanban serve"
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "no such host"):
		remediation = "Check server_url in your config. Run: kanban config doctor"
	default:
		remediation = "Run: kanban config doctor to diagnose the issue"
	}

	return &UserError{
		Title:       "❌ Board Server Unreachable",
		Message:     "Failed to reach the board server. " + errStr,
		Remediation: remediation,
		Cause:       err,
	}
}

func NewConfigError(operation string, err error) *UserError {
	var remediation string
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "permission denied"):
		remediation = "Check file permissions. Run: chmod 644 ~/.config/kanban/config.toml"
	case strings.Contains(errStr, "no such file"):
		remediation = "Run: kanban setup to create a configuration file"
	case strings.Contains(errStr, "decode") || strings.Contains(errStr, "parse"):
		remediation = "Configuration file format is invalid. Run: kanban config doctor"
	default:
		remediation = "Run: kanban config doctor to diagnose configuration issues"
	}

	return &UserError{
		Title:       "❌ Configuration Error",
		Message:     fmt.Sprintf("Failed to %s configuration: %s", operation, errStr),
		Remediation: remediation,
		Cause:       err,
	}
}

// NewCommitError reports a card move that was rolled back.
func NewCommitError(cardID int64, err error) *UserError {
	return &UserError{
		Title:       "❌ Move Not Saved",
		Message:     fmt.Sprintf("Card %d was returned to its list: %v", cardID, err),
		Remediation: "Press r to refresh the board, then try again",
		StatusCode:  StatusOf(err),
		Cause:       err,
	}
}

func NewInvalidInputError(field, reason string) *UserError {
	return &UserError{
		Title:       "❌ Invalid Input",
		Message:     fmt.Sprintf("%s %s.", field, reason),
		Remediation: "Check the value and try again",
		StatusCode:  400,
	}
}

func NewHttpError(statusCode int, body string) *UserError {
	var title, remediation string

	switch {
	case statusCode == 400:
		title = "❌ Request Rejected"
		remediation = "The server rejected the request. Run: kanban --verbose to see detailed logs"
	case statusCode == 401:
		title = "❌ Authentication Failed"
		remediation = "Check your username and password. Run: kanban user login"
	case statusCode == 404:
		title = "❌ Resource Not Found"
		remediation = "The card or list no longer exists. Press r to refresh the board"
	case statusCode >= 500:
		title = "❌ Server Error"
		remediation = "The board server is experiencing issues. Check the serve logs"
	default:
		title = "❌ HTTP Error"
		remediation = "An unexpected HTTP error occurred. Run: kanban --verbose to see detailed logs"
	}

	return &UserError{
		Title:       title,
		Message:     fmt.Sprintf("HTTP %d: %s", statusCode, body),
		Remediation: remediation,
		StatusCode:  statusCode,
		Cause:       nil,
	}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var userErr *UserError
	if stderrors.As(err, &userErr) {
		return userErr.StatusCode
	}
	return 0
}

// Helper function to wrap existing errors with better messaging
func WrapWithContext(err error, context string) error {
	if userErr, ok := err.(*UserError); ok {
		// Already a user error, just return it
		return userErr
	}

	errStr := err.Error()

	switch context {
	case "server_connection":
		return NewServerConnectionError(err)
	case "config_load", "config_save":
		return NewConfigError(strings.TrimPrefix(context, "config_"), err)
	default:
		// Generic wrapper that at least adds some structure
		return &UserError{
			Title:       "❌ Error",
			Message:     errStr,
			Remediation: "Run with --verbose flag for more details",
			Cause:       err,
		}
	}
}
