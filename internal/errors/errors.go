package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeValidation     ErrorType = "VALIDATION"
	TypeAuthentication ErrorType = "AUTHENTICATION"
	TypeConnection     ErrorType = "CONNECTION"
	TypeTimeout        ErrorType = "TIMEOUT"
	TypeNotFound       ErrorType = "NOT_FOUND"
	TypeProvider       ErrorType = "PROVIDER"
	TypeConfiguration  ErrorType = "CONFIGURATION"
	TypeRateLimit      ErrorType = "RATE_LIMIT"
	TypeMethod         ErrorType = "METHOD_NOT_ALLOWED"
	TypeInternal       ErrorType = "INTERNAL"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Code       string
	Message    string
	Context    map[string]interface{}
	Fields     []FieldError
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if stderr, ok := e.Context["stderr"].(string); ok && stderr != "" {
			msg += fmt.Sprintf(" - %s", stderr)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same type and code, so sentinels
// still match the copies produced by WithError, WithMessage and friends.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) clone() *AppError {
	return &AppError{
		Type:       e.Type,
		Code:       e.Code,
		Message:    e.Message,
		Context:    e.Context,
		Fields:     e.Fields,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	c := e.clone()
	c.Err = err
	return c
}

// WithMessage creates a new AppError with a different human message but the same
// type and code.
func (e *AppError) WithMessage(msg string) *AppError {
	c := e.clone()
	c.Message = msg
	return c
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	c := e.clone()
	c.Context = ctx
	return c
}

// WithFields attaches field level validation details.
func (e *AppError) WithFields(fields ...FieldError) *AppError {
	c := e.clone()
	c.Fields = append(append([]FieldError{}, e.Fields...), fields...)
	return c
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	c := e.clone()
	c.Suggestion = suggestion
	return c
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Code:    defaultCode(t),
		Message: msg,
		Err:     err,
	}
}

func newCoded(t ErrorType, code, msg string) *AppError {
	return &AppError{Type: t, Code: code, Message: msg}
}

func defaultCode(t ErrorType) string {
	switch t {
	case TypeValidation:
		return "VALIDATION_ERROR"
	case TypeAuthentication:
		return "SVN_AUTHENTICATION_ERROR"
	case TypeConnection:
		return "SVN_CONNECTION_ERROR"
	case TypeTimeout:
		return "SVN_TIMEOUT_ERROR"
	case TypeNotFound:
		return "NOT_FOUND"
	case TypeProvider:
		return "PROVIDER_ERROR"
	case TypeConfiguration:
		return "CONFIGURATION_ERROR"
	case TypeRateLimit:
		return "RATE_LIMITED"
	case TypeMethod:
		return "METHOD_NOT_ALLOWED"
	default:
		return "INTERNAL_ERROR"
	}
}

// As extracts the AppError from err, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// TypeOf returns the ErrorType of err or TypeInternal when err is not an AppError.
func TypeOf(err error) ErrorType {
	if appErr, ok := As(err); ok {
		return appErr.Type
	}
	return TypeInternal
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeAuthentication:
		return http.StatusUnauthorized
	case TypeNotFound:
		return http.StatusNotFound
	case TypeTimeout:
		return http.StatusGatewayTimeout
	case TypeConnection:
		return http.StatusServiceUnavailable
	case TypeRateLimit:
		return http.StatusTooManyRequests
	case TypeMethod:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// SVN adapter errors
var (
	ErrSVNAuthentication = newCoded(TypeAuthentication, "SVN_AUTHENTICATION_ERROR", "SVN authentication failed").
				WithSuggestion("Check svn.username and svn.password in the configuration")

	ErrSVNConnection = newCoded(TypeConnection, "SVN_CONNECTION_ERROR", "SVN connection failed").
				WithSuggestion("Verify svn.url is reachable: svn info <url>")

	ErrSVNTimeout = newCoded(TypeTimeout, "SVN_TIMEOUT_ERROR", "SVN operation timed out").
			WithSuggestion("Increase svn.timeout_ms or narrow the revision range")

	ErrSVNNotFound = newCoded(TypeNotFound, "SVN_NOT_FOUND", "Requested resource not found")

	ErrCommitNotFound = newCoded(TypeNotFound, "COMMIT_NOT_FOUND", "Commit not found")

	ErrInvalidPayload = newCoded(TypeInternal, "SVN_ERROR", "Unexpected svn output")
)

// Review errors
var (
	ErrNoCommitsFound = newCoded(TypeNotFound, "NO_COMMITS_FOUND", "No commits found for the provided IDs")

	ErrSessionNotFound = newCoded(TypeNotFound, "REVIEW_NOT_FOUND", "Review session not found")

	ErrRuleNotFound = newCoded(TypeNotFound, "RULE_NOT_FOUND", "Review rule not found")

	ErrPromptNotFound = newCoded(TypeNotFound, "PROMPT_NOT_FOUND", "System prompt not found")

	ErrDuplicateName = newCoded(TypeValidation, "DUPLICATE_NAME", "Name already exists")
)

// AI provider errors
var (
	ErrProviderRequest = newCoded(TypeProvider, "PROVIDER_ERROR", "AI request failed")

	ErrProviderTimeout = newCoded(TypeProvider, "PROVIDER_TIMEOUT", "AI request timed out")

	ErrProviderEmptyResponse = newCoded(TypeProvider, "PROVIDER_EMPTY_RESPONSE", "No response from AI provider")

	ErrMockProviderFailure = newCoded(TypeProvider, "MOCK_PROVIDER_FAILURE", "Mock AI provider failure")

	ErrUnknownProvider = newCoded(TypeConfiguration, "UNKNOWN_PROVIDER", "Unknown AI provider")
)

// Configuration errors
var (
	ErrAPIKeyMissing = newCoded(TypeConfiguration, "API_KEY_MISSING", "AI API key is missing").
				WithSuggestion("Set ai.api_key in the config file or SVNREVIEW_AI_API_KEY")

	ErrRepositoryURLMissing = newCoded(TypeConfiguration, "SVN_URL_MISSING", "SVN repository URL is missing").
				WithSuggestion("Set svn.url in the config file or SVNREVIEW_SVN_URL")

	ErrConfigInvalid = newCoded(TypeConfiguration, "CONFIGURATION_ERROR", "Configuration is invalid")
)

// Request errors
var (
	ErrValidation = newCoded(TypeValidation, "VALIDATION_ERROR", "Validation error")

	ErrRateLimited = newCoded(TypeRateLimit, "RATE_LIMITED", "Too many requests")

	ErrMethodNotAllowed = newCoded(TypeMethod, "METHOD_NOT_ALLOWED", "Method not allowed")
)

// Message returns the human readable part of err, without the type prefix AppError
// adds in Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	appErr, ok := As(err)
	if !ok {
		return err.Error()
	}
	if appErr.Err != nil {
		return fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
	}
	return appErr.Message
}
