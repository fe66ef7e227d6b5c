package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated is returned when no valid session token is present.
	ErrUnauthenticated = errors.New("authentication invalid")
	// ErrUnauthorized is returned when the caller's role is not allowed.
	ErrUnauthorized = errors.New("unauthorized to access this route")
	// ErrArtworkNotFound is returned when no artwork matches the given id.
	ErrArtworkNotFound = errors.New("artwork not found")
	// ErrUserNotFound is returned when no user matches the given id.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering with an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrDemoReadOnly is returned when the demo account attempts a write.
	ErrDemoReadOnly = errors.New("demo user: read only")
	// ErrAvatarUpload is returned when the media host rejects a new image.
	ErrAvatarUpload = errors.New("failed to upload the new avatar")
	// ErrValidation is returned for malformed fields or oversized uploads.
	ErrValidation = errors.New("invalid input")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusForbidden, ErrUnauthorized.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrArtworkNotFound):
		return NewHTTPError(http.StatusNotFound, ErrArtworkNotFound.Error(), "ARTWORK_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, ErrEmailTaken.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrDemoReadOnly):
		return NewHTTPError(http.StatusForbidden, ErrDemoReadOnly.Error(), "DEMO_READ_ONLY")
	case errors.Is(err, ErrAvatarUpload):
		return NewHTTPError(http.StatusInternalServerError, "Failed to upload the new avatar. Please try again later.", "AVATAR_UPLOAD_FAILED")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_FAILED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
