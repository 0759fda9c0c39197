package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidName        = "INVALID_NAME"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"

	CodeMatchNotFound      = "MATCH_NOT_FOUND"
	CodeMatchExists        = "MATCH_EXISTS"
	CodeMatchNotWaiting    = "MATCH_NOT_WAITING"
	CodeCannotJoinOwn      = "CANNOT_JOIN_OWN"
	CodeMatchNotPlaying    = "MATCH_NOT_PLAYING"
	CodeMatchFinished      = "MATCH_FINISHED"
	CodeNotMatchCreator    = "NOT_MATCH_CREATOR"
	CodeUnknownBotStrategy = "UNKNOWN_BOT_STRATEGY"

	CodeNotYourTurn         = "NOT_YOUR_TURN"
	CodeMustRollFirst       = "MUST_ROLL_FIRST"
	CodeAlreadyRolled       = "ALREADY_ROLLED"
	CodeNoMovesRemaining    = "NO_MOVES_REMAINING"
	CodeValidMovesAvailable = "VALID_MOVES_AVAILABLE"

	CodeInvalidPoint   = "INVALID_POINT"
	CodeNoCheckers     = "NO_CHECKERS"
	CodeCheckerPinned  = "CHECKER_PINNED"
	CodeWrongDirection = "WRONG_DIRECTION"
	CodeNoValidDie     = "NO_VALID_DIE"
	CodePointBlocked   = "POINT_BLOCKED"
	CodeOwnStackPinned = "OWN_STACK_PINNED"
	CodeNotAllHome     = "NOT_ALL_HOME"

	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// mapping ties a sentinel to its status and code. Rule violations carry
// the error text through as the message since it names the point or
// distance involved.
type mapping struct {
	target error
	status int
	code   string
}

var mappings = []mapping{
	{model.ErrPlayerNotFound, http.StatusNotFound, CodePlayerNotFound},
	{model.ErrMatchNotFound, http.StatusNotFound, CodeMatchNotFound},
	{model.ErrMatchExists, http.StatusConflict, CodeMatchExists},
	{model.ErrMatchNotWaiting, http.StatusConflict, CodeMatchNotWaiting},
	{model.ErrCannotJoinOwn, http.StatusConflict, CodeCannotJoinOwn},
	{model.ErrMatchNotPlaying, http.StatusConflict, CodeMatchNotPlaying},
	{model.ErrMatchFinished, http.StatusConflict, CodeMatchFinished},
	{model.ErrNotMatchCreator, http.StatusForbidden, CodeNotMatchCreator},
	{model.ErrUnknownBotStrategy, http.StatusBadRequest, CodeUnknownBotStrategy},

	{model.ErrNotYourTurn, http.StatusForbidden, CodeNotYourTurn},
	{model.ErrMustRollFirst, http.StatusConflict, CodeMustRollFirst},
	{model.ErrAlreadyRolled, http.StatusConflict, CodeAlreadyRolled},
	{model.ErrNoMovesRemaining, http.StatusConflict, CodeNoMovesRemaining},
	{model.ErrValidMovesAvailable, http.StatusConflict, CodeValidMovesAvailable},

	{model.ErrInvalidPoint, http.StatusBadRequest, CodeInvalidPoint},
	{model.ErrNoCheckers, http.StatusUnprocessableEntity, CodeNoCheckers},
	{model.ErrCheckerPinned, http.StatusUnprocessableEntity, CodeCheckerPinned},
	{model.ErrWrongDirection, http.StatusUnprocessableEntity, CodeWrongDirection},
	{model.ErrNoValidDie, http.StatusUnprocessableEntity, CodeNoValidDie},
	{model.ErrPointBlocked, http.StatusUnprocessableEntity, CodePointBlocked},
	{model.ErrOwnStackPinned, http.StatusUnprocessableEntity, CodeOwnStackPinned},
	{model.ErrNotAllHome, http.StatusUnprocessableEntity, CodeNotAllHome},

	{auth.ErrInvalidName, http.StatusBadRequest, CodeInvalidName},
	{auth.ErrWeakPassword, http.StatusBadRequest, CodeWeakPassword},
	{auth.ErrUsernameExists, http.StatusConflict, CodeUsernameExists},
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Storage failures can wrap anything, so they are checked before the
	// domain sentinels
	if errors.Is(err, model.ErrStorageUnavailable) {
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStorageUnavailable, "Storage temporarily unavailable"}}
	}

	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return &httpError{m.status, APIError{m.code, err.Error()}}
		}
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
