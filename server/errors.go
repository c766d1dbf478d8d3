// Package server is the HTTP surface: REST routes for accounts,
// conversations and administration, plus the websocket upgrade endpoint.
package server

import (
	goerrors "errors"
	"net/http"

	"chat-hub/errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// statusOf maps domain errors onto HTTP status codes. Anything unmapped is
// an internal error and the payload hides the detail.
func statusOf(err error) int {
	var validation validator.ValidationErrors
	if goerrors.As(err, &validation) {
		return http.StatusBadRequest
	}

	switch {
	case goerrors.Is(err, errors.ErrUnauthenticated),
		goerrors.Is(err, errors.ErrInvalidCredentials),
		goerrors.Is(err, errors.ErrInvalidAdminKey):
		return http.StatusUnauthorized
	case goerrors.Is(err, errors.ErrNotChatCreator),
		goerrors.Is(err, errors.ErrNotChatMember),
		goerrors.Is(err, errors.ErrNotRequestTarget):
		return http.StatusForbidden
	case goerrors.Is(err, errors.ErrUserNotFound),
		goerrors.Is(err, errors.ErrChatNotFound),
		goerrors.Is(err, errors.ErrRequestNotFound):
		return http.StatusNotFound
	case goerrors.Is(err, errors.ErrUserAlreadyExists),
		goerrors.Is(err, errors.ErrRequestExists):
		return http.StatusConflict
	case goerrors.Is(err, errors.ErrInvalidPassword),
		goerrors.Is(err, errors.ErrNotGroupChat),
		goerrors.Is(err, errors.ErrGroupTooSmall),
		goerrors.Is(err, errors.ErrGroupLimit),
		goerrors.Is(err, errors.ErrNoAttachments),
		goerrors.Is(err, errors.ErrTooManyAttachments),
		goerrors.Is(err, errors.ErrInvalidDisplayLimit),
		goerrors.Is(err, errors.ErrMalformedFrame):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := statusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "something went wrong"
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
