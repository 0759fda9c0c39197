package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/services/auth"
)

func TestWriteErrorRuleViolationKeepsMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, model.PointBlockedAt(7))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, CodePointBlocked, resp.Error.Code)
	assert.Equal(t, "point is blocked by opponent (point 7)", resp.Error.Message)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{model.ErrMatchNotFound, http.StatusNotFound},
		{model.ErrNotYourTurn, http.StatusForbidden},
		{model.ErrAlreadyRolled, http.StatusConflict},
		{model.ErrInvalidPoint, http.StatusBadRequest},
		{model.NoValidDieFor(4), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: genius", model.ErrUnknownBotStrategy), http.StatusBadRequest},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrWeakPassword, http.StatusBadRequest},
		{NewInvalidRequestError("bad"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, Status(tc.err), tc.err.Error())
	}
}

func TestStorageFailureTakesPrecedence(t *testing.T) {
	err := model.StorageFailure("get match", model.ErrMatchNotFound)

	rr := httptest.NewRecorder()
	WriteError(rr, err)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, CodeStorageUnavailable, resp.Error.Code)
}

func TestInternalErrorHidesDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("connection string leaked"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, CodeInternalError, resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "leaked")
}
