package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{fmt.Errorf("%w: clinic c1", ErrNotFound), http.StatusNotFound, "resource not found: clinic c1"},
		{fmt.Errorf("%w: amount", ErrValidation), http.StatusBadRequest, "validation failed: amount"},
		{fmt.Errorf("%w: method", ErrUnprocessable), http.StatusUnprocessableEntity, "unprocessable: method"},
		{errors.New("pq: password authentication failed"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code)
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.status, body.Status)
		assert.Equal(t, tc.detail, body.Detail)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Amount float64 `json:"amount"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":5,"extra":1}`))
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":5}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, 5.0, target.Amount)
}
