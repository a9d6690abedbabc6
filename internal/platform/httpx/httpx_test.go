package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type titledErr struct{}

func (titledErr) Error() string        { return "Customer ACME is Hard Locked" }
func (titledErr) ProblemTitle() string { return "Customer Locked" }
func (titledErr) Unwrap() error        { return ErrUnprocessable }

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		title  string
	}{
		{fmt.Errorf("customer 9: %w", ErrNotFound), http.StatusNotFound, "Not Found"},
		{ErrForbidden, http.StatusForbidden, "Forbidden"},
		{titledErr{}, http.StatusUnprocessableEntity, "Customer Locked"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal Error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code)
		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.title, body.Title)
	}
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestBindReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","password":"x"}`))
	var dst loginReq
	err := Bind(req, &dst)
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "email", verr.Details["Email"])
	require.Equal(t, "min", verr.Details["Password"])

	rec := httptest.NewRecorder()
	RespondError(rec, err)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"errors"`)
}

func TestBindRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"12345678","x":1}`))
	var dst loginReq
	require.ErrorIs(t, Bind(req, &dst), ErrValidation)
}
