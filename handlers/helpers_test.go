package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-scheduler/repositories"
	"github.com/Dosada05/tournament-scheduler/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ErrInvalidScore, http.StatusBadRequest},
		{fmt.Errorf("loading: %w", repositories.ErrMatchNotFound), http.StatusNotFound},
		{services.ErrOrganizerOnly, http.StatusForbidden},
		{services.ErrDownstreamStarted, http.StatusConflict},
		{repositories.ErrConflictingUpdate, http.StatusConflict},
		{services.ErrUnschedulable, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Score string `json:"score"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"score":"3-1"}`, ""},
		{"empty", ``, "body must not be empty"},
		{"syntax", `{"score":`, "badly-formed JSON"},
		{"type", `{"score":3}`, `incorrect JSON type for field "score"`},
		{"unknown", `{"score":"3-1","court":2}`, "unknown key"},
		{"two values", `{"score":"3-1"}{"score":"1-3"}`, "single JSON value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst payload
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := readJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "3-1", dst.Score)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
