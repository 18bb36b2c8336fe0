package httputil

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

	"slidegenie/internal/domain"
)

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"typed not found", &domain.NotFoundError{Message: "slide 9 not found"}, http.StatusNotFound, "slide 9 not found"},
		{"wrapped validation", fmt.Errorf("key: %w", &domain.ValidationError{Message: "unknown key"}), http.StatusBadRequest, "key: unknown key"},
		{"sentinel forbidden", domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondDomainError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			var p ProblemDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantDetail, p.Detail)
			assert.Equal(t, http.StatusText(tt.wantStatus), p.Title)
		})
	}
}

func TestRespondJSONEncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParseJSON(t *testing.T) {
	var dest struct{ Key string }
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"key":"Home"}`))
	require.NoError(t, ParseJSON(httptest.NewRecorder(), req, &dest))
	assert.Equal(t, "Home", dest.Key)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, ParseJSON(httptest.NewRecorder(), req, &dest))
}
