package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cimillas/agora-market/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestWriteServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"wrapped sentinel", fmt.Errorf("%w: bad json", domain.ErrInvalidInitArgs), http.StatusBadRequest, codeInvalidInitArgs},
		{"not authorized", domain.ErrNotAuthorized, http.StatusForbidden, codeNotAuthorized},
		{"unknown listing", domain.ErrUnknownListing, http.StatusNotFound, codeUnknownListing},
		{"partial fill", domain.ErrPartialFill, http.StatusUnprocessableEntity, codePartialFill},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, codeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestServiceErrors_CoverEveryCodeOnce(t *testing.T) {
	t.Parallel()

	seen := map[error]bool{}
	for _, m := range serviceErrors {
		assert.False(t, seen[m.err], "duplicate mapping for %v", m.err)
		seen[m.err] = true
	}
}
