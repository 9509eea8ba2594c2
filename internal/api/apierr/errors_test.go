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

	"github.com/mcoot/rpsduel/internal/model"
)

func TestWriteErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"player not found", model.ErrPlayerNotFound, http.StatusNotFound, CodePlayerNotFound},
		{"match not found", model.ErrMatchNotFound, http.StatusNotFound, CodeMatchNotFound},
		{"match finished", model.ErrMatchFinished, http.StatusGone, CodeMatchFinished},
		{"bad name", model.ErrNameInvalid, http.StatusBadRequest, CodeInvalidRequest},
		{"wrapped history error", fmt.Errorf("%w: redis down", model.ErrHistoryUnavailable), http.StatusServiceUnavailable, CodeHistoryUnavailable},
		{"explicit invalid request", NewInvalidRequestError("nope"), http.StatusBadRequest, CodeInvalidRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestUnknownErrorsDoNotLeakDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("dial tcp 10.0.0.1:6379: connection refused"))
	assert.NotContains(t, rr.Body.String(), "10.0.0.1")
}
