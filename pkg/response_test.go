package pkg

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: playlist 7", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: retry in 3s", ErrRateLimited), http.StatusTooManyRequests},
		{ErrAlreadyExists, http.StatusConflict},
		{fmt.Errorf("%w: name is required", ErrBadRequest), http.StatusBadRequest},
		{ErrInternal, http.StatusInternalServerError},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, tt.err)

			assert.Equal(t, tt.want, rec.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestJSON_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]int{"id": 3})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"id":3}}`, rec.Body.String())
}

func TestRaw(t *testing.T) {
	rec := httptest.NewRecorder()
	Raw(rec, http.StatusOK, "audio/x-mpegurl", "mix.m3u8", []byte("#EXTM3U\n"))

	assert.Equal(t, "audio/x-mpegurl", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="mix.m3u8"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "#EXTM3U\n", rec.Body.String())
}
