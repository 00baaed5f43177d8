package page

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServePage(t *testing.T) {
	resp := httptest.NewRecorder()
	New().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Body.String(), `fetch("/chat"`)
}

func TestHeadHasNoBody(t *testing.T) {
	resp := httptest.NewRecorder()
	New().ServeHTTP(resp, httptest.NewRequest(http.MethodHead, "/", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, resp.Body.String())
}
