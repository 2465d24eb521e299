package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_ServesScript(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slidedeck.js", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "phx_join") {
		t.Error("script body missing join handshake")
	}
}

func TestFileNames(t *testing.T) {
	names := FileNames()
	if len(names) != 1 || names[0] != "slidedeck.js" {
		t.Errorf("FileNames() = %v", names)
	}
}
