package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/gabrielmiguelok/slidedeck/internal/config"
	"github.com/gabrielmiguelok/slidedeck/internal/site"
	"github.com/gabrielmiguelok/slidedeck/pkg/logging"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "home.md"), []byte("# Hello\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Site.ContentDir = dir
	cfg.Server.Security.AllowedOrigins = []string{"https://deck.example"}

	s := New(*cfg, logging.NopLogger{}, "test")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_Page(t *testing.T) {
	_, ts := newTestServer(t)

	resp := get(t, ts.URL+"/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(logging.RequestIDHeader) == "" {
		t.Error("response missing request id")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)

	for _, want := range []string{`id="lv-root"`, site.ClientScript, `<h1 id="hello">Hello</h1>`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %s", want)
		}
	}
}

func TestServer_Routes(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		path string
		code int
	}{
		{site.ClientScript, http.StatusOK},
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/api/sections", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if resp := get(t, ts.URL+tt.path, nil); resp.StatusCode != tt.code {
				t.Errorf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.code)
			}
		})
	}
}

func TestServer_ReadyzWithoutContent(t *testing.T) {
	cfg := config.Default()
	cfg.Site.ContentDir = filepath.Join(t.TempDir(), "missing")

	rec := httptest.NewRecorder()
	New(*cfg, nil, "test").Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestServer_Sections(t *testing.T) {
	_, ts := newTestServer(t)

	resp := get(t, ts.URL+"/api/sections", http.Header{"Origin": {"https://deck.example"}})
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://deck.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	var body sectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Default != "HOME" {
		t.Errorf("default = %q", body.Default)
	}

	var names []string
	for _, s := range body.Sections {
		names = append(names, s.Name)
	}
	want := "HOME ABOUT SERVICES WORKS BLOGS CONTACT"
	if strings.Join(names, " ") != want {
		t.Errorf("sections = %v", names)
	}
	if body.Sections[1].ID != "about" {
		t.Errorf("about id = %q", body.Sections[1].ID)
	}
}

func TestServer_CORSRejectsUnknownOrigin(t *testing.T) {
	_, ts := newTestServer(t)

	resp := get(t, ts.URL+"/api/sections", http.Header{"Origin": {"https://evil.example"}})
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Access-Control-Allow-Origin %q", got)
	}
}

func TestServer_LiveNavigation(t *testing.T) {
	s, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	write := func(frame string) {
		t.Helper()
		if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	read := func() []json.RawMessage {
		t.Helper()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var tuple []json.RawMessage
		if err := json.Unmarshal(data, &tuple); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		return tuple
	}

	write(`["1","1","lv:slideshow","phx_join",{}]`)
	if reply := read(); !strings.Contains(string(reply[4]), `lv-root`) {
		t.Fatalf("join reply without html: %s", reply[4])
	}
	if n := s.Live().Sessions().Count(); n != 1 {
		t.Errorf("sessions = %d, want 1", n)
	}

	write(`["1","2","lv:slideshow","navigate",{"section":"About"}]`)
	push := read()
	var event string
	_ = json.Unmarshal(push[3], &event)
	if event != "render" {
		t.Fatalf("expected render push, got %s", event)
	}

	var payload struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(push[4], &payload); err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`id="about"[^>]*style="display: block;"`).MatchString(payload.HTML) {
		t.Error("about should be visible after navigate")
	}
	if !regexp.MustCompile(`id="home"[^>]*style="display: none;"`).MatchString(payload.HTML) {
		t.Error("home should be hidden after navigate")
	}

	if ack := read(); !strings.Contains(string(ack[4]), `"ok"`) {
		t.Errorf("expected ok ack, got %s", ack[4])
	}
}

func TestCleanupInterval(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want time.Duration
	}{
		{0, time.Minute},
		{2 * time.Second, time.Second},
		{4 * time.Minute, time.Minute},
	}
	for _, tt := range tests {
		if got := cleanupInterval(tt.ttl); got != tt.want {
			t.Errorf("cleanupInterval(%v) = %v, want %v", tt.ttl, got, tt.want)
		}
	}
}
