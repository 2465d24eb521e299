package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gabrielmiguelok/slidedeck/pkg/core"
	"github.com/gabrielmiguelok/slidedeck/pkg/logging"
	"github.com/gabrielmiguelok/slidedeck/pkg/protocol"
	"github.com/gabrielmiguelok/slidedeck/pkg/transport"
)

// counterComponent renders a number the "inc" event bumps.
type counterComponent struct {
	core.BaseComponent

	mu         sync.Mutex
	count      int
	mountErr   error
	mounted    int
	terminated []core.TerminateReason
}

func (c *counterComponent) Name() string { return "counter" }

func (c *counterComponent) Mount(ctx context.Context, params core.Params, session core.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mounted++
	if start := params.Get("start"); start != "" {
		fmt.Sscanf(start, "%d", &c.count)
	}
	return c.mountErr
}

func (c *counterComponent) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, err := fmt.Fprintf(w, "<div>count=%d</div>", c.count)
		return err
	})
}

func (c *counterComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch event {
	case "inc":
		c.count++
	case "noop":
	default:
		return errors.New("unknown event " + event)
	}
	return nil
}

func (c *counterComponent) Terminate(ctx context.Context, reason core.TerminateReason) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminated = append(c.terminated, reason)
	return nil
}

func (c *counterComponent) terminations() []core.TerminateReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.TerminateReason(nil), c.terminated...)
}

func newTestRouter() *Router {
	return New(WithLogger(logging.NopLogger{}))
}

func TestRouter_Live_InitialHTTPRender(t *testing.T) {
	r := newTestRouter()
	comp := &counterComponent{}
	r.Live("/", func() core.Component { return comp })

	req := httptest.NewRequest(http.MethodGet, "/?start=4", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "<div>count=4</div>" {
		t.Errorf("body = %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected Content-Type text/html, got %q", ct)
	}
	if got := comp.terminations(); len(got) != 1 || got[0] != core.TerminateNormal {
		t.Errorf("HTTP render should terminate normally, got %v", got)
	}
}

func TestRouter_Live_MountError(t *testing.T) {
	var handled error
	r := New(
		WithLogger(logging.NopLogger{}),
		WithErrorHandler(func(w http.ResponseWriter, req *http.Request, err error) {
			handled = err
			w.WriteHeader(http.StatusTeapot)
		}),
	)
	r.Live("/", func() core.Component {
		return &counterComponent{mountErr: errors.New("no content")}
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if handled == nil || !strings.Contains(handled.Error(), "mount counter") {
		t.Errorf("handled error = %v", handled)
	}
}

func TestRouter_HandleAndMiddleware(t *testing.T) {
	r := newTestRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Middleware", "applied")
			next.ServeHTTP(w, req)
		})
	})
	r.HandleFunc("/api/test", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("OK"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	if rec.Body.String() != "OK" {
		t.Errorf("expected body 'OK', got %q", rec.Body.String())
	}
	if rec.Header().Get("X-Middleware") != "applied" {
		t.Error("middleware not applied")
	}
}

// liveClient drives a router over a real WebSocket.
type liveClient struct {
	t  *testing.T
	ws *transport.WebSocketTransport
}

func dialLive(t *testing.T, srv *httptest.Server, codec protocol.Codec) *liveClient {
	t.Helper()

	cfg := transport.DefaultTransportConfig()
	cfg.Codec = codec
	cfg.Logger = logging.NopLogger{}
	ws := transport.NewWebSocketTransport(cfg, nil)
	ws.SetURL("ws" + strings.TrimPrefix(srv.URL, "http") + "/?vsn=" + codec.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ws.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return &liveClient{t: t, ws: ws}
}

func (c *liveClient) send(event, ref string, payload map[string]any) {
	c.t.Helper()
	msg := protocol.NewMessage("lv:test", event, payload).WithRef(ref)
	if err := c.ws.Send(msg); err != nil {
		c.t.Fatalf("send %s: %v", event, err)
	}
}

func (c *liveClient) recv() *protocol.Message {
	c.t.Helper()
	select {
	case msg := <-c.ws.Receive():
		return msg
	case <-time.After(5 * time.Second):
		c.t.Fatal("timed out waiting for server message")
		return nil
	}
}

func TestRouter_WebSocketLifecycle(t *testing.T) {
	for _, codec := range []protocol.Codec{protocol.NewPhoenixCodec(), protocol.NewMsgPackCodec()} {
		t.Run(codec.Name(), func(t *testing.T) {
			r := newTestRouter()
			comp := &counterComponent{}
			r.Live("/", func() core.Component { return comp })

			srv := httptest.NewServer(r)
			defer srv.Close()

			client := dialLive(t, srv, codec)

			client.send(protocol.EventJoin, "1", nil)
			join := client.recv()
			resp, _ := join.Payload["response"].(map[string]any)
			if join.Ref != "1" || join.Payload["status"] != "ok" || resp["html"] != "<div>count=0</div>" {
				t.Fatalf("join reply = %+v", join)
			}

			client.send("inc", "2", nil)
			render := client.recv()
			if render.Type != protocol.MsgRender || render.Payload["html"] != "<div>count=1</div>" {
				t.Fatalf("expected render, got %+v", render)
			}
			if ack := client.recv(); ack.Ref != "2" || ack.Payload["status"] != "ok" {
				t.Fatalf("expected ack, got %+v", ack)
			}

			// Unchanged output is acknowledged without a render.
			client.send("noop", "3", nil)
			if ack := client.recv(); ack.Type != protocol.MsgReply || ack.Ref != "3" {
				t.Fatalf("expected bare ack, got %+v", ack)
			}

			client.send("explode", "4", nil)
			if reply := client.recv(); reply.Payload["status"] != "error" {
				t.Fatalf("expected error reply, got %+v", reply)
			}

			client.send(protocol.EventHeartbeat, "5", nil)
			if hb := client.recv(); hb.Ref != "5" || hb.Payload["status"] != "ok" {
				t.Fatalf("heartbeat reply = %+v", hb)
			}

			if r.Sessions().Count() != 1 || r.Sockets().Count() != 1 {
				t.Errorf("sessions=%d sockets=%d, want 1/1", r.Sessions().Count(), r.Sockets().Count())
			}

			client.send(protocol.EventLeave, "6", nil)

			waitFor(t, func() bool { return r.Sessions().Count() == 0 })
			if got := comp.terminations(); len(got) != 1 || got[0] != core.TerminateNormal {
				t.Errorf("terminations = %v, want [normal]", got)
			}
		})
	}
}

func TestRouter_EventBeforeJoin(t *testing.T) {
	r := newTestRouter()
	r.Live("/", func() core.Component { return &counterComponent{} })
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := dialLive(t, srv, protocol.NewPhoenixCodec())
	client.send("inc", "1", nil)

	reply := client.recv()
	resp, _ := reply.Payload["response"].(map[string]any)
	if reply.Payload["status"] != "error" || resp["reason"] != "not joined" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestRouter_Shutdown(t *testing.T) {
	r := newTestRouter()
	comp := &counterComponent{}
	r.Live("/", func() core.Component { return comp })
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := dialLive(t, srv, protocol.NewPhoenixCodec())
	client.send(protocol.EventJoin, "1", nil)
	client.recv()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := comp.terminations(); len(got) != 1 || got[0] != core.TerminateShutdown {
		t.Errorf("terminations = %v, want [shutdown]", got)
	}
}

func TestRouter_ConnectionLimit(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.MaxConnections = 1
	r := New(WithConfig(cfg), WithLogger(logging.NopLogger{}))
	r.Live("/", func() core.Component { return &counterComponent{} })
	srv := httptest.NewServer(r)
	defer srv.Close()

	first := dialLive(t, srv, protocol.NewPhoenixCodec())
	first.send(protocol.EventJoin, "1", nil)
	first.recv()

	cfgT := transport.DefaultTransportConfig()
	cfgT.Logger = logging.NopLogger{}
	second := transport.NewWebSocketTransport(cfgT, nil)
	second.SetURL("ws" + strings.TrimPrefix(srv.URL, "http") + "/")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := second.Connect(ctx); err == nil {
		second.Close()
		t.Fatal("second connection should be rejected")
	}
}

func TestRouter_PerIPLimit(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Limits.ConnectionsPerIP = 1
	r := New(WithConfig(cfg), WithLogger(logging.NopLogger{}))
	r.Live("/", func() core.Component { return &counterComponent{} })
	srv := httptest.NewServer(r)
	defer srv.Close()

	first := dialLive(t, srv, protocol.NewPhoenixCodec())
	first.send(protocol.EventJoin, "1", nil)
	first.recv()

	cfgT := transport.DefaultTransportConfig()
	cfgT.Logger = logging.NopLogger{}
	second := transport.NewWebSocketTransport(cfgT, nil)
	second.SetURL("ws" + strings.TrimPrefix(srv.URL, "http") + "/")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := second.Connect(ctx); err == nil {
		second.Close()
		t.Fatal("second connection from the same address should be rejected")
	}

	// Leaving frees the slot.
	first.send(protocol.EventLeave, "2", nil)
	waitFor(t, func() bool { return r.Sessions().Count() == 0 })

	third := dialLive(t, srv, protocol.NewPhoenixCodec())
	third.send(protocol.EventJoin, "1", nil)
	if reply := third.recv(); reply.Payload["status"] != "ok" {
		t.Errorf("join after release = %+v", reply)
	}
}

func TestRouter_EventRateLimit(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Limits.EventRate = 0.001
	cfg.Limits.EventBurst = 1
	r := New(WithConfig(cfg), WithLogger(logging.NopLogger{}))
	r.Live("/", func() core.Component { return &counterComponent{} })
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := dialLive(t, srv, protocol.NewPhoenixCodec())
	client.send(protocol.EventJoin, "1", nil)
	client.recv()

	client.send("noop", "2", nil)
	if ack := client.recv(); ack.Payload["status"] != "ok" {
		t.Fatalf("first event = %+v", ack)
	}

	client.send("inc", "3", nil)
	reply := client.recv()
	resp, _ := reply.Payload["response"].(map[string]any)
	if reply.Payload["status"] != "error" || resp["reason"] != "rate limit exceeded" {
		t.Errorf("second event = %+v", reply)
	}
}

func TestSessionManager_Expired(t *testing.T) {
	m := NewSessionManager(0, time.Minute)
	s, err := m.Create("sock-1", &counterComponent{}, nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if len(m.Expired()) != 0 {
		t.Fatal("fresh session reported expired")
	}

	s.mu.Lock()
	s.lastActivity = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()

	if got := m.Expired(); len(got) != 1 || got[0].SocketID != "sock-1" {
		t.Errorf("Expired() = %v", got)
	}
	m.Remove(s.ID)
	if m.Count() != 0 {
		t.Error("Remove did not drop the session")
	}
}

func TestSessionManager_RefusesWhenFull(t *testing.T) {
	m := NewSessionManager(1, 0)
	first, err := m.Create("a", &counterComponent{}, nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := m.Create("b", &counterComponent{}, nil, nil); !errors.Is(err, ErrTooManySockets) {
		t.Fatalf("Create over the limit = %v, want ErrTooManySockets", err)
	}
	if _, ok := m.Get(first.ID); !ok {
		t.Error("running session must not be displaced")
	}

	m.Remove(first.ID)
	if _, err := m.Create("c", &counterComponent{}, nil, nil); err != nil {
		t.Errorf("Create after Remove: %v", err)
	}
}

func TestRouter_FullSessionsReleaseSlots(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.MaxConnections = 1
	cfg.Limits.ConnectionsPerIP = 4
	r := New(WithConfig(cfg), WithLogger(logging.NopLogger{}))
	r.Live("/", func() core.Component { return &counterComponent{} })
	srv := httptest.NewServer(r)
	defer srv.Close()

	// A session registered between the count check and Create of the
	// next upgrade.
	held, err := r.Sessions().Create("held", &counterComponent{}, nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	client := dialLive(t, srv, protocol.NewPhoenixCodec())
	select {
	case <-client.ws.CloseChan():
	case <-time.After(5 * time.Second):
		t.Fatal("connection over the session limit should be closed")
	}

	waitFor(t, func() bool { return r.conns.Count("127.0.0.1") == 0 })
	if r.sockets.Count() != 0 {
		t.Errorf("sockets.Count() = %d, want 0", r.sockets.Count())
	}
	if _, ok := r.Sessions().Get(held.ID); !ok {
		t.Error("existing session must survive")
	}

	r.Sessions().Remove(held.ID)
	next := dialLive(t, srv, protocol.NewPhoenixCodec())
	next.send(protocol.EventJoin, "1", nil)
	if reply := next.recv(); reply.Payload["status"] != "ok" {
		t.Errorf("join after slot freed = %+v", reply)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
