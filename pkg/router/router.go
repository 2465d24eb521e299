// Package router serves live components over HTTP and WebSocket.
package router

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/slidedeck/pkg/core"
	"github.com/gabrielmiguelok/slidedeck/pkg/limits"
	"github.com/gabrielmiguelok/slidedeck/pkg/logging"
	"github.com/gabrielmiguelok/slidedeck/pkg/pool"
	"github.com/gabrielmiguelok/slidedeck/pkg/protocol"
	"github.com/gabrielmiguelok/slidedeck/pkg/transport"
)

// Common router errors.
var (
	ErrNilRenderer    = errors.New("component returned nil renderer")
	ErrTooManySockets = errors.New("too many live connections")
)

// Middleware is a function that wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// ErrorHandler handles errors during the initial HTTP render.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Router mounts live components on paths. A GET renders the component
// once; a WebSocket upgrade on the same path keeps it alive and feeds it
// client events.
type Router struct {
	mux          *http.ServeMux
	middleware   []Middleware
	errorHandler ErrorHandler
	config       core.Config
	logger       logging.Logger
	codecs       *protocol.CodecRegistry
	sessions     *SessionManager
	sockets      *core.SocketManager
	conns        *limits.ConnectionLimiter
	events       *limits.TokenBucket
	mu           sync.RWMutex
}

// Option configures a Router.
type Option func(*Router)

// WithConfig sets timeouts, limits and origin rules.
func WithConfig(cfg core.Config) Option {
	return func(r *Router) {
		r.config = cfg
	}
}

// WithLogger sets the router logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithErrorHandler overrides the handler for failed HTTP renders.
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Router) {
		r.errorHandler = h
	}
}

// New creates a new router.
func New(opts ...Option) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		config: core.DefaultConfig(),
		logger: logging.DefaultLogger,
		codecs: protocol.NewCodecRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.errorHandler == nil {
		r.errorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
			logging.L(req.Context()).Error("render failed", logging.Err(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
	r.sessions = NewSessionManager(r.config.MaxConnections, r.config.Timeouts.SessionCleanup)
	r.sockets = core.NewSocketManager()

	if l := r.config.Limits; l.ConnectionsPerIP > 0 {
		r.conns = limits.NewConnectionLimiter(l.ConnectionsPerIP)
	}
	if l := r.config.Limits; l.EventRate > 0 && l.EventBurst > 0 {
		r.events = limits.NewTokenBucket(l.EventRate, l.EventBurst)
	}
	return r
}

// Use adds middleware applied to routes registered afterwards.
func (r *Router) Use(mw Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw)
}

// Sessions returns the live session manager.
func (r *Router) Sessions() *SessionManager {
	return r.sessions
}

// Sockets returns the socket manager.
func (r *Router) Sockets() *core.SocketManager {
	return r.sockets
}

// Codecs returns the codec registry consulted on upgrade.
func (r *Router) Codecs() *protocol.CodecRegistry {
	return r.codecs
}

// Live registers a live component route.
func (r *Router) Live(path string, component func() core.Component, mw ...Middleware) {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if isWebSocketRequest(req) {
			r.handleWebSocket(w, req, component())
			return
		}
		r.renderHTTP(w, req, component())
	})

	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	r.Handle(path, h)
}

// Handle registers a standard HTTP handler.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mu.RLock()
	middleware := make([]Middleware, len(r.middleware))
	copy(middleware, r.middleware)
	r.mu.RUnlock()

	h := handler
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	r.mux.Handle(pattern, h)
}

// HandleFunc registers a standard HTTP handler function.
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.Handle(pattern, handler)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// renderHTTP mounts a throwaway instance and writes its HTML.
func (r *Router) renderHTTP(w http.ResponseWriter, req *http.Request, component core.Component) {
	params := extractParams(req)
	session := extractSession(req)

	ctx, cancel := context.WithTimeout(req.Context(), r.config.Timeouts.ComponentMount)
	defer cancel()
	ctx = core.BuildContext(ctx, nil, session, params)

	if err := component.Mount(ctx, params, session); err != nil {
		r.errorHandler(w, req, fmt.Errorf("mount %s: %w", component.Name(), err))
		return
	}
	defer component.Terminate(ctx, core.TerminateNormal)

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := render(ctx, component, buf); err != nil {
		r.errorHandler(w, req, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleWebSocket upgrades the request and starts the message loop.
func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request, component core.Component) {
	logger := logging.L(req.Context())

	if limit := r.config.MaxConnections; limit > 0 && r.sockets.Count() >= limit {
		logger.Warn("rejecting live connection", logging.Int("limit", limit))
		http.Error(w, ErrTooManySockets.Error(), http.StatusServiceUnavailable)
		return
	}

	ip := limits.ClientIP(req)
	if r.conns != nil && !r.conns.Acquire(ip) {
		logger.Warn("too many live connections from client", logging.String("ip", ip))
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}

	codec := r.codecs.Lookup(req.URL.Query().Get("vsn"))

	tcfg := transport.DefaultTransportConfig()
	tcfg.ReadTimeout = r.config.Timeouts.WebSocketRead
	tcfg.WriteTimeout = r.config.Timeouts.WebSocketWrite
	tcfg.MaxMessageSize = r.config.MaxMessageSize
	tcfg.Codec = codec
	tcfg.Logger = logger

	ws := transport.NewWebSocketTransport(tcfg, &transport.WebSocketConfig{
		AllowedOrigins:  r.config.Security.AllowedOrigins,
		InsecureDevMode: r.config.Security.InsecureDevMode,
	})

	// Upgrade writes its own error response.
	if err := ws.Upgrade(w, req); err != nil {
		logger.Warn("websocket upgrade failed", logging.Err(err))
		if r.conns != nil {
			r.conns.Release(ip)
		}
		return
	}

	socketID := uuid.NewString()
	socket := core.NewSocket(socketID, newTransportAdapter(ws))

	if bc, ok := component.(interface{ SetSocket(*core.Socket) }); ok {
		bc.SetSocket(socket)
	}

	params := extractParams(req)
	session := extractSession(req)

	lv, err := r.sessions.Create(socketID, component, params, session)
	if err != nil {
		// Another upgrade took the last slot after the count check above.
		logger.Warn("rejecting live connection", logging.Err(err))
		_ = ws.Close()
		if r.conns != nil {
			r.conns.Release(ip)
		}
		return
	}
	lv.Socket = socket
	lv.Transport = ws
	lv.RemoteIP = ip
	r.sockets.Add(socket)

	sessLogger := logger.With(
		logging.String("socket_id", socketID),
		logging.String("component", component.Name()),
		logging.String("codec", codec.Name()),
	)
	sessLogger.Info("live socket connected")

	// The connection outlives the upgrade request, so its context must not
	// derive from req.Context().
	ctx := core.BuildContext(context.Background(), socket, session, params)
	ctx = logging.ContextWithLogger(ctx, sessLogger)

	go r.messageLoop(ctx, lv)
}

// messageLoop processes incoming messages until the transport closes.
func (r *Router) messageLoop(ctx context.Context, lv *LiveSession) {
	defer r.disconnect(ctx, lv, core.TerminateShutdown)

	recv := lv.Transport.Receive()
	closed := lv.Transport.CloseChan()

	for {
		select {
		case msg := <-recv:
			lv.UpdateActivity()
			lv.Socket.UpdateActivity()

			switch msg.Type {
			case protocol.MsgHeartbeat:
				r.send(ctx, lv, protocol.OkReply(msg.Ref, msg.Topic, nil))

			case protocol.MsgJoin:
				r.handleJoin(ctx, lv, msg)

			case protocol.MsgLeave:
				r.send(ctx, lv, protocol.OkReply(msg.Ref, msg.Topic, nil))
				r.disconnect(ctx, lv, core.TerminateNormal)
				return

			case protocol.MsgEvent:
				r.handleEvent(ctx, lv, msg)

			default:
				logging.L(ctx).Debug("ignoring message", logging.String("event", msg.Event))
			}

		case <-closed:
			return
		}
	}
}

// handleJoin mounts the component on first join and replies with its HTML.
func (r *Router) handleJoin(ctx context.Context, lv *LiveSession, msg *protocol.Message) {
	lv.SetJoinRef(msg.JoinRef)

	if !lv.IsMounted() {
		mountCtx, cancel := context.WithTimeout(ctx, r.config.Timeouts.ComponentMount)
		err := lv.Component.Mount(mountCtx, lv.Params, lv.Session)
		cancel()
		if err != nil {
			logging.L(ctx).Error("mount failed", logging.Err(err))
			r.send(ctx, lv, protocol.ErrorReply(msg.Ref, msg.Topic, err.Error()))
			return
		}
		lv.SetMounted(true)
	}

	html, err := r.renderString(ctx, lv)
	if err != nil {
		r.send(ctx, lv, protocol.ErrorReply(msg.Ref, msg.Topic, err.Error()))
		return
	}
	lv.swapRender(hashHTML(html))

	r.send(ctx, lv, protocol.OkReply(msg.Ref, msg.Topic, map[string]any{
		"html":  html,
		"topic": lv.Topic,
	}))
}

// handleEvent dispatches a user event, pushes a render when the output
// changed and acknowledges the event.
func (r *Router) handleEvent(ctx context.Context, lv *LiveSession, msg *protocol.Message) {
	logger := logging.L(ctx)

	if !lv.IsMounted() {
		r.send(ctx, lv, protocol.ErrorReply(msg.Ref, msg.Topic, "not joined"))
		return
	}

	if r.events != nil && !r.events.Allow(lv.ID) {
		logger.Debug("event dropped", logging.String("event", msg.Event))
		r.send(ctx, lv, protocol.ErrorReply(msg.Ref, msg.Topic, limits.ErrRateLimited.Error()))
		return
	}

	payload := msg.Payload
	if payload == nil {
		payload = make(map[string]any)
	}

	eventCtx, cancel := context.WithTimeout(ctx, r.config.Timeouts.ComponentEvent)
	err := lv.Component.HandleEvent(eventCtx, msg.Event, payload)
	cancel()
	if err != nil {
		logger.Warn("event failed", logging.String("event", msg.Event), logging.Err(err))
		r.send(ctx, lv, protocol.ErrorReply(msg.Ref, msg.Topic, err.Error()))
		return
	}

	html, err := r.renderString(ctx, lv)
	if err != nil {
		r.send(ctx, lv, protocol.ErrorReply(msg.Ref, msg.Topic, err.Error()))
		return
	}

	if lv.swapRender(hashHTML(html)) {
		r.send(ctx, lv, protocol.RenderMessage(lv.Topic, html))
	}
	r.send(ctx, lv, protocol.OkReply(msg.Ref, msg.Topic, nil))
}

func (r *Router) renderString(ctx context.Context, lv *LiveSession) (string, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := render(ctx, lv.Component, buf); err != nil {
		logging.L(ctx).Error("render failed", logging.Err(err))
		return "", err
	}
	return buf.String(), nil
}

func (r *Router) send(ctx context.Context, lv *LiveSession, msg *protocol.Message) {
	if msg.JoinRef == "" {
		msg.JoinRef = lv.JoinRef()
	}
	if err := lv.Transport.Send(msg); err != nil {
		logging.L(ctx).Debug("send failed", logging.String("event", msg.Event), logging.Err(err))
	}
}

// disconnect terminates the component once and releases the connection.
func (r *Router) disconnect(ctx context.Context, lv *LiveSession, reason core.TerminateReason) {
	if _, ok := r.sessions.Get(lv.ID); !ok {
		return
	}
	r.sessions.Remove(lv.ID)
	r.sockets.Remove(lv.SocketID)
	if r.conns != nil {
		r.conns.Release(lv.RemoteIP)
	}
	if r.events != nil {
		r.events.Forget(lv.ID)
	}

	if lv.IsMounted() {
		if err := lv.Component.Terminate(ctx, reason); err != nil {
			logging.L(ctx).Warn("terminate failed", logging.Err(err))
		}
	}
	_ = lv.Transport.Close()

	logging.L(ctx).Info("live socket disconnected",
		logging.String("reason", reason.String()),
		logging.Duration("lifetime", time.Since(lv.CreatedAt)),
	)
}

// Cleanup closes sessions idle for longer than the configured TTL and
// returns how many were closed.
func (r *Router) Cleanup() int {
	expired := r.sessions.Expired()
	for _, lv := range expired {
		_ = lv.Transport.Close()
	}
	return len(expired)
}

// RunCleanup calls Cleanup periodically until ctx is done.
func (r *Router) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Cleanup(); n > 0 {
				r.logger.Info("closed idle live sockets", logging.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown closes every live connection and waits until the message loops
// have terminated their components or ctx is done.
func (r *Router) Shutdown(ctx context.Context) error {
	for _, lv := range r.sessions.All() {
		_ = lv.Transport.Close()
	}
	r.sockets.CloseAll()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for r.sessions.Count() > 0 {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func render(ctx context.Context, component core.Component, w io.Writer) error {
	renderer := component.Render(ctx)
	if renderer == nil {
		return ErrNilRenderer
	}
	return renderer.Render(ctx, w)
}

// hashHTML is FNV-64a over a render, used to skip pushes that would not
// change the page.
func hashHTML(html string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(html))
	return h.Sum64()
}

// extractSession copies request cookies into the component session.
func extractSession(req *http.Request) core.Session {
	session := make(core.Session)
	for _, cookie := range req.Cookies() {
		session["cookie:"+cookie.Name] = cookie.Value
	}
	return session
}

// extractParams flattens query parameters, keeping the first value.
func extractParams(req *http.Request) core.Params {
	params := make(core.Params)
	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// isWebSocketRequest checks if this is a WebSocket upgrade request.
func isWebSocketRequest(req *http.Request) bool {
	return strings.Contains(strings.ToLower(req.Header.Get("Upgrade")), "websocket")
}
