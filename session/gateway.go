package session

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/observability"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Gateway upgrades authenticated HTTP requests into live sessions.
type Gateway struct {
	log        *slog.Logger
	registry   contract.IRegistry
	verifier   contract.TokenVerifier
	metrics    *observability.Metrics
	bufferSize int
	upgrader   websocket.Upgrader
	sessions   sync.Map // id -> *Session
}

func NewGateway(log *slog.Logger, registry contract.IRegistry, verifier contract.TokenVerifier,
	metrics *observability.Metrics, bufferSize int, allowedOrigins []string) *Gateway {
	return &Gateway{
		log:        log,
		registry:   registry,
		verifier:   verifier,
		metrics:    metrics,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     NewOriginChecker(log, allowedOrigins),
		},
	}
}

// Handle authenticates before upgrading: a bad token gets a plain 401 and
// never reaches the registry.
func (g *Gateway) Handle(c echo.Context) error {
	s := New(g.log, g.registry, g.bufferSize)
	identity, err := s.Authenticate(g.verifier, TokenFrom(c.Request()))
	if err != nil {
		g.metrics.ObserveAdmission(false)
		g.log.Debug("Live channel rejected", "remote", c.RealIP(), "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrUnauthenticated.Error()).SetInternal(err)
	}

	conn, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader already replied to the client.
		_ = s.Close()
		g.metrics.ObserveAdmission(false)
		g.log.Debug("Websocket upgrade failed", "identity", identity, "error", err)
		return nil
	}

	if err = s.Admit(); err != nil {
		g.metrics.ObserveAdmission(false)
		g.log.Error("Admission failed", "identity", identity, "error", err)
		_ = conn.Close()
		return nil
	}
	g.metrics.ObserveAdmission(true)

	g.sessions.Store(s.ID(), s)
	defer g.sessions.Delete(s.ID())
	s.Serve(conn)
	return nil
}

// CloseAll closes every live session, used on shutdown since hijacked
// connections outlive the HTTP server.
func (g *Gateway) CloseAll() {
	g.sessions.Range(func(_, value any) bool {
		_ = value.(*Session).Close()
		return true
	})
}

// TokenFrom reads the access token from the "token" query parameter, falling
// back to the Authorization bearer header.
func TokenFrom(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	token, _ := auth.BearerToken(r.Header.Get(echo.HeaderAuthorization))
	return token
}

// NewOriginChecker accepts requests whose Origin is in allowed. "*" allows
// any origin. Requests without an Origin header come from non-browser
// clients and are accepted.
func NewOriginChecker(log *slog.Logger, allowed []string) func(*http.Request) bool {
	origins := make(map[string]struct{}, len(allowed))
	allowAll := false
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(origin)
		if !ok {
			log.Warn("Ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		origins[normalized] = struct{}{}
	}

	return func(r *http.Request) bool {
		header := r.Header.Get("Origin")
		if header == "" || allowAll {
			return true
		}
		normalized, ok := normalizeOrigin(header)
		if !ok {
			return false
		}
		if _, exists := origins[normalized]; exists {
			return true
		}
		log.Warn("Blocked websocket connection from disallowed origin", "origin", header)
		return false
	}
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
