// Package httpapi exposes hosted board sessions over HTTP for presentation
// layers.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/engine"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/obslog"
	"github.com/park285/cheese-board/internal/session"
	"github.com/park285/cheese-board/pkg/boarddto"
)

// Store is the session backend the server drives.
type Store interface {
	Create(ctx context.Context, whiteID, blackID string) (*session.Game, error)
	Get(ctx context.Context, id string) (*session.Game, error)
	ListByPlayer(ctx context.Context, playerID string) ([]*session.Game, error)
	Interact(ctx context.Context, id, playerID string, sq board.Square) (*session.Game, engine.Result, error)
	ClaimSeat(ctx context.Context, id string, c board.Color, playerID string) (*session.Game, error)
	CloseSession(ctx context.Context, id string) (*session.Game, error)
	Ping(ctx context.Context) error
}

const (
	defaultMaxBodyBytes = 1 << 16
	defaultTimeout      = 5 * time.Second
	apiCSP              = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
	sessionsPrefix      = "/api/sessions"
)

type Server struct {
	store   Store
	msgs    *msgcat.Catalog
	maxBody int
	timeout time.Duration
	diagram bool

	srv *fasthttp.Server

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

type Option func(*Server)

func WithMaxBodyBytes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithDiagram toggles the text diagram in session views.
func WithDiagram(on bool) Option {
	return func(s *Server) { s.diagram = on }
}

// NewServer builds a Server. msgs may be nil, in which case messages fall
// back to outcome names.
func NewServer(store Store, msgs *msgcat.Catalog, opts ...Option) *Server {
	s := &Server{
		store:   store,
		msgs:    msgs,
		maxBody: defaultMaxBodyBytes,
		timeout: defaultTimeout,
		diagram: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               "board-server",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: s.maxBody,
	}
	return s
}

// Listen binds addr and serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	obslog.L().Info("http_listen", zap.String("addr", ln.Addr().String()))
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called. After Shutdown it
// closes ln and returns nil without serving.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()
	return s.srv.Serve(ln)
}

// Shutdown stops Serve, including one that has not started accepting yet.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	ln := s.ln
	s.mu.Unlock()

	err := s.srv.ShutdownWithContext(ctx)
	if ln != nil {
		// already closed when fasthttp had registered it
		_ = ln.Close()
	}
	return err
}

// Handler routes requests. It is exported for in-process use and tests.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := strings.TrimRight(string(ctx.Path()), "/")
		if path == "/healthz" {
			s.handleHealth(ctx)
			return
		}

		ctx.Response.Header.Set("Content-Security-Policy", apiCSP)
		ctx.Response.Header.Set("Cross-Origin-Opener-Policy", "same-origin")
		ctx.SetContentType("application/json; charset=utf-8")
		if len(ctx.PostBody()) > s.maxBody {
			s.writeError(ctx, fasthttp.StatusRequestEntityTooLarge, boarddto.DomainError{Code: "bad_request", Message: "request too large"})
			return
		}

		switch {
		case path == sessionsPrefix:
			switch {
			case ctx.IsPost():
				s.handleCreate(ctx)
			case ctx.IsGet():
				s.handleList(ctx)
			default:
				s.methodNotAllowed(ctx)
			}
		case strings.HasPrefix(path, sessionsPrefix+"/"):
			s.routeSession(ctx, strings.TrimPrefix(path, sessionsPrefix+"/"))
		default:
			s.writeError(ctx, fasthttp.StatusNotFound, boarddto.DomainError{Code: "not_found", Message: "no such route"})
		}
	}
}

func (s *Server) routeSession(ctx *fasthttp.RequestCtx, rest string) {
	id, action, _ := strings.Cut(rest, "/")
	if strings.TrimSpace(id) == "" {
		s.writeError(ctx, fasthttp.StatusNotFound, boarddto.DomainError{Code: "not_found", Message: "no such route"})
		return
	}
	switch action {
	case "":
		if !ctx.IsGet() {
			s.methodNotAllowed(ctx)
			return
		}
		s.handleGet(ctx, id)
	case "interact":
		if !ctx.IsPost() {
			s.methodNotAllowed(ctx)
			return
		}
		s.handleInteract(ctx, id)
	case "seat":
		if !ctx.IsPost() {
			s.methodNotAllowed(ctx)
			return
		}
		s.handleSeat(ctx, id)
	case "close":
		if !ctx.IsPost() {
			s.methodNotAllowed(ctx)
			return
		}
		s.handleClose(ctx, id)
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, boarddto.DomainError{Code: "not_found", Message: "no such route"})
	}
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	c, cancel := s.context()
	defer cancel()
	if err := s.store.Ping(c); err != nil {
		obslog.L().Warn("health_check_failed", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		ctx.SetBodyString("unavailable")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBodyString("ok")
}

func (s *Server) handleCreate(ctx *fasthttp.RequestCtx) {
	var body boarddto.CreateRequest
	if len(ctx.PostBody()) > 0 {
		if err := json.Unmarshal(ctx.PostBody(), &body); err != nil {
			s.badRequest(ctx)
			return
		}
	}
	c, cancel := s.context()
	defer cancel()
	g, err := s.store.Create(c, body.WhiteID, body.BlackID)
	if err != nil {
		s.fail(ctx, err, "")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusCreated)
	s.writeJSON(ctx, s.view(g))
}

func (s *Server) handleList(ctx *fasthttp.RequestCtx) {
	player := strings.TrimSpace(string(ctx.QueryArgs().Peek("player_id")))
	if player == "" {
		s.badRequest(ctx)
		return
	}
	c, cancel := s.context()
	defer cancel()
	games, err := s.store.ListByPlayer(c, player)
	if err != nil {
		s.fail(ctx, err, "")
		return
	}
	out := boarddto.ListResponse{Sessions: make([]*boarddto.SessionView, 0, len(games))}
	for _, g := range games {
		out.Sessions = append(out.Sessions, s.view(g))
	}
	s.writeJSON(ctx, out)
}

func (s *Server) handleGet(ctx *fasthttp.RequestCtx, id string) {
	c, cancel := s.context()
	defer cancel()
	g, err := s.store.Get(c, id)
	if err != nil {
		s.fail(ctx, err, id)
		return
	}
	s.writeJSON(ctx, s.view(g))
}

func (s *Server) handleInteract(ctx *fasthttp.RequestCtx, id string) {
	var body boarddto.InteractRequest
	if err := json.Unmarshal(ctx.PostBody(), &body); err != nil {
		s.badRequest(ctx)
		return
	}
	if body.File == nil || body.Rank == nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, boarddto.DomainError{
			Code:    "invalid_square",
			Message: s.msgs.RenderOr("error.missing_square", nil, "file and rank are required"),
		})
		return
	}
	sq := board.Sq(*body.File, *body.Rank)
	if err := sq.Validate(); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, boarddto.DomainError{
			Code:    "invalid_square",
			Message: s.msgs.RenderOr("error.invalid_square", map[string]int{"File": sq.File, "Rank": sq.Rank}, err.Error()),
		})
		return
	}

	c, cancel := s.context()
	defer cancel()
	g, res, err := s.store.Interact(c, id, body.PlayerID, sq)
	if err != nil {
		s.fail(ctx, err, id)
		return
	}
	s.writeJSON(ctx, boarddto.InteractResponse{
		Outcome: string(res.Outcome),
		Reason:  string(res.Reason),
		Message: s.outcomeMessage(res),
		Session: s.view(g),
	})
}

func (s *Server) handleSeat(ctx *fasthttp.RequestCtx, id string) {
	var body boarddto.SeatRequest
	if err := json.Unmarshal(ctx.PostBody(), &body); err != nil {
		s.badRequest(ctx)
		return
	}
	color, ok := board.ParseColor(body.Color)
	if !ok {
		s.badRequest(ctx)
		return
	}
	c, cancel := s.context()
	defer cancel()
	g, err := s.store.ClaimSeat(c, id, color, body.PlayerID)
	if err != nil {
		s.fail(ctx, err, id)
		return
	}
	s.writeJSON(ctx, s.view(g))
}

func (s *Server) handleClose(ctx *fasthttp.RequestCtx, id string) {
	c, cancel := s.context()
	defer cancel()
	g, err := s.store.CloseSession(c, id)
	if err != nil {
		s.fail(ctx, err, id)
		return
	}
	s.writeJSON(ctx, s.view(g))
}

func (s *Server) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// fail maps store errors onto status codes and catalog messages.
func (s *Server) fail(ctx *fasthttp.RequestCtx, err error, id string) {
	idData := map[string]string{"ID": id}
	var (
		status int
		de     boarddto.DomainError
	)
	switch {
	case errors.Is(err, board.ErrInvalidSquare):
		status, de = fasthttp.StatusBadRequest, boarddto.DomainError{Code: "invalid_square", Message: err.Error()}
	case errors.Is(err, session.ErrInvalidArgs):
		status, de = fasthttp.StatusBadRequest, boarddto.DomainError{Code: "bad_request", Message: s.msgs.RenderOr("error.bad_request", nil, err.Error())}
	case errors.Is(err, session.ErrSessionNotFound):
		status, de = fasthttp.StatusNotFound, boarddto.DomainError{Code: "not_found", Message: s.msgs.RenderOr("error.not_found", idData, err.Error())}
	case errors.Is(err, session.ErrNotYourTurn):
		status, de = fasthttp.StatusForbidden, boarddto.DomainError{Code: "not_your_turn", Message: s.msgs.RenderOr("error.not_your_turn", nil, err.Error())}
	case errors.Is(err, session.ErrSessionClosed):
		status, de = fasthttp.StatusConflict, boarddto.DomainError{Code: "closed", Message: s.msgs.RenderOr("error.closed", idData, err.Error())}
	case errors.Is(err, session.ErrSeatTaken):
		status, de = fasthttp.StatusConflict, boarddto.DomainError{Code: "seat_taken", Message: s.msgs.RenderOr("error.seat_taken", nil, err.Error())}
	case errors.Is(err, session.ErrConcurrentUpdate):
		status, de = fasthttp.StatusConflict, boarddto.DomainError{Code: "conflict", Message: s.msgs.RenderOr("error.conflict", nil, err.Error()), Retryable: true}
	default:
		obslog.L().Error("http_internal_error", zap.String("path", string(ctx.Path())), zap.Error(err))
		status, de = fasthttp.StatusInternalServerError, boarddto.DomainError{Code: "internal", Message: s.msgs.RenderOr("error.internal", nil, "internal error"), Retryable: true}
	}
	s.writeError(ctx, status, de)
}

func (s *Server) badRequest(ctx *fasthttp.RequestCtx) {
	s.writeError(ctx, fasthttp.StatusBadRequest, boarddto.DomainError{Code: "bad_request", Message: s.msgs.RenderOr("error.bad_request", nil, "malformed request")})
}

func (s *Server) methodNotAllowed(ctx *fasthttp.RequestCtx) {
	s.writeError(ctx, fasthttp.StatusMethodNotAllowed, boarddto.DomainError{Code: "method_not_allowed", Message: "method not allowed"})
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		obslog.L().Error("http_encode_error", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetBody(b)
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, de boarddto.DomainError) {
	ctx.SetStatusCode(status)
	s.writeJSON(ctx, boarddto.ErrorEnvelope{Error: de})
}
