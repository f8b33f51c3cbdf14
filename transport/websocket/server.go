package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/tictactoe-recorder/internal/entity"
	"github.com/rocketscienceinc/tictactoe-recorder/internal/tictactoe"
)

const (
	maxMessageSize  = 4096
	shutdownTimeout = 5 * time.Second
	closeWriteWait  = time.Second
)

const (
	actionConnect = "connect"
	actionNew     = "game:new"
	actionReset   = "game:reset"
	actionTurn    = "game:turn"
	actionPreview = "game:preview"
	actionTally   = "tally:get"
	actionError   = "error"
)

type gameUseCase interface {
	NewSession(ownerID string) *tictactoe.Session

	MakeTurn(ctx context.Context, session *tictactoe.Session, cell int) (entity.Outcome, error)
	ResetGame(session *tictactoe.Session)
	PreviewGame(ctx context.Context, session *tictactoe.Session, recordID string) error

	WinTally(ctx context.Context) (int, int)
}

type authService interface {
	ParseToken(token string) (string, error)
}

// Limits - per-connection turn throttling.
type Limits struct {
	TurnsPerSecond float64
	Burst          int
}

type handlerFunc func(ctx context.Context, client *client, message *Message) error

type Server struct {
	logger *slog.Logger
	game   gameUseCase
	auth   authService
	limits Limits

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc

	connMu  sync.Mutex
	conns   map[*websocket.Conn]struct{}
	closing bool
	loops   sync.WaitGroup
}

func New(logger *slog.Logger, game gameUseCase, auth authService, limits Limits) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		game:   game,
		auth:   auth,
		limits: limits,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		handlers: make(map[string]handlerFunc),
		conns:    make(map[*websocket.Conn]struct{}),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionNew] = server.handleNewGame
	server.handlers[actionReset] = server.handleResetGame
	server.handlers[actionTurn] = server.handleGameTurn
	server.handlers[actionPreview] = server.handlePreview
	server.handlers[actionTally] = server.handleTally

	return server
}

// Handler - serves the gameplay socket on /ws.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.upgradeToWebSocket)

	return mux
}

// Start - starts WebSocket server. It returns nil once ctx is done, every
// connection is closed and every read loop has exited.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return that.Serve(ctx, listener)
}

// Serve - same as Start on an existing listener.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:     that.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		that.closeConnections()
		that.loops.Wait()

		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	// Shutdown leaves hijacked connections alone.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		that.logger.Error("failed to shutdown server", "error", err)
	}

	that.closeConnections()
	that.loops.Wait()

	return nil
}

// track - registers a connection and its read loop. False once the server is closing.
func (that *Server) track(conn *websocket.Conn) bool {
	that.connMu.Lock()
	defer that.connMu.Unlock()

	if that.closing {
		return false
	}

	that.conns[conn] = struct{}{}
	that.loops.Add(1)

	return true
}

func (that *Server) untrack(conn *websocket.Conn) {
	that.connMu.Lock()
	delete(that.conns, conn)
	that.connMu.Unlock()

	that.loops.Done()
}

// closeConnections - says goodbye to every client and closes its connection,
// which ends the read loops.
func (that *Server) closeConnections() {
	that.connMu.Lock()
	defer that.connMu.Unlock()

	that.closing = true

	goodbye := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server is shutting down")
	for conn := range that.conns {
		_ = conn.WriteControl(websocket.CloseMessage, goodbye, time.Now().Add(closeWriteWait))
		_ = conn.Close()
	}
}

// upgradeToWebSocket - upgrades the connection and runs its read loop.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	defer conn.Close()

	if !that.track(conn) {
		log.Info("server is shutting down, connection refused")
		return
	}
	defer that.untrack(conn)

	conn.SetReadLimit(maxMessageSize)

	log.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	client := &client{
		conn:    conn,
		session: that.game.NewSession(""),
		limiter: rate.NewLimiter(rate.Limit(that.limits.TurnsPerSecond), that.limits.Burst),
	}

	if err = that.handleMessages(req.Context(), client); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client until it goes away.
func (that *Server) handleMessages(ctx context.Context, client *client) error {
	log := that.logger.With("method", "handleMessages")

	for {
		_, reqBody, err := client.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("connection closed on shutdown", "session", client.session.ID)
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("client closed connection", "session", client.session.ID)
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		// no new turns once shutdown began
		if ctx.Err() != nil {
			return nil
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)

			if err = that.sendErrorResponse(client, actionError, "malformed message"); err != nil {
				return err
			}
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)

			if err = that.sendErrorResponse(client, message.Action, "unknown action"); err != nil {
				return err
			}
			continue
		}

		if err = handler(ctx, client, &message); err != nil {
			return fmt.Errorf("failed to process %s: %w", message.Action, err)
		}
	}
}

func (that *Server) sendErrorResponse(client *client, action, text string) error {
	return client.send(action, ResponsePayload{Error: text})
}
