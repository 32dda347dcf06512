package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	cverrors "github.com/vango-dev/cveboard/internal/errors"
	"github.com/vango-dev/cveboard/pkg/nav"
	"github.com/vango-dev/cveboard/pkg/router"
	"github.com/vango-dev/cveboard/pkg/routepath"
)

// Message types on the navigation stream.
const (
	MsgHello    = "hello"
	MsgRoute    = "route"
	MsgAck      = "ack"
	MsgError    = "error"
	MsgNavigate = "navigate"
	MsgBack     = "back"
	MsgForward  = "forward"
)

const writeWait = 10 * time.Second

// ClientMessage is sent by stream clients.
type ClientMessage struct {
	Type    string            `json:"type"`
	Ref     string            `json:"ref,omitempty"`
	Path    string            `json:"path,omitempty"`
	Name    string            `json:"name,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Query   url.Values        `json:"query,omitempty"`
	Replace bool              `json:"replace,omitempty"`
}

// ServerMessage is sent to stream clients.
type ServerMessage struct {
	Type   string       `json:"type"`
	Ref    string       `json:"ref,omitempty"`
	Client string       `json:"client,omitempty"`
	Route  *RouteInfo   `json:"route,omitempty"`
	Routes []RouteEntry `json:"routes,omitempty"`
	Error  *ErrorInfo   `json:"error,omitempty"`
}

// RouteInfo is the mounted route as seen by clients.
type RouteInfo struct {
	ID        uint64            `json:"id"`
	Name      string            `json:"name"`
	Pattern   string            `json:"pattern"`
	Location  string            `json:"location"`
	Href      string            `json:"href"`
	Params    map[string]string `json:"params,omitempty"`
	Query     url.Values        `json:"query,omitempty"`
	Component string            `json:"component"`
}

// ErrorInfo describes a failed request on the stream.
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (s *Server) routeInfo(r nav.Resolved) *RouteInfo {
	info := &RouteInfo{
		ID:       r.ID,
		Name:     r.Name(),
		Pattern:  r.Match.Route.Path,
		Location: r.Location,
		Href:     routepath.Join(s.ctrl.Base(), r.Location),
		Params:   r.Match.Params,
		Query:    r.Query,
	}
	if r.Component != nil {
		info.Component = r.Component.Name()
	}
	if len(info.Query) == 0 {
		info.Query = nil
	}
	return info
}

// streamConn is one navigation stream client.
type streamConn struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	// navs tracks navigations still resolving for this client.
	navs sync.WaitGroup
}

func (c *streamConn) send(msg ServerMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *streamConn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	c := &streamConn{
		id:     id,
		conn:   conn,
		logger: s.logger.With("client", id),
	}

	s.streams.Add(1)
	defer s.streams.Done()
	if s.observer != nil {
		s.observer.StreamConnected()
		defer s.observer.StreamDisconnected()
	}
	c.logger.Debug("stream connected")
	defer c.logger.Debug("stream closed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer conn.Close()

	conn.SetReadLimit(s.config.ReadLimit)

	if err := c.send(ServerMessage{Type: MsgHello, Client: c.id, Routes: s.entries()}); err != nil {
		return
	}

	updates, unsubscribe := s.ctrl.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pushUpdates(ctx, c, updates)
	}()

	go func() {
		select {
		case <-s.done:
			c.writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			c.writeMu.Unlock()
			_ = conn.Close()
		case <-ctx.Done():
		}
	}()

	s.readLoop(ctx, c)
	cancel()
	c.navs.Wait()
	wg.Wait()
}

// pushUpdates forwards controller updates and keeps the connection alive.
func (s *Server) pushUpdates(ctx context.Context, c *streamConn, updates <-chan nav.Resolved) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-updates:
			if !ok {
				return
			}
			if err := c.send(ServerMessage{Type: MsgRoute, Route: s.routeInfo(r)}); err != nil {
				c.logger.Debug("stream write failed", "error", err)
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			if err := c.ping(); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (s *Server) readLoop(ctx context.Context, c *streamConn) {
	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("stream read failed", "error", err)
			}
			return
		}
		if err := s.handleMessage(ctx, c, msg); err != nil {
			return
		}
	}
}

// handleMessage processes one client message. Only write failures are
// returned; navigation failures are reported to the client.
//
// Navigations are started in message order and answered when they finish,
// so a later navigate supersedes one whose view is still loading.
func (s *Server) handleMessage(ctx context.Context, c *streamConn, msg ClientMessage) error {
	switch msg.Type {
	case MsgNavigate:
		target := router.Path(msg.Path)
		if msg.Name != "" {
			target = router.Named(msg.Name, msg.Params)
		}
		var opts []nav.NavigateOption
		if msg.Replace {
			opts = append(opts, nav.WithReplace())
		}
		if len(msg.Query) > 0 {
			opts = append(opts, nav.WithQuery(msg.Query))
		}

		p := s.ctrl.Start(ctx, target, opts...)
		c.navs.Add(1)
		go func() {
			defer c.navs.Done()
			r, err := p.Wait()
			if err != nil {
				err = s.sendError(c, msg.Ref, err)
			} else {
				err = c.send(ServerMessage{Type: MsgAck, Ref: msg.Ref, Route: s.routeInfo(r)})
			}
			if err != nil && ctx.Err() == nil {
				c.logger.Debug("stream write failed", "error", err)
				_ = c.conn.Close()
			}
		}()
		return nil

	case MsgBack, MsgForward:
		var moved bool
		if msg.Type == MsgBack {
			moved = s.ctrl.Back()
		} else {
			moved = s.ctrl.Forward()
		}
		if !moved {
			return c.send(ServerMessage{Type: MsgError, Ref: msg.Ref, Error: &ErrorInfo{Message: "no history entry"}})
		}
		return c.send(ServerMessage{Type: MsgAck, Ref: msg.Ref})

	default:
		return c.send(ServerMessage{Type: MsgError, Ref: msg.Ref, Error: &ErrorInfo{Message: "unknown message type " + msg.Type}})
	}
}

func (s *Server) sendError(c *streamConn, ref string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	ce := cverrors.Classify(err)
	return c.send(ServerMessage{
		Type:  MsgError,
		Ref:   ref,
		Error: &ErrorInfo{Code: ce.Code, Message: err.Error()},
	})
}
