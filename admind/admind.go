// Package admind serves the operational HTTP surface of the chat
// server: a JSON status endpoint, a channel listing, and Prometheus
// metrics. It is read-only and carries no chat protocol logic.
package admind

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/presbrey/chat"
	"github.com/presbrey/chat/config"
)

// Server wraps a chat server with an admin HTTP listener.
type Server struct {
	chat      *chat.Server
	cfg       *config.Config
	echo      *echo.Echo
	onceSetup sync.Once
}

// New creates an admin server over the given chat server.
func New(c *chat.Server, cfg *config.Config) *Server {
	return &Server{chat: c, cfg: cfg}
}

func (s *Server) setup() {
	s.onceSetup.Do(func() {
		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Recover())
		s.route(e)
		s.echo = e
	})
}

func (s *Server) route(e *echo.Echo) {
	e.GET("/status", s.handleStatus)
	e.GET("/channels", s.handleChannels)
	e.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(chat.Metrics, promhttp.HandlerOpts{})))
}

// Start runs the admin HTTP listener. It blocks until Stop is called.
func (s *Server) Start() error {
	s.setup()
	err := s.echo.Start(s.cfg.AdminAddress())
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the admin listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.echo == nil {
		return nil
	}
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.chat.Stats())
}

type channelInfo struct {
	Name     string `json:"name"`
	Members  int    `json:"members"`
	Operator string `json:"operator,omitempty"`
}

func (s *Server) handleChannels(c echo.Context) error {
	reg := s.chat.Registry()
	names := reg.ChannelNames()
	sort.Strings(names)

	channels := make([]channelInfo, 0, len(names))
	for _, name := range names {
		members, err := reg.SnapshotMembers(name)
		if err != nil {
			continue // channel emptied since listing
		}
		info := channelInfo{Name: name, Members: len(members)}
		for _, m := range members {
			if m.IsOperator {
				info.Operator = m.Nick
				break
			}
		}
		channels = append(channels, info)
	}
	return c.JSON(http.StatusOK, channels)
}
