package chat

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"net/textproto"
	"sync"
	"time"

	"github.com/presbrey/chat/config"
)

// Server owns the listener, the shared registry, and the per-connection
// goroutines. All cross-connection state lives in the registry; the
// server itself only tracks open connections for shutdown and stats.
type Server struct {
	sync.Mutex
	cfg        *config.Config
	info       ServerInfo
	registry   *Registry
	dispatcher *Dispatcher
	listener   net.Listener
	conns      map[*connection]bool
	shutdown   chan struct{}
	stats      *ServerStats
}

// ServerStats holds real-time server statistics.
type ServerStats struct {
	sync.RWMutex
	StartTime        time.Time
	ConnectionCount  int
	MaxConnections   int
	MessagesSent     int64
	MessagesReceived int64
}

// StatsSnapshot is a point-in-time copy of server statistics for the
// admin status endpoint.
type StatsSnapshot struct {
	Uptime           time.Duration `json:"uptime"`
	ConnectionCount  int           `json:"connections"`
	MaxConnections   int           `json:"max_connections"`
	MessagesSent     int64         `json:"messages_sent"`
	MessagesReceived int64         `json:"messages_received"`
	Sessions         int           `json:"sessions"`
	Channels         int           `json:"channels"`
}

// NewServer creates a chat server from the given configuration.
func NewServer(cfg *config.Config) *Server {
	reg := NewRegistry()
	return &Server{
		cfg:      cfg,
		registry: reg,
		info: ServerInfo{
			Name:    cfg.Server.Name,
			Network: cfg.Server.Network,
			Version: Version,
			Created: time.Now().Format(time.RFC1123),
			MOTD:    cfg.Server.MOTD,
		},
		dispatcher: NewDispatcher(reg),
		conns:      make(map[*connection]bool),
		shutdown:   make(chan struct{}),
		stats:      &ServerStats{StartTime: time.Now()},
	}
}

// Version is the server version string advertised in the welcome block.
const Version = "chatd-1.0"

// Registry returns the server's session registry.
func (s *Server) Registry() *Registry { return s.registry }

// Start binds the listener and begins accepting connections.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddress())
	if err != nil {
		return fmt.Errorf("failed to start chat listener: %w", err)
	}
	s.listener = listener
	log.Printf("Chat server started on %s", listener.Addr().String())

	go s.acceptConnections()
	return nil
}

// Addr returns the listener address, useful when binding to port 0.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stats returns a point-in-time copy of server statistics.
func (s *Server) Stats() StatsSnapshot {
	s.stats.RLock()
	defer s.stats.RUnlock()
	return StatsSnapshot{
		Uptime:           time.Since(s.stats.StartTime),
		ConnectionCount:  s.stats.ConnectionCount,
		MaxConnections:   s.stats.MaxConnections,
		MessagesSent:     s.stats.MessagesSent,
		MessagesReceived: s.stats.MessagesReceived,
		Sessions:         s.registry.SessionCount(),
		Channels:         s.registry.ChannelCount(),
	}
}

// Stop closes the listener and tears down every open connection.
func (s *Server) Stop() error {
	log.Printf("Stopping chat server...")
	close(s.shutdown)

	var err error
	if s.listener != nil {
		err = s.listener.Close()
		s.listener = nil
	}

	s.Lock()
	conns := make([]*connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.Unlock()

	for _, c := range conns {
		c.conn.Close()
	}

	log.Printf("Chat server stopped")
	return err
}

// acceptConnections accepts incoming client connections.
func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				log.Printf("Error accepting connection: %v", err)
				continue
			}
		}

		s.stats.Lock()
		s.stats.ConnectionCount++
		if s.stats.ConnectionCount > s.stats.MaxConnections {
			s.stats.MaxConnections = s.stats.ConnectionCount
		}
		count := s.stats.ConnectionCount
		s.stats.Unlock()
		metricConnectionsTotal.Inc()
		metricConnectionsActive.Inc()

		if max := s.cfg.Limits.MaxClients; max > 0 && count > max {
			fmt.Fprintf(conn, "ERROR :Server is full\r\n")
			conn.Close()
			s.connectionClosed()
			log.Printf("Rejected connection from %s (server full)", conn.RemoteAddr())
			continue
		}

		sink := &lineSink{writer: bufio.NewWriter(conn)}
		c := &connection{
			server:  s,
			conn:    conn,
			sink:    sink,
			session: NewSession(sink),
		}

		s.Lock()
		s.conns[c] = true
		s.Unlock()

		go c.handle()
	}
}

func (s *Server) connectionClosed() {
	s.stats.Lock()
	s.stats.ConnectionCount--
	s.stats.Unlock()
	metricConnectionsActive.Dec()
}

// lineSink writes protocol lines to one connection. A mutex serializes
// writers, since broadcasts arrive from other connections' goroutines.
type lineSink struct {
	mu     sync.Mutex
	writer *bufio.Writer
}

func (w *lineSink) SendLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.writer.WriteString(line + "\r\n"); err != nil {
		return err
	}
	return w.writer.Flush()
}

// connection runs the read loop for one client.
type connection struct {
	server  *Server
	conn    net.Conn
	sink    *lineSink
	session *Session
}

func (c *connection) handle() {
	host := c.conn.RemoteAddr().String()
	log.Printf("[%s] *** New client connected", host)

	defer c.teardown(host)

	reader := textproto.NewReader(bufio.NewReader(c.conn))

	// Unregistered connections get a registration deadline.
	c.conn.SetReadDeadline(time.Now().Add(c.server.cfg.Limits.RegistrationTimeout))
	deadlineCleared := false

	for {
		line, err := reader.ReadLine()
		if err != nil {
			if err != io.EOF {
				log.Printf("[%s] Error reading from client: %v", host, err)
			} else {
				log.Printf("[%s] Client disconnected", host)
			}
			return
		}
		if line == "" {
			continue
		}

		if c.server.cfg.Debug {
			log.Printf("[%s] <= %#v", host, line)
		}
		c.server.stats.Lock()
		c.server.stats.MessagesReceived++
		c.server.stats.Unlock()

		cmd := ParseCommand(line)
		metricCommandsTotal.WithLabelValues(commandLabel(cmd.Kind)).Inc()

		deliveries, quit := c.server.dispatcher.Dispatch(c.session, cmd)
		if err := c.deliver(deliveries); err != nil {
			log.Printf("[%s] Write error: %v", host, err)
			return
		}
		if quit {
			return
		}

		if !deadlineCleared && c.session.Registered() {
			c.conn.SetReadDeadline(time.Time{})
			deadlineCleared = true
		}
	}
}

// deliver writes each addressed message through its target's sink. A
// failed write to another recipient is that recipient's problem alone;
// only a failure on this connection's own session is fatal here.
func (c *connection) deliver(deliveries []Delivery) error {
	for _, d := range deliveries {
		for _, line := range d.Msg.RenderLines(d.To.Nickname(), c.server.info) {
			err := d.To.SendLine(line)
			c.server.stats.Lock()
			c.server.stats.MessagesSent++
			c.server.stats.Unlock()
			metricLinesSent.Inc()

			if c.server.cfg.Debug {
				log.Printf("[%s] => %s", d.To.Nickname(), line)
			}
			if err != nil {
				if d.To == c.session {
					return err
				}
				log.Printf("[%s] Dropped line for %s: %v", c.conn.RemoteAddr(), d.To.Nickname(), err)
			}
		}
	}
	return nil
}

// teardown restores registry invariants for a closed connection.
func (c *connection) teardown(host string) {
	c.server.registry.Release(c.session)

	c.server.Lock()
	delete(c.server.conns, c)
	c.server.Unlock()

	c.conn.Close()
	c.server.connectionClosed()
	log.Printf("[%s] *** Connection closed", host)
}
