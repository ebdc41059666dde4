// Package server implements an in-memory catalog service speaking the same
// RPC surface the client dials: session heartbeats, schema changes, object
// id reservation and metadata lookups.
package server

import (
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alanwang67/catalog_client/protocol"
)

// New creates a server bound to self. A ttl of zero applies
// DefaultSessionTTL.
func New(id uint64, self *protocol.Connection, ttl time.Duration) *Server {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	log.Debugf("catalog server %d created", id)
	return &Server{
		Id:         id,
		Self:       self,
		sessions:   make(map[uint64]time.Time),
		sessionTTL: ttl,
		databases:  make(map[uint32]*databaseState),
		tables:     make(map[protocol.TableId]*tableState),
	}
}

// MarkInitDbDone records that the cluster's one-time initialization has
// completed.
func (s *Server) MarkInitDbDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initDbDone = true
}

// Start listens on the server's own connection and serves requests until
// Stop. It blocks the calling goroutine.
func (s *Server) Start() error {
	log.Debugf("starting catalog server %d", s.Id)

	l, err := net.Listen(s.Self.Network, s.Self.Address)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	log.Debugf("catalog server %d listening on %s", s.Id, l.Addr())

	srv := rpc.NewServer()
	if err := srv.RegisterName("Catalog", s); err != nil {
		return err
	}

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Errorf("catalog server %d accept error: %v", s.Id, err)
			continue
		}
		go srv.ServeConn(conn)
	}
}

// Stop closes the listener, unblocking Start.
func (s *Server) Stop() {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l != nil {
		_ = l.Close()
	}
}

// Addr returns the listen address once Start has bound it.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.Self.Address
	}
	return s.listener.Addr().String()
}
