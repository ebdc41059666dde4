package server

import (
	"net"
	"sync"
	"time"

	"github.com/alanwang67/catalog_client/protocol"
)

// DefaultSessionTTL is how long a session survives without a heartbeat.
const DefaultSessionTTL = 60 * time.Second

// Server is an in-memory catalog service. Sessions are registered by the
// bootstrap heartbeat, refreshed by later ones, and expire when the client
// stops heartbeating; administrative calls stamped with an unknown or
// expired session are rejected.
type Server struct {
	Id   uint64
	Self *protocol.Connection

	mu         sync.Mutex
	sessions   map[uint64]time.Time // session id -> last heartbeat
	sessionTTL time.Duration
	databases  map[uint32]*databaseState
	tables     map[protocol.TableId]*tableState
	initDbDone bool

	listener net.Listener
}

type databaseState struct {
	info    protocol.NamespaceInfo
	nextOid uint32
}

type tableState struct {
	info       protocol.TableSchemaInfo
	partitions protocol.TablePartitions
}
