package client

import (
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/alanwang67/catalog_client/config"
	"github.com/alanwang67/catalog_client/poller"
	"github.com/alanwang67/catalog_client/protocol"
	"github.com/alanwang67/catalog_client/proxy"
)

// State is the session lifecycle state of a Client.
type State int32

const (
	Uninitialized State = iota
	Establishing
	Active
	ShuttingDown
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Establishing:
		return "establishing"
	case Active:
		return "active"
	case ShuttingDown:
		return "shutting down"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// EndpointSource supplies the remote service location, consulted exactly
// once at Start.
type EndpointSource interface {
	// Host is the node hostname of the service.
	Host() string
	// Address is the raw network address of the service.
	Address() string
	// Port is the service port.
	Port() uint16
}

// StaticEndpoint is an EndpointSource with fixed values.
type StaticEndpoint struct {
	NodeHost    string
	NodeAddress string
	NodePort    uint16
}

func (e StaticEndpoint) Host() string    { return e.NodeHost }
func (e StaticEndpoint) Address() string { return e.NodeAddress }
func (e StaticEndpoint) Port() uint16    { return e.NodePort }

// Caller is the transport surface the client needs; *proxy.Proxy satisfies
// it.
type Caller interface {
	Call(ctrl *proxy.Controller, method string, args any, reply protocol.Reply) error
	Go(ctrl *proxy.Controller, method string, args any, reply protocol.Reply, done func(error))
	Close() error
}

// Client maintains one live session with the remote catalog service and
// issues session-stamped administrative calls against it. All operations
// after a successful Start may be used concurrently; Start and Shutdown
// themselves must not.
type Client struct {
	cfg       config.Config
	sessionId uint64

	state atomic.Int32

	dial  func(protocol.Connection) (Caller, error)
	proxy Caller

	// Heartbeats keep their own controller so they never race admin calls
	// on shared call state.
	heartbeatCtrl    proxy.Controller
	heartbeatRunning atomic.Bool
	createDone       chan error
	heartbeatPoller  *poller.Poller
	inflight         sync.WaitGroup
}

func buildConnection(src EndpointSource, useHostname bool) protocol.Connection {
	host := src.Address()
	resolveForever := false
	if useHostname {
		host = src.Host()
		resolveForever = true
	}
	return protocol.Connection{
		Network:        "tcp",
		Address:        net.JoinHostPort(host, strconv.Itoa(int(src.Port()))),
		ResolveForever: resolveForever,
	}
}
