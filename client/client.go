// Package client implements the session-bound RPC client of the catalog
// service: it establishes a session through a bootstrap heartbeat, keeps it
// alive on a recurring schedule, and issues session-stamped administrative
// calls.
package client

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/rand"

	"github.com/alanwang67/catalog_client/catalog"
	"github.com/alanwang67/catalog_client/config"
	"github.com/alanwang67/catalog_client/poller"
	"github.com/alanwang67/catalog_client/protocol"
	"github.com/alanwang67/catalog_client/proxy"
)

// New creates a client. The session identifier is fixed here, before any
// call is issued.
func New(cfg config.Config) *Client {
	c := &Client{
		cfg:        cfg,
		sessionId:  rand.Uint64(),
		createDone: make(chan error, 1),
		dial: func(conn protocol.Connection) (Caller, error) {
			return proxy.Dial(conn)
		},
	}
	c.heartbeatPoller = poller.New(func() { c.heartbeat(false) })
	log.Debugf("catalog client created with session %d", c.sessionId)
	return c
}

// SessionId returns the identifier stamped onto every call of this client.
func (c *Client) SessionId() uint64 { return c.sessionId }

// State returns the current lifecycle state.
func (c *Client) State() State { return State(c.state.Load()) }

// Start binds the transport to the endpoint, issues the bootstrap heartbeat
// and blocks until the server has confirmed or rejected the session. On
// failure the client is unusable; construct a new one instead of retrying.
func (c *Client) Start(src EndpointSource) error {
	if !c.state.CompareAndSwap(int32(Uninitialized), int32(Establishing)) {
		panic(fmt.Sprintf("catalog client started in state %s", c.State()))
	}

	conn := buildConnection(src, c.cfg.UseHostname)
	log.Infof("using catalog endpoint %s", conn.Address)

	p, err := c.dial(conn)
	if err != nil {
		c.state.Store(int32(Closed))
		return err
	}
	c.proxy = p

	c.heartbeat(true)
	if err := <-c.createDone; err != nil {
		c.inflight.Wait()
		c.releaseProxy()
		c.state.Store(int32(Closed))
		return fmt.Errorf("creating session %d: %w", c.sessionId, err)
	}

	c.state.Store(int32(Active))
	c.heartbeatPoller.Start(c.cfg.HeartbeatInterval)
	log.Debugf("session %d active, heartbeating every %s", c.sessionId, c.cfg.HeartbeatInterval)
	return nil
}

// Shutdown stops the heartbeat schedule, waits out any in-flight heartbeat
// and releases the transport binding. A client that never became Active has
// nothing to release.
func (c *Client) Shutdown() {
	if !c.state.CompareAndSwap(int32(Active), int32(ShuttingDown)) {
		return
	}
	c.heartbeatPoller.Shutdown()
	c.inflight.Wait()
	c.releaseProxy()
	c.state.Store(int32(Closed))
	log.Debugf("session %d closed", c.sessionId)
}

func (c *Client) releaseProxy() {
	if err := c.proxy.Close(); err != nil {
		log.Warnf("session %d: closing transport: %v", c.sessionId, err)
	}
	c.proxy = nil
}

func (c *Client) requireActive() {
	if s := c.State(); s != Active {
		panic(fmt.Sprintf("administrative call on %s catalog client", s))
	}
}

func (c *Client) adminController(deadline time.Time) *proxy.Controller {
	return new(proxy.Controller).SetupAdmin(deadline, c.cfg.AdminTimeout)
}

// CreateDatabase creates a database. A zero deadline applies the configured
// admin timeout.
func (c *Client) CreateDatabase(req *protocol.CreateDatabaseRequest, deadline time.Time) error {
	c.requireActive()
	req.SessionId = c.sessionId
	reply := &protocol.CreateDatabaseReply{}
	return c.proxy.Call(c.adminController(deadline), protocol.MethodCreateDatabase, req, reply)
}

// CreateTable creates a table. A zero deadline applies the configured admin
// timeout.
func (c *Client) CreateTable(req *protocol.CreateTableRequest, deadline time.Time) error {
	c.requireActive()
	req.SessionId = c.sessionId
	reply := &protocol.CreateTableReply{}
	return c.proxy.Call(c.adminController(deadline), protocol.MethodCreateTable, req, reply)
}

// AlterTable alters a table. A zero deadline applies the configured admin
// timeout.
func (c *Client) AlterTable(req *protocol.AlterTableRequest, deadline time.Time) error {
	c.requireActive()
	req.SessionId = c.sessionId
	reply := &protocol.AlterTableReply{}
	return c.proxy.Call(c.adminController(deadline), protocol.MethodAlterTable, req, reply)
}

// OpenTable fetches the schema and partition list of a table and
// reconstructs its descriptor.
func (c *Client) OpenTable(tableId protocol.TableId) (*catalog.TableDescriptor, error) {
	c.requireActive()
	req := &protocol.OpenTableRequest{SessionId: c.sessionId, TableId: tableId}
	reply := &protocol.OpenTableReply{}
	if err := c.proxy.Call(c.adminController(time.Time{}), protocol.MethodOpenTable, req, reply); err != nil {
		return nil, err
	}
	return catalog.NewTableDescriptor(reply.Info, reply.Partitions)
}

// GetDatabaseInfo returns the namespace record of one database.
func (c *Client) GetDatabaseInfo(oid uint32) (*protocol.NamespaceInfo, error) {
	c.requireActive()
	req := &protocol.GetDatabaseInfoRequest{SessionId: c.sessionId, Oid: oid}
	reply := &protocol.GetDatabaseInfoReply{}
	if err := c.proxy.Call(c.adminController(time.Time{}), protocol.MethodGetDatabaseInfo, req, reply); err != nil {
		return nil, err
	}
	return &reply.Info, nil
}

// ReserveOids allocates count object ids in a database, starting no lower
// than nextOid. The returned range is [begin, end).
func (c *Client) ReserveOids(databaseOid, nextOid, count uint32) (uint32, uint32, error) {
	c.requireActive()
	req := &protocol.ReserveOidsRequest{
		SessionId:   c.sessionId,
		DatabaseOid: databaseOid,
		NextOid:     nextOid,
		Count:       count,
	}
	reply := &protocol.ReserveOidsReply{}
	if err := c.proxy.Call(c.adminController(time.Time{}), protocol.MethodReserveOids, req, reply); err != nil {
		return 0, 0, err
	}
	return reply.BeginOid, reply.EndOid, nil
}

// IsInitDbDone reports whether the cluster's one-time initialization has
// completed.
func (c *Client) IsInitDbDone() (bool, error) {
	c.requireActive()
	req := &protocol.IsInitDbDoneRequest{SessionId: c.sessionId}
	reply := &protocol.IsInitDbDoneReply{}
	if err := c.proxy.Call(c.adminController(time.Time{}), protocol.MethodIsInitDbDone, req, reply); err != nil {
		return false, err
	}
	return reply.Done, nil
}
