package client

import (
	"github.com/charmbracelet/log"

	"github.com/alanwang67/catalog_client/protocol"
)

// heartbeat performs one heartbeat tick. The create flag is set only on the
// bootstrap call issued from Start; every later tick comes from the
// recurring poller. The tick never blocks: it submits the call
// asynchronously and returns.
func (c *Client) heartbeat(create bool) {
	if !c.heartbeatRunning.CompareAndSwap(false, true) {
		// A tick fired while the previous heartbeat is still in flight.
		// That heartbeat's deadline expires before the next tick, so this
		// means the scheduler or the transport is misbehaving. Skip the
		// tick; the next one retries.
		log.Errorf("session %d: heartbeat did not complete yet, skipping tick", c.sessionId)
		return
	}

	req := &protocol.HeartbeatRequest{Create: create, SessionId: c.sessionId}
	reply := &protocol.HeartbeatReply{}
	c.heartbeatCtrl.Reset()
	c.heartbeatCtrl.SetupHeartbeat(c.cfg.HeartbeatInterval)

	c.inflight.Add(1)
	c.proxy.Go(&c.heartbeatCtrl, protocol.MethodHeartbeat, req, reply, func(err error) {
		defer c.inflight.Done()
		c.heartbeatRunning.Store(false)
		if create {
			c.createDone <- err
		} else if err != nil {
			// Non-fatal: the session survives a missed heartbeat, the
			// next tick retries liveness.
			log.Warnf("session %d: heartbeat failed: %v", c.sessionId, err)
		}
	})
}
