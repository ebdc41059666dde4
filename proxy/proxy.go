// Package proxy performs single round trips against the remote catalog
// service: it binds one net/rpc connection, applies the per-call deadline
// carried by a Controller, and translates reply statuses into errors.
package proxy

import (
	"fmt"
	"net/rpc"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alanwang67/catalog_client/protocol"
)

// CallError is a transport-level failure: the call never produced a
// well-formed reply. Distinct from *protocol.StatusError, which means the
// server answered and rejected the request.
type CallError struct {
	Method  string
	Timeout bool
	Err     error
}

func (e *CallError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: deadline exceeded", e.Method)
	}
	return fmt.Sprintf("%s: %s", e.Method, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Proxy is a callable binding to one remote endpoint. It is safe for
// concurrent calls as long as each call uses its own Controller.
type Proxy struct {
	conn   protocol.Connection
	client *rpc.Client
}

// Dial connects the proxy to the endpoint described by conn.
func Dial(conn protocol.Connection) (*Proxy, error) {
	client, err := rpc.Dial(conn.Network, conn.Address)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", conn.Address, err)
	}
	log.Debugf("proxy bound to %s", conn.Address)
	return &Proxy{conn: conn, client: client}, nil
}

// Target returns the endpoint this proxy is bound to.
func (p *Proxy) Target() protocol.Connection { return p.conn }

// Call performs one synchronous round trip. It blocks until the reply
// arrives or the controller's deadline expires, then translates any non-OK
// reply status into a *protocol.StatusError.
func (p *Proxy) Call(ctrl *Controller, method string, args any, reply protocol.Reply) error {
	call := p.client.Go(method, args, reply, make(chan *rpc.Call, 1))

	if deadline := ctrl.Deadline(); !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		select {
		case <-call.Done:
		case <-timer.C:
			// The transport call is abandoned; a late reply is discarded
			// by net/rpc.
			return &CallError{Method: method, Timeout: true}
		}
	} else {
		<-call.Done
	}

	if call.Error != nil {
		return &CallError{Method: method, Err: call.Error}
	}
	return reply.ReplyStatus().Err()
}

// Go performs one asynchronous round trip and returns immediately. The done
// callback receives the translated outcome and runs on a transport
// goroutine, not the calling one.
func (p *Proxy) Go(ctrl *Controller, method string, args any, reply protocol.Reply, done func(error)) {
	go func() {
		done(p.Call(ctrl, method, args, reply))
	}()
}

// Close releases the underlying connection. No calls may be outstanding.
func (p *Proxy) Close() error {
	return p.client.Close()
}
