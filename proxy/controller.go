package proxy

import "time"

// HeartbeatDeadlineMargin is subtracted from the heartbeat interval when
// computing a heartbeat deadline, so a hung heartbeat always times out
// strictly before the next tick is due.
const HeartbeatDeadlineMargin = time.Millisecond

// Controller is the per-call context: it carries the deadline for one
// outgoing call and is reset before each reuse. A controller must not be
// used by two calls at the same time.
type Controller struct {
	deadline time.Time
}

// Reset clears the controller for reuse by the next call.
func (c *Controller) Reset() {
	c.deadline = time.Time{}
}

// SetDeadline sets an absolute point in time by which the call must
// complete.
func (c *Controller) SetDeadline(deadline time.Time) {
	c.deadline = deadline
}

// SetTimeout sets the deadline relative to now.
func (c *Controller) SetTimeout(timeout time.Duration) {
	c.deadline = time.Now().Add(timeout)
}

// Deadline returns the configured deadline; zero means unbounded.
func (c *Controller) Deadline() time.Time { return c.deadline }

// SetupAdmin applies the admin deadline policy: an explicit non-zero
// deadline is used verbatim, otherwise the default timeout is applied from
// now.
func (c *Controller) SetupAdmin(deadline time.Time, defaultTimeout time.Duration) *Controller {
	if !deadline.IsZero() {
		c.SetDeadline(deadline)
	} else {
		c.SetTimeout(defaultTimeout)
	}
	return c
}

// SetupHeartbeat applies the heartbeat deadline policy: the call must finish
// one margin before the next heartbeat would fire.
func (c *Controller) SetupHeartbeat(interval time.Duration) *Controller {
	c.SetDeadline(time.Now().Add(interval - HeartbeatDeadlineMargin))
	return c
}
