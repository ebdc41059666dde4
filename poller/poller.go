// Package poller provides the recurring-timer primitive driving periodic
// work such as heartbeats.
package poller

import (
	"sync"
	"time"
)

// Poller invokes a callback at a fixed interval from its own goroutine until
// Shutdown. The callback is invoked from one goroutine only, so invocations
// never overlap each other; a callback that needs to stay non-blocking must
// hand its work off itself.
type Poller struct {
	callback func()

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New returns a poller bound to callback. It does not tick until Start.
func New(callback func()) *Poller {
	return &Poller{callback: callback}
}

// Start begins invoking the callback every interval. Starting a running
// poller is a no-op.
func (p *Poller) Start(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(interval, p.stop, p.done)
}

func (p *Poller) run(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.callback()
		}
	}
}

// Shutdown stops the schedule and waits for the polling goroutine to exit.
// After Shutdown returns the callback will not be invoked again. Safe to
// call more than once.
func (p *Poller) Shutdown() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	<-done
}
