package pipeline

import "sync"

type update struct {
	jobID   string
	state   State
	payload *Payload
}

// dispatcher delivers updates to the presenter from a single goroutine.
// push never blocks, so it can be called while holding the coordinator lock.
type dispatcher struct {
	presenter Presenter

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []update
	closed bool
	done   chan struct{}
}

func newDispatcher(p Presenter) *dispatcher {
	d := &dispatcher{presenter: p, done: make(chan struct{})}
	d.cond = sync.NewCond(&d.mu)
	go d.loop()
	return d
}

func (d *dispatcher) push(u update) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue = append(d.queue, u)
	d.cond.Signal()
}

func (d *dispatcher) loop() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		u := d.queue[0]
		d.queue[0] = update{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if d.presenter != nil {
			d.presenter.OnJobUpdate(u.jobID, u.state, u.payload)
		}
	}
}

// close delivers what is queued and stops the goroutine
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()
	<-d.done
}
