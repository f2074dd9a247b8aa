package trafficlight

import "sync"

// worker is the join handle of one goroutine owned by a traffic light
type worker struct {
	name string
	done chan struct{}
}

// workerGroup owns the goroutines a traffic light spawns and joins them on teardown
type workerGroup struct {
	mutex   sync.Mutex
	workers []*worker
}

// Go runs fn on a new goroutine and records its handle
func (g *workerGroup) Go(name string, fn func()) {
	w := &worker{
		name: name,
		done: make(chan struct{}),
	}

	g.mutex.Lock()
	g.workers = append(g.workers, w)
	g.mutex.Unlock()

	go func() {
		defer close(w.done)
		fn()
	}()
}

// Wait blocks until every owned goroutine has returned. A worker is forgotten only after
// it has been joined.
func (g *workerGroup) Wait() {
	g.mutex.Lock()
	workers := make([]*worker, len(g.workers))
	copy(workers, g.workers)
	g.mutex.Unlock()

	for _, w := range workers {
		<-w.done
		g.forget(w)
	}
}

func (g *workerGroup) forget(w *worker) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	for i, other := range g.workers {
		if other == w {
			g.workers = append(g.workers[:i], g.workers[i+1:]...)
			return
		}
	}
}
