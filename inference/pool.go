package inference

import (
	"sync"
)

// Factory creates the i'th Engine of a Pool
type Factory func(i int) (Engine, error)

// Pool is a simple pool of Engines so several video streams can share a
// fixed number of loaded Models
type Pool struct {
	// pool of engines
	engines chan Engine
	// size of pool
	size   int
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new engine pool
func NewPool(size int, factory Factory) (*Pool, error) {
	p := &Pool{
		engines: make(chan Engine, size),
		size:    size,
	}

	for i := 0; i < size; i++ {
		e, err := factory(i)

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(e)
	}

	return p, nil
}

// ONNXFactory returns a Factory loading the ONNX Model for every engine
func ONNXFactory(modelFile, backend, target string) Factory {
	return func(int) (Engine, error) {
		return NewONNXEngine(modelFile, backend, target)
	}
}

// Get an engine from the pool, blocking until one is free.  The second
// return is false once the pool is closed
func (p *Pool) Get() (Engine, bool) {
	e, ok := <-p.engines
	return e, ok
}

// Return an engine to the pool.  Engines returned after Close are closed
func (p *Pool) Return(e Engine) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		_ = e.Close()
		return
	}

	select {
	case p.engines <- e:
	default:
		// pool is full
		_ = e.Close()
	}
}

// Size returns the number of engines in the pool
func (p *Pool) Size() int {
	return p.size
}

// Close the pool and all engines in it
func (p *Pool) Close() {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return
	}

	p.closed = true
	// close channel
	close(p.engines)
	p.mu.Unlock()

	// close all engines
	for next := range p.engines {
		_ = next.Close()
	}
}
