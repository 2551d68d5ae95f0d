// Package barrier implements a reusable cyclic rendezvous point, the
// piece Go's standard library omits (there is no pthread_barrier_t
// equivalent in sync). The scheduler and the two per-minute compute
// workers use one to start together and a second to signal completion.
package barrier

import "sync"

// Barrier blocks n goroutines at Wait until all n have arrived, then
// releases them together and resets for the next round.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	n          int
	waiting    int
	generation uint64
}

// New builds a barrier for exactly n participants.
func New(n int) *Barrier {
	if n <= 0 {
		n = 1
	}
	b := &Barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks the calling goroutine until n goroutines have called Wait
// on the same generation, then releases all of them.
func (b *Barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.waiting++

	if b.waiting == b.n {
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		return
	}

	for gen == b.generation {
		b.cond.Wait()
	}
}
